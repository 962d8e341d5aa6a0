package zonetrack

import (
	"image"
)

// BoxRect are the dimensions of the bounding box of a tracked object
type BoxRect struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// TrackedObject defines the attributes of a single object tracked across
// video frames.  Instances are consumed by the zone tracking core, they
// are never mutated by it.
type TrackedObject struct {
	// TrackID is the stable ID assigned to this object by the upstream
	// multi-object tracker.  An ID may be reused by the tracker after an
	// object disappears, at this layer a reused ID is indistinguishable
	// from a new object
	TrackID int64
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the tracked object
	Class int
	// Box are the bounding box dimensions of the object location
	Box BoxRect
	// Probability is the confidence score of the object detected
	Probability float32
}

// DwellResult pairs a tracked object with the time it has spent inside a
// zone.  The embedded TrackedObject is a copy of the engine input, dwell
// annotation never modifies the original detection.
type DwellResult struct {
	TrackedObject
	// ElapsedSeconds is the time in seconds since this objects track ID
	// was first seen inside the zone
	ElapsedSeconds float64
}

// Anchor selects the representative point of a bounding box used for
// zone containment tests
type Anchor int

const (
	// AnchorBottomCenter anchors on the bottom middle of the box, the
	// point where the object touches the ground plane
	AnchorBottomCenter Anchor = iota
	// AnchorCentroid anchors on the center of the box
	AnchorCentroid
)

// AnchorPoint returns the representative point of the given bounding box
// for the anchor policy
func AnchorPoint(box BoxRect, anchor Anchor) image.Point {

	switch anchor {
	case AnchorCentroid:
		return image.Pt((box.Left+box.Right)/2, (box.Top+box.Bottom)/2)

	case AnchorBottomCenter:
		fallthrough
	default:
		return image.Pt((box.Left+box.Right)/2, box.Bottom)
	}
}

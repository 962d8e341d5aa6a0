package zonetrack

import (
	"fmt"
	"image"
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// Zone is a fixed polygonal region of interest in frame coordinates.  A
// Zone answers batch containment queries for tracked objects and is
// immutable once constructed.
type Zone struct {
	// polygon vertices in frame coordinates, at least 3
	polygon []image.Point
	// resolution is the frame size the polygon was defined against.  It
	// is carried for rendering collaborators and plays no part in the
	// containment math
	resolution image.Point
	// anchor is the representative point policy used for containment
	// tests, fixed at construction
	anchor Anchor
}

// NewZone creates a Zone from the given polygon defined against the
// frame resolution.  The polygon must have at least 3 vertices and
// enclose a non zero area, a malformed polygon is a configuration error
// reported here so no containment query can ever fail.
func NewZone(polygon []image.Point, resolution image.Point,
	anchor Anchor) (*Zone, error) {

	if len(polygon) < 3 {
		return nil, fmt.Errorf("polygon must have at least 3 vertices, got %d",
			len(polygon))
	}

	if math.Abs(clipper.Area(toClipperPath(polygon))) == 0 {
		return nil, fmt.Errorf("polygon encloses no area")
	}

	// copy vertices so later mutation of the callers slice cannot alter
	// the zone
	poly := make([]image.Point, len(polygon))
	copy(poly, polygon)

	return &Zone{
		polygon:    poly,
		resolution: resolution,
		anchor:     anchor,
	}, nil
}

// Polygon returns a copy of the zones polygon vertices
func (z *Zone) Polygon() []image.Point {
	poly := make([]image.Point, len(z.polygon))
	copy(poly, z.polygon)
	return poly
}

// Resolution returns the frame resolution the zone polygon was defined
// against
func (z *Zone) Resolution() image.Point {
	return z.resolution
}

// Anchor returns the anchor policy used for containment tests
func (z *Zone) Anchor() Anchor {
	return z.anchor
}

// Contains tests each tracked objects anchor point for membership of the
// zone polygon and returns one flag per input object.  Points on the
// polygon boundary count as inside so an object sitting exactly on an
// edge does not flicker in and out of the zone between frames.
func (z *Zone) Contains(objects []TrackedObject) []bool {

	mask := make([]bool, len(objects))

	for i, obj := range objects {
		mask[i] = z.ContainsPoint(AnchorPoint(obj.Box, z.anchor))
	}

	return mask
}

// ContainsPoint tests a single point for membership of the zone polygon,
// boundary inclusive
func (z *Zone) ContainsPoint(p image.Point) bool {

	inside := false
	j := len(z.polygon) - 1

	for i := 0; i < len(z.polygon); i++ {

		a := z.polygon[i]
		b := z.polygon[j]

		// boundary points are inside
		if onSegment(p, a, b) {
			return true
		}

		// even-odd ray cast, horizontal ray towards positive x
		if (a.Y > p.Y) != (b.Y > p.Y) {
			crossX := float64(b.X-a.X)*float64(p.Y-a.Y)/
				float64(b.Y-a.Y) + float64(a.X)

			if float64(p.X) < crossX {
				inside = !inside
			}
		}

		j = i
	}

	return inside
}

// Overlaps reports whether this zones polygon intersects the polygon of
// the other zone.  Overlapping zones are valid, an object inside the
// overlap dwells in both zones at once, but drivers may want to warn on
// accidental overlap in a configuration file.
func (z *Zone) Overlaps(other *Zone) bool {

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(toClipperPath(z.polygon), clipper.PtSubject, true)
	c.AddPath(toClipperPath(other.polygon), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftEvenOdd,
		clipper.PftEvenOdd)

	if !ok {
		return false
	}

	return len(solution) > 0
}

// toClipperPath converts polygon vertices to a Clipper Path
func toClipperPath(polygon []image.Point) clipper.Path {

	var path clipper.Path

	for _, pt := range polygon {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X),
			Y: clipper.CInt(pt.Y),
		})
	}

	return path
}

// onSegment reports whether point p lies on the line segment between a
// and b
func onSegment(p, a, b image.Point) bool {

	// cross product of (b-a) and (p-a), non zero means not collinear
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)

	if cross != 0 {
		return false
	}

	// collinear, check p is within the segment bounds
	if p.X < min(a.X, b.X) || p.X > max(a.X, b.X) {
		return false
	}

	if p.Y < min(a.Y, b.Y) || p.Y > max(a.Y, b.Y) {
		return false
	}

	return true
}

package tracker

import (
	"fmt"
)

// SortTracker is a SORT style multi-object tracker.  Detections are
// associated to existing tracks by greedy IoU matching against Kalman
// predicted boxes, unmatched detections above the activation threshold
// spawn new tracks and tracks unmatched for longer than the lost buffer
// are removed.
//
// Track IDs increase monotonically and are never reassigned while a
// track is alive.  The tracker is not safe for concurrent use, Update
// must be called once per frame in frame order.
type SortTracker struct {
	// iouThresh is the minimum IoU for a detection/track association
	iouThresh float32
	// activateThresh is the minimum detection confidence to start a
	// new track
	activateThresh float32
	// maxTimeLost is the number of frames a lost track is kept for
	// re-association before removal
	maxTimeLost int
	// minHits is the number of associations a track needs before it is
	// reported, filters one frame false positives
	minHits int
	// frameID is the current frame number
	frameID int
	// trackIDCount assigns unique track IDs
	trackIDCount int64
	// tracks holds all live tracks, confirmed and lost
	tracks []*Track
	kf     *KalmanFilter
}

// NewSortTracker initializes and returns a new SortTracker.  frameRate
// and trackBuffer control how many frames a lost track survives,
// iouThresh the association strictness and activateThresh the
// confidence needed to start a track.
func NewSortTracker(frameRate, trackBuffer int, iouThresh,
	activateThresh float32) *SortTracker {

	return &SortTracker{
		iouThresh:      iouThresh,
		activateThresh: activateThresh,
		maxTimeLost:    int(float32(frameRate) / 30.0 * float32(trackBuffer)),
		minHits:        2,
		kf:             NewKalmanFilter(1.0/20.0, 1.0/160.0),
	}
}

// Reset clears the tracked data and resets everything
func (st *SortTracker) Reset() {
	st.frameID = 0
	st.trackIDCount = 0
	st.tracks = nil
}

// Update runs one frame of association and returns the confirmed tracks
func (st *SortTracker) Update(objects []Object) ([]*Track, error) {

	st.frameID++

	// predict all live tracks forward one frame
	for _, track := range st.tracks {
		track.predict(st.kf)
	}

	matches, unmatchedTracks, unmatchedDets := st.associate(objects)

	// correct matched tracks with their detections
	for _, m := range matches {

		track := st.tracks[m[0]]

		if err := track.update(st.kf, objects[m[1]], st.frameID); err != nil {
			return nil, fmt.Errorf("error updating track %d: %w",
				track.GetTrackID(), err)
		}
	}

	// age unmatched tracks
	for _, ti := range unmatchedTracks {

		track := st.tracks[ti]

		switch track.GetState() {
		case New:
			// unconfirmed track missed immediately, drop it
			track.markRemoved()

		case Tracked:
			track.markLost()

		case Lost:
			if st.frameID-track.GetFrameID() > st.maxTimeLost {
				track.markRemoved()
			}
		}
	}

	// spawn tracks for confident unmatched detections
	for _, di := range unmatchedDets {

		obj := objects[di]

		if obj.Prob < st.activateThresh {
			continue
		}

		st.trackIDCount++
		st.tracks = append(st.tracks,
			newTrack(st.kf, obj, st.frameID, st.trackIDCount))
	}

	// compact removed tracks and collect output
	live := st.tracks[:0]
	var output []*Track

	for _, track := range st.tracks {

		if track.GetState() == Removed {
			continue
		}

		live = append(live, track)

		// report confirmed tracks, with a startup grace period so the
		// first frames are not empty
		switch {
		case track.GetState() == Tracked && track.hits >= st.minHits:
			output = append(output, track)

		case st.frameID <= st.minHits &&
			(track.GetState() == Tracked || track.GetState() == New):
			output = append(output, track)
		}
	}

	st.tracks = live

	return output, nil
}

// associate matches detections to tracks by greedy IoU.  The highest
// IoU pair is taken repeatedly until no pair above the threshold
// remains.  Returns matched index pairs (track, detection) and the
// leftover indices on both sides.
func (st *SortTracker) associate(objects []Object) (matches [][2]int,
	unmatchedTracks, unmatchedDets []int) {

	if len(st.tracks) == 0 || len(objects) == 0 {

		for i := range st.tracks {
			unmatchedTracks = append(unmatchedTracks, i)
		}

		for i := range objects {
			unmatchedDets = append(unmatchedDets, i)
		}

		return
	}

	ious := make([][]float32, len(st.tracks))

	for i, track := range st.tracks {

		rect := track.GetRect()
		ious[i] = make([]float32, len(objects))

		for j, obj := range objects {
			ious[i][j] = rect.CalcIoU(obj.Rect)
		}
	}

	usedTrack := make([]bool, len(st.tracks))
	usedDet := make([]bool, len(objects))

	for {
		best := st.iouThresh
		bi, bj := -1, -1

		for i := range ious {

			if usedTrack[i] {
				continue
			}

			for j := range ious[i] {
				if !usedDet[j] && ious[i][j] >= best {
					best = ious[i][j]
					bi, bj = i, j
				}
			}
		}

		if bi < 0 {
			break
		}

		usedTrack[bi] = true
		usedDet[bj] = true
		matches = append(matches, [2]int{bi, bj})
	}

	for i, used := range usedTrack {
		if !used {
			unmatchedTracks = append(unmatchedTracks, i)
		}
	}

	for j, used := range usedDet {
		if !used {
			unmatchedDets = append(unmatchedDets, j)
		}
	}

	return
}

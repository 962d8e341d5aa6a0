package tracker

import "sync"

// Point represents the x,y coordinates of the center of a tracked
// bounding box
type Point struct {
	X, Y int
}

// history represents the point history of one track
type history struct {
	points []Point
}

// Trail keeps a history of track center points used for drawing a
// trail behind each tracked object
type Trail struct {
	// size is the maximum number of most recent points to keep per track
	size int
	// tracks maps track ID to its point history
	tracks map[int64]*history
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size specifies the
// maximum number of most recent points to keep per track.
func NewTrail(size int) *Trail {
	return &Trail{
		size:   size,
		tracks: make(map[int64]*history),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.tracks = make(map[int64]*history)
}

// Add records the current center point of a track
func (t *Trail) Add(track *Track) {
	t.Lock()
	defer t.Unlock()

	id := track.GetTrackID()

	if _, exists := t.tracks[id]; !exists {
		t.tracks[id] = &history{}
	}

	rect := track.GetRect()
	hist := t.tracks[id]

	hist.points = append(hist.points, Point{
		X: int(rect.TLX() + rect.Width/2),
		Y: int(rect.TLY() + rect.Height/2),
	})

	// drop the oldest point once the history is full
	if len(hist.points) > t.size {
		hist.points = hist.points[1:]
	}
}

// GetPoints gets the point history for a specific track ID
func (t *Trail) GetPoints(id int64) []Point {
	t.Lock()
	defer t.Unlock()

	if _, exists := t.tracks[id]; exists {
		return t.tracks[id].points
	}

	// no history yet
	return nil
}

package tracker

import (
	"math"
	"testing"
)

// almostEqual checks if two float32 values are approximately equal
func almostEqual(a, b, tolerance float32) bool {
	return float32(math.Abs(float64(a)-float64(b))) <= tolerance
}

// trackIDs collects the IDs of the given tracks
func trackIDs(tracks []*Track) []int64 {

	ids := make([]int64, len(tracks))

	for i, track := range tracks {
		ids[i] = track.GetTrackID()
	}

	return ids
}

// TestSortTrackerStableIDs tests detections moving between frames keep
// their assigned track IDs
func TestSortTrackerStableIDs(t *testing.T) {

	st := NewSortTracker(30, 30, 0.3, 0.5)

	// frame 1, two objects
	tracks, err := st.Update([]Object{
		NewObject(NewRect(100, 100, 50, 100), 0, 0.9),
		NewObject(NewRect(300, 120, 40, 90), 0, 0.8),
	})

	if err != nil {
		t.Fatalf("frame 1: unexpected error: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("frame 1: expected 2 tracks, got %d", len(tracks))
	}

	ids := trackIDs(tracks)

	if ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("frame 1: expected IDs [1 2], got %v", ids)
	}

	// frame 2, both objects moved slightly
	tracks, err = st.Update([]Object{
		NewObject(NewRect(105, 101, 50, 100), 0, 0.9),
		NewObject(NewRect(304, 123, 40, 90), 0, 0.8),
	})

	if err != nil {
		t.Fatalf("frame 2: unexpected error: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("frame 2: expected 2 tracks, got %d", len(tracks))
	}

	ids = trackIDs(tracks)

	if ids[0] != 1 || ids[1] != 2 {
		t.Errorf("frame 2: expected IDs [1 2], got %v", ids)
	}

	// track estimate should sit near the latest detection
	rect := tracks[0].GetRect()

	if !almostEqual(rect.TLX(), 105, 10) || !almostEqual(rect.TLY(), 101, 10) {
		t.Errorf("frame 2: track 1 estimate far from detection: %+v", rect)
	}
}

// TestSortTrackerLostAndRemoved tests an unmatched track survives the
// lost buffer for re-association and is removed after it
func TestSortTrackerLostAndRemoved(t *testing.T) {

	st := NewSortTracker(30, 30, 0.3, 0.5)

	a := NewObject(NewRect(100, 100, 50, 100), 0, 0.9)
	b := NewObject(NewRect(400, 120, 40, 90), 0, 0.8)

	// establish both tracks
	for i := 0; i < 2; i++ {
		if _, err := st.Update([]Object{a, b}); err != nil {
			t.Fatalf("setup frame %d: unexpected error: %v", i, err)
		}
	}

	// object b disappears for a few frames then returns, inside the
	// lost buffer it keeps its ID
	for i := 0; i < 5; i++ {

		tracks, err := st.Update([]Object{a})

		if err != nil {
			t.Fatalf("gap frame %d: unexpected error: %v", i, err)
		}

		if len(tracks) != 1 || tracks[0].GetTrackID() != 1 {
			t.Fatalf("gap frame %d: expected only track 1, got %v",
				i, trackIDs(tracks))
		}
	}

	tracks, err := st.Update([]Object{a, b})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := trackIDs(tracks)

	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("expected b to re-associate as track 2, got %v", ids)
	}

	// object b disappears past the lost buffer, its track is removed
	// and a detection at the same place becomes a new track
	for i := 0; i < 40; i++ {
		if _, err := st.Update([]Object{a}); err != nil {
			t.Fatalf("removal frame %d: unexpected error: %v", i, err)
		}
	}

	tracks, err = st.Update([]Object{a, b})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// new tracks need a confirmation frame before being reported
	tracks, err = st.Update([]Object{a, b})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids = trackIDs(tracks)

	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("expected removed track to get fresh ID 3, got %v", ids)
	}
}

// TestSortTrackerActivationThreshold tests low confidence detections do
// not start tracks
func TestSortTrackerActivationThreshold(t *testing.T) {

	st := NewSortTracker(30, 30, 0.3, 0.5)

	tracks, err := st.Update([]Object{
		NewObject(NewRect(100, 100, 50, 100), 0, 0.2),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracks) != 0 {
		t.Errorf("expected no tracks from low confidence detection, got %d",
			len(tracks))
	}
}

// TestSortTrackerReset tests Reset clears all state and restarts IDs
func TestSortTrackerReset(t *testing.T) {

	st := NewSortTracker(30, 30, 0.3, 0.5)

	if _, err := st.Update([]Object{
		NewObject(NewRect(100, 100, 50, 100), 0, 0.9),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st.Reset()

	tracks, err := st.Update([]Object{
		NewObject(NewRect(100, 100, 50, 100), 0, 0.9),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracks) != 1 || tracks[0].GetTrackID() != 1 {
		t.Errorf("expected track ID 1 after reset, got %v", trackIDs(tracks))
	}
}

// TestCalcIoU tests IoU calculation between rectangles
func TestCalcIoU(t *testing.T) {

	const tolerance = 1e-5

	cases := []struct {
		name string
		a    Rect
		b    Rect
		want float32
	}{
		{"identical", NewRect(0, 0, 10, 10), NewRect(0, 0, 10, 10), 1.0},
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(20, 20, 10, 10), 0.0},
		{"half overlap", NewRect(0, 0, 10, 10), NewRect(5, 0, 10, 10),
			50.0 / 150.0},
		{"touching edge", NewRect(0, 0, 10, 10), NewRect(10, 0, 10, 10), 0.0},
	}

	for _, tc := range cases {
		if got := tc.a.CalcIoU(tc.b); !almostEqual(got, tc.want, tolerance) {
			t.Errorf("%s: IoU = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// TestTrail tests trail history is capped at the configured size
func TestTrail(t *testing.T) {

	st := NewSortTracker(30, 30, 0.3, 0.5)

	tracks, err := st.Update([]Object{
		NewObject(NewRect(100, 100, 50, 100), 0, 0.9),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trail := NewTrail(3)

	for i := 0; i < 10; i++ {
		trail.Add(tracks[0])
	}

	points := trail.GetPoints(tracks[0].GetTrackID())

	if len(points) != 3 {
		t.Errorf("expected trail capped at 3 points, got %d", len(points))
	}

	if got := trail.GetPoints(99); got != nil {
		t.Errorf("expected nil history for unknown ID, got %v", got)
	}
}

package zonetrack

import (
	"image"
	"testing"
	"time"
)

// objAt returns a tracked object whose bottom center anchor sits at the
// given point
func objAt(id int64, x, y int) TrackedObject {
	return TrackedObject{
		TrackID: id,
		Class:   0,
		Box:     BoxRect{Left: x - 2, Top: y - 4, Right: x + 2, Bottom: y},
	}
}

// newTestEngine creates an engine over the given polygons
func newTestEngine(t *testing.T, polygons ...[]image.Point) *Engine {

	t.Helper()

	zones := make([]*Zone, len(polygons))

	for i, polygon := range polygons {

		zone, err := NewZone(polygon, image.Pt(640, 480), AnchorBottomCenter)

		if err != nil {
			t.Fatalf("error creating zone %d: %v", i, err)
		}

		zones[i] = zone
	}

	engine, err := NewEngine(zones)

	if err != nil {
		t.Fatalf("error creating engine: %v", err)
	}

	return engine
}

// TestNewEngineEmpty tests an empty zone set is a configuration error
func TestNewEngineEmpty(t *testing.T) {

	if _, err := NewEngine(nil); err == nil {
		t.Errorf("expected error for empty zone set, got nil")
	}
}

// TestEngineScenario runs the reference dwell scenario, one object in a
// square zone observed, absent, then observed again
func TestEngineScenario(t *testing.T) {

	const tolerance = 1e-9

	engine := newTestEngine(t, square())
	start := time.Now()

	frames := []struct {
		offset  time.Duration
		objects []TrackedObject
		// expected (id, elapsed) pairs for the single zone
		want []struct {
			id      int64
			elapsed float64
		}
	}{
		{
			offset:  0,
			objects: []TrackedObject{objAt(1, 5, 5)},
			want: []struct {
				id      int64
				elapsed float64
			}{{1, 0.0}},
		},
		{
			offset:  2500 * time.Millisecond,
			objects: []TrackedObject{objAt(1, 5, 5)},
			want: []struct {
				id      int64
				elapsed float64
			}{{1, 2.5}},
		},
		{
			offset:  3 * time.Second,
			objects: nil,
			want:    nil,
		},
		{
			// gap does not reset, elapsed measures since first sight
			offset:  6 * time.Second,
			objects: []TrackedObject{objAt(1, 5, 5)},
			want: []struct {
				id      int64
				elapsed float64
			}{{1, 6.0}},
		},
	}

	for i, frame := range frames {

		results, err := engine.Update(frame.objects, start.Add(frame.offset))

		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}

		if len(results) != 1 {
			t.Fatalf("frame %d: expected 1 zone result, got %d",
				i, len(results))
		}

		got := results[0].Objects

		if len(got) != len(frame.want) {
			t.Fatalf("frame %d: expected %d objects in zone, got %d",
				i, len(frame.want), len(got))
		}

		for j, want := range frame.want {

			if got[j].TrackID != want.id {
				t.Errorf("frame %d: expected ID %d, got %d",
					i, want.id, got[j].TrackID)
			}

			if !almostEqual(got[j].ElapsedSeconds, want.elapsed, tolerance) {
				t.Errorf("frame %d id %d: elapsed = %v, want %v",
					i, want.id, got[j].ElapsedSeconds, want.elapsed)
			}
		}
	}
}

// TestEngineZoneIndependence tests the same ID accumulates time
// independently per zone
func TestEngineZoneIndependence(t *testing.T) {

	const tolerance = 1e-9

	// two disjoint square zones
	zoneB := []image.Point{
		image.Pt(20, 0), image.Pt(30, 0), image.Pt(30, 10), image.Pt(20, 10),
	}

	engine := newTestEngine(t, square(), zoneB)
	start := time.Now()

	// t=0 object in zone A only
	results, err := engine.Update(
		[]TrackedObject{objAt(1, 5, 5)}, start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results[0].Objects) != 1 || len(results[1].Objects) != 0 {
		t.Fatalf("expected object in zone A only, got %d/%d",
			len(results[0].Objects), len(results[1].Objects))
	}

	// t=4 object sits in the overlap of neither, present in zone B
	results, err = engine.Update(
		[]TrackedObject{objAt(1, 25, 5)}, start.Add(4*time.Second))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results[1].Objects) != 1 {
		t.Fatalf("expected object in zone B")
	}

	// zone B timer started now, independent of zone A history
	if !almostEqual(results[1].Objects[0].ElapsedSeconds, 0, tolerance) {
		t.Errorf("zone B elapsed = %v, want 0",
			results[1].Objects[0].ElapsedSeconds)
	}

	// t=6 back in zone A, its timer kept the original start and did not
	// reset while the object dwelled in zone B
	results, err = engine.Update(
		[]TrackedObject{objAt(1, 5, 5)}, start.Add(6*time.Second))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results[0].Objects) != 1 {
		t.Fatalf("expected object in zone A")
	}

	if !almostEqual(results[0].Objects[0].ElapsedSeconds, 6, tolerance) {
		t.Errorf("zone A elapsed = %v, want 6",
			results[0].Objects[0].ElapsedSeconds)
	}
}

// TestEngineEmptyFrame tests an empty object batch yields one empty
// result per zone and no error
func TestEngineEmptyFrame(t *testing.T) {

	engine := newTestEngine(t, square(), square())

	results, err := engine.Update(nil, time.Now())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 zone results, got %d", len(results))
	}

	for i, res := range results {

		if len(res.Objects) != 0 {
			t.Errorf("zone %d: expected empty result, got %d objects",
				i, len(res.Objects))
		}

		if len(res.Mask) != 0 {
			t.Errorf("zone %d: expected empty mask, got %d", i, len(res.Mask))
		}
	}
}

// TestEngineMask tests the membership mask covers all input objects in
// order
func TestEngineMask(t *testing.T) {

	engine := newTestEngine(t, square())

	objects := []TrackedObject{
		objAt(1, 5, 5),
		objAt(2, 50, 50),
		objAt(3, 9, 9),
	}

	results, err := engine.Update(objects, time.Now())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []bool{true, false, true}

	for i := range want {
		if results[0].Mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, results[0].Mask[i], want[i])
		}
	}

	// in zone subset keeps relative input order
	if results[0].Objects[0].TrackID != 1 ||
		results[0].Objects[1].TrackID != 3 {
		t.Errorf("in zone objects out of order: %d, %d",
			results[0].Objects[0].TrackID, results[0].Objects[1].TrackID)
	}
}

// TestEngineContractViolation tests duplicate IDs in one frame surface
// as an error
func TestEngineContractViolation(t *testing.T) {

	engine := newTestEngine(t, square())

	objects := []TrackedObject{objAt(4, 5, 5), objAt(4, 6, 6)}

	if _, err := engine.Update(objects, time.Now()); err == nil {
		t.Errorf("expected error for duplicate IDs, got nil")
	}
}

// TestEngineDoesNotMutateInput tests the engine annotates copies and
// never touches the callers detections
func TestEngineDoesNotMutateInput(t *testing.T) {

	engine := newTestEngine(t, square())

	objects := []TrackedObject{objAt(1, 5, 5)}
	original := objects[0]

	if _, err := engine.Update(objects, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if objects[0] != original {
		t.Errorf("engine mutated input object: %+v", objects[0])
	}
}

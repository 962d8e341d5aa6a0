package tracker

import (
	"testing"
)

// TestKalmanInitiate tests filter state created from a measurement
// reproduces the measured box
func TestKalmanInitiate(t *testing.T) {

	const tolerance = 1e-3

	kf := NewKalmanFilter(1.0/20.0, 1.0/160.0)

	rect := NewRect(100, 200, 50, 100)
	state := kf.Initiate(rect.GetXyah())

	got := GenerateRectByXyah(Xyah{
		state.Mean.AtVec(0),
		state.Mean.AtVec(1),
		state.Mean.AtVec(2),
		state.Mean.AtVec(3),
	})

	if !almostEqual(got.TLX(), rect.TLX(), tolerance) ||
		!almostEqual(got.TLY(), rect.TLY(), tolerance) ||
		!almostEqual(got.Width, rect.Width, tolerance) ||
		!almostEqual(got.Height, rect.Height, tolerance) {
		t.Errorf("initiated state box = %+v, want %+v", got, rect)
	}

	// velocity components start at zero
	for i := 4; i < 8; i++ {
		if state.Mean.AtVec(i) != 0 {
			t.Errorf("velocity component %d = %v, want 0",
				i, state.Mean.AtVec(i))
		}
	}
}

// TestKalmanPredictStationary tests prediction with zero velocity keeps
// the box in place
func TestKalmanPredictStationary(t *testing.T) {

	const tolerance = 1e-6

	kf := NewKalmanFilter(1.0/20.0, 1.0/160.0)

	rect := NewRect(100, 200, 50, 100)
	state := kf.Initiate(rect.GetXyah())

	kf.Predict(state)

	xyah := rect.GetXyah()

	for i := 0; i < 4; i++ {
		if !almostEqual(float32(state.Mean.AtVec(i)), float32(xyah[i]),
			tolerance) {
			t.Errorf("predicted component %d = %v, want %v",
				i, state.Mean.AtVec(i), xyah[i])
		}
	}
}

// TestKalmanUpdateConverges tests repeated predict/update cycles track
// a moving measurement
func TestKalmanUpdateConverges(t *testing.T) {

	kf := NewKalmanFilter(1.0/20.0, 1.0/160.0)

	initRect := NewRect(100, 100, 50, 100)
	state := kf.Initiate(initRect.GetXyah())

	// measurement marches right 5px per frame
	for i := 1; i <= 10; i++ {

		kf.Predict(state)

		meas := NewRect(100+float32(i)*5, 100, 50, 100)

		if err := kf.Update(state, meas.GetXyah()); err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
	}

	// estimate should be close to the final measurement at cx=175
	cx := state.Mean.AtVec(0)

	if !almostEqual(float32(cx), 175, 5) {
		t.Errorf("converged center x = %v, want ~175", cx)
	}

	// velocity estimate should be near the true 5px per frame
	vx := state.Mean.AtVec(4)

	if !almostEqual(float32(vx), 5, 2) {
		t.Errorf("converged x velocity = %v, want ~5", vx)
	}
}

package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// State holds the Kalman filter estimate for one track, an 8 element
// mean (cx, cy, aspect, height and their velocities) and its covariance
type State struct {
	Mean *mat.VecDense
	Cov  *mat.Dense
}

// KalmanFilter is a constant velocity filter over bounding boxes in
// Xyah form.  One filter instance is shared by all tracks, per track
// state lives in State.
type KalmanFilter struct {
	stdWeightPosition float64
	stdWeightVelocity float64
	// motionMat is the 8x8 constant velocity transition matrix
	motionMat *mat.Dense
	// updateMat is the 4x8 projection from state to measurement space
	updateMat *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float64) *KalmanFilter {

	ndim := 4

	// identity with dt=1 velocity coupling
	motionMat := mat.NewDense(8, 8, nil)

	for i := 0; i < 8; i++ {
		motionMat.Set(i, i, 1.0)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, 1.0)
	}

	// project the position block only
	updateMat := mat.NewDense(4, 8, nil)

	for i := 0; i < 4; i++ {
		updateMat.Set(i, i, 1.0)
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// Initiate creates filter state from an unassociated measurement
func (kf *KalmanFilter) Initiate(measurement Xyah) *State {

	mean := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		mean.SetVec(i, measurement[i])
	}

	// uncertainty scales with box height
	h := measurement[3]

	std := []float64{
		2 * kf.stdWeightPosition * h,
		2 * kf.stdWeightPosition * h,
		1e-2,
		2 * kf.stdWeightPosition * h,
		10 * kf.stdWeightVelocity * h,
		10 * kf.stdWeightVelocity * h,
		1e-5,
		10 * kf.stdWeightVelocity * h,
	}

	cov := mat.NewDense(8, 8, nil)

	for i, v := range std {
		cov.Set(i, i, v*v)
	}

	return &State{
		Mean: mean,
		Cov:  cov,
	}
}

// Predict advances the state estimate one frame using the constant
// velocity motion model
func (kf *KalmanFilter) Predict(s *State) {

	h := s.Mean.AtVec(3)

	std := []float64{
		kf.stdWeightPosition * h,
		kf.stdWeightPosition * h,
		1e-2,
		kf.stdWeightPosition * h,
		kf.stdWeightVelocity * h,
		kf.stdWeightVelocity * h,
		1e-5,
		kf.stdWeightVelocity * h,
	}

	motionCov := mat.NewDense(8, 8, nil)

	for i, v := range std {
		motionCov.Set(i, i, v*v)
	}

	// mean = F * mean
	next := mat.NewVecDense(8, nil)
	next.MulVec(kf.motionMat, s.Mean)
	s.Mean = next

	// cov = F * cov * F^T + Q
	tmp := mat.NewDense(8, 8, nil)
	tmp.Mul(kf.motionMat, s.Cov)

	cov := mat.NewDense(8, 8, nil)
	cov.Mul(tmp, kf.motionMat.T())
	cov.Add(cov, motionCov)
	s.Cov = cov
}

// Update corrects the state estimate with an associated measurement
func (kf *KalmanFilter) Update(s *State, measurement Xyah) error {

	projMean, projCov := kf.project(s)

	// factorize the projected covariance for the gain solve
	var chol mat.Cholesky

	if ok := chol.Factorize(projCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// B = cov * H^T, kalman gain K solves S K^T = B^T
	b := mat.NewDense(8, 4, nil)
	b.Mul(s.Cov, kf.updateMat.T())

	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, b.T()); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	// innovation = z - H * mean
	innovation := mat.NewVecDense(4, nil)

	for i := 0; i < 4; i++ {
		innovation.SetVec(i, measurement[i]-projMean.AtVec(i))
	}

	// mean = mean + K * innovation
	corr := mat.NewVecDense(8, nil)
	corr.MulVec(gainT.T(), innovation)

	mean := mat.NewVecDense(8, nil)
	mean.AddVec(s.Mean, corr)
	s.Mean = mean

	// cov = cov - K * S * K^T
	tmp := mat.NewDense(8, 4, nil)
	tmp.Mul(gainT.T(), projCov)

	reduction := mat.NewDense(8, 8, nil)
	reduction.Mul(tmp, &gainT)

	cov := mat.NewDense(8, 8, nil)
	cov.Sub(s.Cov, reduction)
	s.Cov = cov

	return nil
}

// project maps the state estimate into measurement space, returning the
// projected mean and innovation covariance
func (kf *KalmanFilter) project(s *State) (*mat.VecDense, *mat.SymDense) {

	h := s.Mean.AtVec(3)

	std := []float64{
		kf.stdWeightPosition * h,
		kf.stdWeightPosition * h,
		1e-1,
		kf.stdWeightPosition * h,
	}

	projMean := mat.NewVecDense(4, nil)
	projMean.MulVec(kf.updateMat, s.Mean)

	// S = H * cov * H^T + R
	tmp := mat.NewDense(4, 8, nil)
	tmp.Mul(kf.updateMat, s.Cov)

	full := mat.NewDense(4, 4, nil)
	full.Mul(tmp, kf.updateMat.T())

	projCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			// symmetrise, numerical error can skew the product
			projCov.SetSym(i, j, (full.At(i, j)+full.At(j, i))/2)
		}
	}

	for i, v := range std {
		projCov.SetSym(i, i, projCov.At(i, i)+v*v)
	}

	return projMean, projCov
}

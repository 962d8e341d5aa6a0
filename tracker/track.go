package tracker

// TrackState represents the lifecycle state of a track
type TrackState int

const (
	// New is a track created this frame, not yet confirmed
	New TrackState = iota
	// Tracked is a confirmed track matched to a detection this frame
	Tracked
	// Lost is a track that went unmatched, kept alive for re-association
	Lost
	// Removed is a track lost for too long, dropped from the tracker
	Removed
)

// Track is a single tracked object, its Kalman state and lifecycle
// bookkeeping
type Track struct {
	id      int64
	label   int
	score   float32
	state   TrackState
	kfState *State
	// hits counts successful associations, used for confirmation
	hits int
	// frameID is the frame the track was last matched in
	frameID int
	// startFrameID is the frame the track was activated in
	startFrameID int
}

// newTrack creates an unconfirmed track from a detection
func newTrack(kf *KalmanFilter, obj Object, frameID int, id int64) *Track {
	return &Track{
		id:           id,
		label:        obj.Label,
		score:        obj.Prob,
		state:        New,
		kfState:      kf.Initiate(obj.Rect.GetXyah()),
		hits:         1,
		frameID:      frameID,
		startFrameID: frameID,
	}
}

// predict advances the tracks Kalman state one frame
func (t *Track) predict(kf *KalmanFilter) {
	kf.Predict(t.kfState)
}

// update corrects the tracks state with a matched detection
func (t *Track) update(kf *KalmanFilter, obj Object, frameID int) error {

	if err := kf.Update(t.kfState, obj.Rect.GetXyah()); err != nil {
		return err
	}

	t.label = obj.Label
	t.score = obj.Prob
	t.state = Tracked
	t.hits++
	t.frameID = frameID

	return nil
}

// markLost flags the track as unmatched this frame
func (t *Track) markLost() {
	t.state = Lost
}

// markRemoved flags the track for removal
func (t *Track) markRemoved() {
	t.state = Removed
}

// GetTrackID returns the unique ID assigned to this track
func (t *Track) GetTrackID() int64 {
	return t.id
}

// GetLabel returns the class label of the tracked object
func (t *Track) GetLabel() int {
	return t.label
}

// GetScore returns the detection confidence of the last match
func (t *Track) GetScore() float32 {
	return t.score
}

// GetState returns the tracks lifecycle state
func (t *Track) GetState() TrackState {
	return t.state
}

// GetFrameID returns the frame the track was last matched in
func (t *Track) GetFrameID() int {
	return t.frameID
}

// GetStartFrameID returns the frame the track was activated in
func (t *Track) GetStartFrameID() int {
	return t.startFrameID
}

// GetRect returns the tracks current bounding box estimate
func (t *Track) GetRect() Rect {

	xyah := Xyah{
		t.kfState.Mean.AtVec(0),
		t.kfState.Mean.AtVec(1),
		t.kfState.Mean.AtVec(2),
		t.kfState.Mean.AtVec(3),
	}

	return GenerateRectByXyah(xyah)
}

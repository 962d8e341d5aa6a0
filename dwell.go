package zonetrack

import (
	"fmt"
	"time"
)

// DwellTimer tracks the time each track ID has been present in a zone.
// The timer records the timestamp an ID was first seen and reports the
// elapsed time on every subsequent update.  IDs absent from an update
// are left untouched, a track that leaves the zone keeps its start
// timestamp and resumes accumulating from it if the same ID returns.
//
// Timestamps must come from a single monotonic source, passing
// time.Now() readings taken by the frame loop satisfies this as Go
// time.Time values carry a monotonic clock reading.
//
// State is never purged by default so memory use grows with the number
// of distinct IDs ever seen.  Use EvictAfter to opt in to bounded state.
type DwellTimer struct {
	// startTime maps a track ID to the timestamp it was first seen
	startTime map[int64]time.Time
	// lastSeen maps a track ID to the timestamp it last appeared in an
	// update, only consulted when eviction is enabled
	lastSeen map[int64]time.Time
	// evictAfter drops IDs absent longer than this duration, zero
	// disables eviction
	evictAfter time.Duration
}

// NewDwellTimer returns a new empty dwell timer
func NewDwellTimer() *DwellTimer {
	return &DwellTimer{
		startTime: make(map[int64]time.Time),
		lastSeen:  make(map[int64]time.Time),
	}
}

// EvictAfter enables dropping of track IDs that have been absent from
// updates for longer than the given duration.  Eviction is off by
// default since it alters the "time since first seen" semantics, an
// evicted ID that returns starts a fresh dwell period.  A duration of
// zero disables eviction again.
func (t *DwellTimer) EvictAfter(d time.Duration) {
	t.evictAfter = d
}

// Update records the given track IDs as present at timestamp now and
// returns the elapsed dwell time in seconds for each, in input order.
// An ID seen for the first time is inserted with a start time of now and
// reports zero elapsed.
//
// A negative ID or an ID repeated within one call is a contract
// violation by the upstream tracker and returns an error, silently
// overwriting would mask the upstream bug.
func (t *DwellTimer) Update(ids []int64, now time.Time) ([]float64, error) {

	// validate the batch before touching any state
	seen := make(map[int64]struct{}, len(ids))

	for _, id := range ids {

		if id < 0 {
			return nil, fmt.Errorf("negative track ID %d", id)
		}

		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("duplicate track ID %d in update", id)
		}

		seen[id] = struct{}{}
	}

	elapsed := make([]float64, len(ids))

	for i, id := range ids {

		// lazy insert on first sight
		if _, ok := t.startTime[id]; !ok {
			t.startTime[id] = now
		}

		elapsed[i] = now.Sub(t.startTime[id]).Seconds()

		if t.evictAfter > 0 {
			t.lastSeen[id] = now
		}
	}

	if t.evictAfter > 0 {
		t.evict(now)
	}

	return elapsed, nil
}

// Len returns the number of track IDs held in the timers state
func (t *DwellTimer) Len() int {
	return len(t.startTime)
}

// evict drops IDs absent for longer than the eviction horizon
func (t *DwellTimer) evict(now time.Time) {

	for id, last := range t.lastSeen {
		if now.Sub(last) > t.evictAfter {
			delete(t.startTime, id)
			delete(t.lastSeen, id)
		}
	}

	// IDs recorded before eviction was enabled have no lastSeen entry,
	// treat enabling eviction as having just seen them
	for id := range t.startTime {
		if _, ok := t.lastSeen[id]; !ok {
			t.lastSeen[id] = now
		}
	}
}

package zonetrack

import (
	"fmt"
	"time"
)

// ZoneResult holds the per zone output of one engine update
type ZoneResult struct {
	// Zone the result belongs to
	Zone *Zone
	// Mask holds one flag per input object, true when the objects anchor
	// point was inside the zone this frame
	Mask []bool
	// Objects are the input objects inside the zone this frame, in input
	// order, annotated with their dwell time
	Objects []DwellResult
}

// Engine orchestrates dwell time measurement across a fixed set of
// zones.  Each zone owns a private DwellTimer so the same track ID
// accumulates time independently per zone, entering zone B does not
// disturb an objects timer in zone A.
//
// The engine is frame synchronous and not safe for concurrent use,
// Update calls must be serialized and delivered in frame order by the
// driver.
type Engine struct {
	// zones in configuration order, fixed for the engine lifetime.
	// Result ordering and render z-ordering depend on this order
	zones []*Zone
	// timers holds one dwell timer per zone at matching index
	timers []*DwellTimer
}

// NewEngine creates an Engine tracking dwell time for the given zones.
// Zone order is preserved in every Update result.
func NewEngine(zones []*Zone) (*Engine, error) {

	if len(zones) == 0 {
		return nil, fmt.Errorf("engine requires at least one zone")
	}

	timers := make([]*DwellTimer, len(zones))

	for i := range zones {
		timers[i] = NewDwellTimer()
	}

	return &Engine{
		zones:  zones,
		timers: timers,
	}, nil
}

// Zones returns the zones the engine was constructed with, in
// configuration order
func (e *Engine) Zones() []*Zone {
	return e.zones
}

// Timer returns the dwell timer owned by the zone at the given index.
// Exposed for drivers that opt in to timer eviction, mutating timer
// state any other way is outside the engine contract.
func (e *Engine) Timer(idx int) *DwellTimer {
	return e.timers[idx]
}

// Update processes one frames tracked objects and returns one result
// per zone in configuration order.  For each zone the input objects are
// tested for membership, the zones timer is updated with the IDs inside
// and the elapsed dwell times are zipped onto copies of the matching
// objects.
//
// Objects outside a zone leave that zones timer untouched, their dwell
// entry is frozen at its last value until the same ID reenters.  An
// empty object batch is valid and yields one empty result per zone.
func (e *Engine) Update(objects []TrackedObject,
	now time.Time) ([]ZoneResult, error) {

	results := make([]ZoneResult, len(e.zones))

	for i, zone := range e.zones {

		mask := zone.Contains(objects)

		// select in zone subset preserving relative input order
		var inZone []TrackedObject

		for j, inside := range mask {
			if inside {
				inZone = append(inZone, objects[j])
			}
		}

		ids := make([]int64, len(inZone))

		for j, obj := range inZone {
			ids[j] = obj.TrackID
		}

		elapsed, err := e.timers[i].Update(ids, now)

		if err != nil {
			return nil, fmt.Errorf("updating timer for zone %d: %w", i, err)
		}

		// zip dwell times onto copies of the in zone objects
		annotated := make([]DwellResult, len(inZone))

		for j, obj := range inZone {
			annotated[j] = DwellResult{
				TrackedObject:  obj,
				ElapsedSeconds: elapsed[j],
			}
		}

		results[i] = ZoneResult{
			Zone:    zone,
			Mask:    mask,
			Objects: annotated,
		}
	}

	return results, nil
}

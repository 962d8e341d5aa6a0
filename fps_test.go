package zonetrack

import (
	"testing"
	"time"
)

// TestFPSMonitorEmpty tests an unticked monitor reports zero
func TestFPSMonitorEmpty(t *testing.T) {

	mon := NewFPSMonitor(time.Second)

	if fps := mon.FPS(); fps != 0 {
		t.Errorf("FPS with no ticks = %v, want 0", fps)
	}
}

// TestFPSMonitorTicks tests the rate over a spaced series of ticks
func TestFPSMonitorTicks(t *testing.T) {

	mon := NewFPSMonitor(time.Second)

	for i := 0; i < 5; i++ {
		mon.Tick()
		time.Sleep(10 * time.Millisecond)
	}

	fps := mon.FPS()

	// 5 ticks roughly 10ms apart is on the order of 100 FPS, the
	// scheduler makes exact timing unreliable so just bound it
	if fps < 10 || fps > 1000 {
		t.Errorf("FPS = %v, want within (10, 1000)", fps)
	}
}

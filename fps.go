package zonetrack

import (
	"time"
)

// FPSMonitor measures the processed frame rate over a sliding time
// window.  Call Tick once per frame and FPS to read the current rate,
// it is used by drivers for the statistics overlay.
type FPSMonitor struct {
	// window is the period ticks are averaged over
	window time.Duration
	// ticks holds the timestamps of frames processed within the window
	ticks []time.Time
}

// NewFPSMonitor returns an FPS monitor averaging over the given window.
// A zero window defaults to one second.
func NewFPSMonitor(window time.Duration) *FPSMonitor {

	if window <= 0 {
		window = time.Second
	}

	return &FPSMonitor{
		window: window,
	}
}

// Tick records that a frame was processed now
func (f *FPSMonitor) Tick() {
	f.ticks = append(f.ticks, time.Now())
	f.trim(time.Now())
}

// FPS returns the number of frames processed per second over the window
func (f *FPSMonitor) FPS() float64 {

	f.trim(time.Now())

	if len(f.ticks) < 2 {
		return 0
	}

	span := f.ticks[len(f.ticks)-1].Sub(f.ticks[0]).Seconds()

	if span == 0 {
		return 0
	}

	return float64(len(f.ticks)-1) / span
}

// trim drops ticks that have fallen outside the window
func (f *FPSMonitor) trim(now time.Time) {

	cut := 0

	for cut < len(f.ticks) && now.Sub(f.ticks[cut]) > f.window {
		cut++
	}

	f.ticks = f.ticks[cut:]
}

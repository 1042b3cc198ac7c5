// Package timing measures monotonic elapsed time for experiment reports.
package timing

import "time"

// Timer starts on construction and reports elapsed time from the monotonic
// clock reading taken by time.Now.
type Timer struct {
	start time.Time
}

// Start returns a running timer.
func Start() Timer { return Timer{start: time.Now()} }

// Duration is the time elapsed since Start.
func (t Timer) Duration() time.Duration { return time.Since(t.start) }

// Elapsed is the time elapsed since Start in seconds.
func (t Timer) Elapsed() float64 { return t.Duration().Seconds() }

// Package timetrack measures the duration and throughput of completed
// operations.
package timetrack

import (
	"time"

	"github.com/blockform/blockform/internal/clock"
)

// Estimator measures time elapsed since its creation.
type Estimator struct {
	startTime time.Time
}

// Start begins measuring time.
func Start() Estimator {
	return Estimator{clock.Now()}
}

// Completed reports the time elapsed since Start and the per-second rate at
// which numItems were processed in that time.
func (e Estimator) Completed(numItems float64) (time.Duration, float64) {
	dur := clock.Since(e.startTime)
	if dur <= 0 {
		return dur, 0
	}

	return dur, numItems / dur.Seconds()
}

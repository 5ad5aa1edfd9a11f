package timetrack_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockform/blockform/internal/clock"
	"github.com/blockform/blockform/internal/faketime"
	"github.com/blockform/blockform/internal/timetrack"
)

func TestEstimator(t *testing.T) {
	ta := faketime.NewTimeAdvance(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	old := clock.Now
	clock.Now = ta.NowFunc()

	defer func() { clock.Now = old }()

	est := timetrack.Start()
	ta.Advance(2 * time.Second)

	dur, rate := est.Completed(1000)
	require.Equal(t, 2*time.Second, dur)
	require.InDelta(t, 500.0, rate, 1e-9)
}

func TestEstimatorZeroDuration(t *testing.T) {
	old := clock.Now
	clock.Now = faketime.Frozen(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	defer func() { clock.Now = old }()

	est := timetrack.Start()

	dur, rate := est.Completed(1000)
	require.Zero(t, dur)
	require.Zero(t, rate)
}

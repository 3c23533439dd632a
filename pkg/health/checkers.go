package health

import (
	"context"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when the number of goroutines exceeds the
// threshold, which usually indicates a leak.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("too many goroutines: %d > %d", count, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck fails when the longest recent GC pause exceeds the
// threshold.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	const name = "/gc/pauses:seconds"

	return func(_ context.Context) error {
		samples := []metrics.Sample{{Name: name}}
		metrics.Read(samples)

		h := samples[0].Value.Float64Histogram()
		if h == nil {
			return nil
		}
		for i := len(h.Counts) - 1; i >= 0; i-- {
			if h.Counts[i] == 0 {
				continue
			}
			pause := time.Duration(h.Buckets[i] * float64(time.Second))
			if pause > threshold {
				return errors.Errorf("max GC pause %s exceeds %s", pause, threshold)
			}
			return nil
		}
		return nil
	}
}

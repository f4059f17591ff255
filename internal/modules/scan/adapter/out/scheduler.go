package out

import (
	"context"
	"time"

	"vscan/internal/platform/clock"
)

const DefaultFrameRate = 60

// TickerScheduler ticks at a fixed display rate. Ticks the loop is too busy
// to take are dropped, never queued.
type TickerScheduler struct {
	interval time.Duration
}

func NewTickerScheduler(hz float64) *TickerScheduler {
	if hz <= 0 {
		hz = DefaultFrameRate
	}
	return &TickerScheduler{interval: time.Duration(float64(time.Second) / hz)}
}

func (s *TickerScheduler) Schedule(ctx context.Context) <-chan time.Duration {
	ticks := make(chan time.Duration)
	go func() {
		defer close(ticks)
		origin := clock.NewMonotonic()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ticks <- origin.Since():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ticks
}

package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepCounter receives the number of PINs cleared by each sweep.
type SweepCounter interface {
	Add(float64)
}

// ResetSweeper clears recovery state older than cutoff: issued PINs and
// grants left by verified PINs.
type ResetSweeper interface {
	SweepStaleResets(ctx context.Context, cutoff time.Time) (pins, grants int64, err error)
}

// StartStalePinSweeper periodically clears reset PINs issued, and reset grants
// recorded, more than retention ago. It does nothing when interval or
// retention is not positive. The goroutine exits when ctx is cancelled.
func StartStalePinSweeper(
	ctx context.Context,
	store ResetSweeper,
	interval time.Duration,
	retention time.Duration,
	counter SweepCounter,
	log *zap.Logger,
) {
	if interval <= 0 || retention <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				pins, grants, err := store.SweepStaleResets(ctx, cutoff)
				if err != nil {
					log.Error("failed to sweep stale reset pins", zap.Error(err))
					continue
				}
				if pins > 0 || grants > 0 {
					log.Info("swept stale reset state",
						zap.Int64("pins", pins),
						zap.Int64("grants", grants),
					)
				}
				if pins > 0 && counter != nil {
					counter.Add(float64(pins))
				}
			}
		}
	}()
}

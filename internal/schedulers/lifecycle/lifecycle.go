// Package lifecycle drives the time-gated auction transitions:
// SCHEDULED -> PREVIEW -> ACTIVE, and ACTIVE -> ENDED with finalization.
package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vehicleauctiongo/internal/auction"
)

// Run starts the periodic lifecycle tick. A failed tick is logged and
// retried on the next pass; the transition predicates are idempotent, so
// overlapping or repeated ticks are harmless.
func Run(ctx context.Context, engine auction.IAuctionEngine, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				if err := engine.AdvanceLifecycle(ctx); err != nil {
					zap.L().Error("lifecycle.tick", zap.Error(err))
				}
			}
		}
	}()
}

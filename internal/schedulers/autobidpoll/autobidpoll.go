// Package autobidpoll polls auctions that carry active auto-bids and
// asks the auto-bid engine to run one evaluation round for each.
package autobidpoll

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vehicleauctiongo/internal/auction"
	"vehicleauctiongo/internal/autobid"
)

// Run starts the periodic auto-bid tick. Failures are scoped to one
// auction: a broken auction is logged and the rest of the tick's batch
// still runs.
func Run(ctx context.Context, engine autobid.IAutoBidEngine, auctions auction.IAuctionEngine, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				tick(ctx, engine, auctions)
			}
		}
	}()
}

func tick(ctx context.Context, engine autobid.IAutoBidEngine, auctions auction.IAuctionEngine) {
	ids, err := engine.ActiveAuctionIDs(ctx)
	if err != nil {
		zap.L().Error("autobidpoll.list", zap.Error(err))
		return
	}
	for _, id := range ids {
		a, err := auctions.GetAuction(ctx, id)
		if err != nil {
			zap.L().Warn("autobidpoll.get_auction", zap.String("auction_id", id), zap.Error(err))
			continue
		}
		if a.Status != auction.StatusActive {
			continue
		}
		// CurrentPrice starts at the starting price, so it covers the
		// no-bids-yet case too.
		if err := engine.EvaluateTrigger(ctx, id, a.CurrentPrice); err != nil {
			zap.L().Warn("autobidpoll.evaluate", zap.String("auction_id", id), zap.Error(err))
		}
	}
}

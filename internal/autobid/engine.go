package autobid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vehicleauctiongo/internal/auction"
	"vehicleauctiongo/internal/clock"
)

var ErrDuplicateAutoBid = &auction.Failure{
	Kind: auction.KindConflict,
	Msg:  "user already has an active auto-bid on this auction",
}

// Store persists auto-bids. ListActiveByAuction returns active rows in
// creation order, oldest first.
type Store interface {
	InsertAutoBid(ctx context.Context, ab *AutoBid) error
	GetActive(ctx context.Context, auctionID, userID string) (*AutoBid, error)
	ListActiveByAuction(ctx context.Context, auctionID string) ([]AutoBid, error)
	ListAuctionIDsWithActive(ctx context.Context) ([]string, error)
	UpdateAutoBid(ctx context.Context, ab *AutoBid) error
}

// BidPlacer is the slice of the lifecycle engine the auto-bid engine
// drives; automated bids go through exactly the same placement path as
// human ones.
type BidPlacer interface {
	PlaceBid(ctx context.Context, req auction.PlaceBidRequest) (*auction.Bid, error)
	GetAuction(ctx context.Context, id string) (*auction.Auction, error)
	HighestBid(ctx context.Context, auctionID string) (*auction.Bid, error)
}

type IAutoBidEngine interface {
	CreateAutoBid(ctx context.Context, req CreateAutoBidRequest) (*AutoBid, error)
	CancelAutoBid(ctx context.Context, auctionID, userID string) error
	EvaluateTrigger(ctx context.Context, auctionID string, referencePrice float64) error
	ActiveAuctionIDs(ctx context.Context) ([]string, error)
}

type engine struct {
	store  Store
	placer BidPlacer
	clk    clock.Clock
	policy auction.IncrementPolicy
}

var _ IAutoBidEngine = (*engine)(nil)

func NewEngine(store Store, placer BidPlacer, clk clock.Clock, policy auction.IncrementPolicy) IAutoBidEngine {
	return &engine{store: store, placer: placer, clk: clk, policy: policy}
}

func (e *engine) CreateAutoBid(ctx context.Context, req CreateAutoBidRequest) (*AutoBid, error) {
	if !req.StrategyType.Valid() {
		return nil, auction.ValidationFailure(fmt.Sprintf("unknown strategy %q", req.StrategyType))
	}

	a, err := e.placer.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != auction.StatusActive {
		return nil, auction.ErrAuctionNotActive
	}
	if req.MaxBidAmount <= a.CurrentPrice {
		return nil, auction.ValidationFailure(
			fmt.Sprintf("maximum bid %.2f must exceed the current price %.2f", req.MaxBidAmount, a.CurrentPrice))
	}

	exists, err := e.store.GetActive(ctx, req.AuctionID, req.UserID)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, ErrDuplicateAutoBid
	}

	now := e.clk.Now()
	ab := &AutoBid{
		ID:           uuid.NewString(),
		AuctionID:    req.AuctionID,
		UserID:       req.UserID,
		MaxBidAmount: req.MaxBidAmount,
		Active:       true,
		Strategy:     defaultStrategy(req.StrategyType),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.InsertAutoBid(ctx, ab); err != nil {
		return nil, err
	}
	return ab, nil
}

// CancelAutoBid deactivates the user's auto-bid. Cancelling twice is a
// no-op.
func (e *engine) CancelAutoBid(ctx context.Context, auctionID, userID string) error {
	ab, err := e.store.GetActive(ctx, auctionID, userID)
	if err != nil || ab == nil {
		return err
	}
	ab.Active = false
	ab.UpdatedAt = e.clk.Now()
	return e.store.UpdateAutoBid(ctx, ab)
}

func (e *engine) ActiveAuctionIDs(ctx context.Context) ([]string, error) {
	return e.store.ListAuctionIDsWithActive(ctx)
}

// EvaluateTrigger runs one auto-bid round for the auction. The earliest
// registered eligible auto-bid places at most one bid; every auto-bid
// whose ceiling no longer clears the price is deactivated.
func (e *engine) EvaluateTrigger(ctx context.Context, auctionID string, referencePrice float64) error {
	all, err := e.store.ListActiveByAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}

	high, err := e.placer.HighestBid(ctx, auctionID)
	if err != nil {
		return err
	}
	highBidder := ""
	if high != nil {
		highBidder = high.BidderID
	}

	now := e.clk.Now()
	var placedPrice float64
	for i := range all {
		ab := &all[i]
		if ab.MaxBidAmount <= referencePrice {
			continue
		}
		if ab.UserID == highBidder {
			// Already holding the high bid; raising it would only bid
			// against themselves.
			continue
		}
		if !e.eligibleNow(ab, now) {
			continue
		}

		amount := e.nextAmount(ab, referencePrice)
		_, err := e.placer.PlaceBid(ctx, auction.PlaceBidRequest{
			AuctionID:       auctionID,
			BidderID:        ab.UserID,
			Amount:          amount,
			IsAuto:          true,
			PreferredTiming: ab.Strategy.PreferredTiming,
		})
		if err != nil {
			// Beaten by a concurrent bid or the auction just closed;
			// the auto-bid stays armed for the next tick unless its
			// ceiling is gone.
			ab.FailedBids++
			ab.UpdatedAt = now
			if uerr := e.store.UpdateAutoBid(ctx, ab); uerr != nil {
				zap.L().Warn("autobid.update_failed_attempt", zap.Error(uerr))
			}
			if !auction.IsExpected(err) {
				return err
			}
			zap.L().Info("autobid.attempt_rejected",
				zap.String("auction_id", auctionID),
				zap.String("user_id", ab.UserID),
				zap.Error(err),
			)
		} else {
			ab.LastBidAmount = &amount
			ab.LastBidAt = &now
			ab.SuccessfulBids++
			ab.UpdatedAt = now
			if uerr := e.store.UpdateAutoBid(ctx, ab); uerr != nil {
				zap.L().Warn("autobid.update_success", zap.Error(uerr))
			}
			placedPrice = amount
		}
		break
	}

	// Deactivate every auto-bid whose ceiling is at or below the price
	// after this round; an exhausted ceiling must never produce another
	// bid attempt.
	price := referencePrice
	if placedPrice > price {
		price = placedPrice
	}
	if fresh, err := e.placer.GetAuction(ctx, auctionID); err == nil && fresh.CurrentPrice > price {
		price = fresh.CurrentPrice
	}
	for i := range all {
		ab := &all[i]
		if ab.Active && ab.MaxBidAmount <= price {
			ab.Active = false
			ab.UpdatedAt = now
			if err := e.store.UpdateAutoBid(ctx, ab); err != nil {
				zap.L().Warn("autobid.deactivate", zap.Error(err))
			}
		}
	}
	return nil
}

// eligibleNow applies the strategy's delay, rate and spread constraints.
func (e *engine) eligibleNow(ab *AutoBid, now time.Time) bool {
	st := ab.Strategy
	if st.MaxSpreadBids > 0 && ab.SuccessfulBids >= st.MaxSpreadBids {
		return false
	}

	last := ab.CreatedAt
	if ab.LastBidAt != nil {
		last = *ab.LastBidAt
	}
	if st.DelaySeconds > 0 && now.Sub(last) < time.Duration(st.DelaySeconds)*time.Second {
		return false
	}
	if st.MaxBidsPerMinute > 0 && ab.LastBidAt != nil {
		minGap := time.Minute / time.Duration(st.MaxBidsPerMinute)
		if now.Sub(*ab.LastBidAt) < minGap {
			return false
		}
	}
	return true
}

// nextAmount derives the next bid: one increment over the reference,
// capped at the ceiling. The ceiling is never exceeded.
func (e *engine) nextAmount(ab *AutoBid, referencePrice float64) float64 {
	step := 1.0
	if e.policy != nil {
		if s := e.policy.MinIncrement(referencePrice); s > 0 {
			step = s
		}
	}
	amount := referencePrice + step
	if amount > ab.MaxBidAmount {
		amount = ab.MaxBidAmount
	}
	return amount
}

// IsDuplicate reports whether err is the duplicate-auto-bid conflict.
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicateAutoBid) }

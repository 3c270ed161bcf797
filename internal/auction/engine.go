package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vehicleauctiongo/internal/clock"
)

// AntiSnipeDefaults are applied to auctions created without explicit
// overrides.
type AntiSnipeDefaults struct {
	TriggerMinutes   int
	ExtensionMinutes int
	MaxExtensions    int
}

type IAuctionEngine interface {
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*Auction, error)
	UpdateStatus(ctx context.Context, auctionID string, newStatus Status) (*Auction, error)
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*Bid, error)
	ProcessAuctionResult(ctx context.Context, auctionID string) (*Result, error)
	AdvanceLifecycle(ctx context.Context) error

	GetAuction(ctx context.Context, id string) (*Auction, error)
	ListAuctions(ctx context.Context, status Status, limit, offset int) ([]Auction, error)
	BidHistory(ctx context.Context, auctionID string) ([]Bid, error)
	HighestBid(ctx context.Context, auctionID string) (*Bid, error)
}

type engine struct {
	store    Store
	vehicles VehicleGateway
	users    UserGateway
	notifier Notifier
	clk      clock.Clock
	policy   IncrementPolicy
	snipe    AntiSnipeDefaults
}

var _ IAuctionEngine = (*engine)(nil)

func NewEngine(store Store, vehicles VehicleGateway, users UserGateway,
	notifier Notifier, clk clock.Clock, policy IncrementPolicy, snipe AntiSnipeDefaults) IAuctionEngine {
	return &engine{
		store:    store,
		vehicles: vehicles,
		users:    users,
		notifier: notifier,
		clk:      clk,
		policy:   policy,
		snipe:    snipe,
	}
}

// guard converts an escaped internal error into the generic failure;
// typed domain failures pass through untouched.
func (e *engine) guard(op string, err error) error {
	if err == nil || IsExpected(err) {
		return err
	}
	zap.L().Error(op, zap.Error(err))
	return ErrUnexpected
}

func (e *engine) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*Auction, error) {
	v, err := e.vehicles.GetVehicleByID(ctx, req.VehicleID)
	if err != nil {
		return nil, e.guard("create_auction.vehicle_lookup", err)
	}
	if v == nil {
		return nil, ErrVehicleNotFound
	}

	now := e.clk.Now()
	a := &Auction{
		ID:               uuid.NewString(),
		VehicleID:        req.VehicleID,
		ScheduledStart:   req.ScheduledStart,
		PreviewStart:     req.PreviewStart,
		EndUTC:           req.EndUTC,
		StartingPrice:    req.StartingPrice,
		CurrentPrice:     req.StartingPrice,
		TriggerMinutes:   e.snipe.TriggerMinutes,
		ExtensionMinutes: e.snipe.ExtensionMinutes,
		MaxExtensions:    e.snipe.MaxExtensions,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.TriggerMinutes != nil {
		a.TriggerMinutes = *req.TriggerMinutes
	}
	if req.ExtensionMinutes != nil {
		a.ExtensionMinutes = *req.ExtensionMinutes
	}
	if req.MaxExtensions != nil {
		a.MaxExtensions = *req.MaxExtensions
	}

	// Reserve defaults to the starting price; a reserve at or below the
	// starting price is met before the first bid.
	a.ReservePrice = req.StartingPrice
	if req.ReservePrice != nil {
		a.ReservePrice = *req.ReservePrice
	}
	if a.ReservePrice <= a.StartingPrice {
		a.ReserveMet = true
		a.ReserveMetAt = &now
	}

	switch {
	case !req.ScheduledStart.After(now):
		a.Status = StatusActive
		a.StartUTC = &now
	case req.PreviewStart != nil && !req.PreviewStart.After(now):
		a.Status = StatusPreview
	default:
		a.Status = StatusScheduled
	}

	err = e.store.Run(ctx, func(s Session) error {
		taken, err := s.HasAuctionForVehicle(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if taken {
			return ErrVehicleHasAuction
		}
		return s.InsertAuction(ctx, a)
	})
	if err != nil {
		return nil, e.guard("create_auction", err)
	}
	return a, nil
}

func (e *engine) UpdateStatus(ctx context.Context, auctionID string, newStatus Status) (*Auction, error) {
	if !newStatus.Valid() {
		return nil, ValidationFailure(fmt.Sprintf("unknown status %q", newStatus))
	}
	var out *Auction
	err := e.store.Run(ctx, func(s Session) error {
		out = nil
		a, err := s.GetAuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}
		if newStatus.rank() < a.Status.rank() {
			return ErrBackwardStatus
		}
		if newStatus != a.Status {
			now := e.clk.Now()
			a.Status = newStatus
			if newStatus == StatusActive && a.StartUTC == nil {
				a.StartUTC = &now
			}
			a.UpdatedAt = now
			if err := s.UpdateAuction(ctx, a); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, e.guard("update_status", err)
	}
	return out, nil
}

// bidOutcome carries the facts PlaceBid needs for post-commit
// notifications out of the transaction.
type bidOutcome struct {
	bid            *Bid
	reserveJustMet bool
	reserveWasMet  bool
	extended       bool
	newEnd         time.Time
	prevHighBidder string
	biddersBefore  int
	biddersAfter   int
}

func (e *engine) PlaceBid(ctx context.Context, req PlaceBidRequest) (*Bid, error) {
	u, err := e.users.GetUserByID(ctx, req.BidderID)
	if err != nil {
		return nil, e.guard("place_bid.user_lookup", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	var out bidOutcome
	err = e.store.Run(ctx, func(s Session) error {
		out = bidOutcome{} // a retried attempt starts from scratch

		a, err := s.GetAuctionForUpdate(ctx, req.AuctionID)
		if err != nil {
			return err
		}
		now := e.clk.Now()
		if a.Status != StatusActive || !now.Before(a.EndUTC) {
			return ErrAuctionNotActive
		}

		count, err := s.BidCount(ctx, req.AuctionID)
		if err != nil {
			return err
		}
		if reasons := ValidateBid(req.Amount, a.StartingPrice, a.CurrentPrice, count, e.policy); len(reasons) > 0 {
			return ValidationFailure(reasons...)
		}

		prev, err := s.HighestBid(ctx, req.AuctionID)
		if err != nil {
			return err
		}
		if prev != nil {
			out.prevHighBidder = prev.BidderID
		}
		if out.biddersBefore, err = s.UniqueBidders(ctx, req.AuctionID); err != nil {
			return err
		}

		bid := &Bid{
			ID:              uuid.NewString(),
			AuctionID:       a.ID,
			BidderID:        req.BidderID,
			Amount:          req.Amount,
			IsAuto:          req.IsAuto,
			PreferredTiming: req.PreferredTiming,
			CreatedAt:       now,
		}
		if err := s.InsertBid(ctx, bid); err != nil {
			return err
		}
		out.bid = bid

		// The validator guarantees amount > current price, so the
		// current price never decreases.
		a.CurrentPrice = req.Amount

		if a.ReserveMet {
			out.reserveWasMet = true
		} else if req.Amount >= a.ReservePrice {
			a.ReserveMet = true
			a.ReserveMetAt = &now
			out.reserveJustMet = true
		}

		if a.EndUTC.Sub(now) <= time.Duration(a.TriggerMinutes)*time.Minute &&
			a.ExtensionCount < a.MaxExtensions {
			a.EndUTC = a.EndUTC.Add(time.Duration(a.ExtensionMinutes) * time.Minute)
			a.ExtensionCount++
			out.extended = true
			out.newEnd = a.EndUTC
		}

		a.UpdatedAt = now
		if err := s.UpdateAuction(ctx, a); err != nil {
			return err
		}

		out.biddersAfter, err = s.UniqueBidders(ctx, req.AuctionID)
		return err
	})
	if err != nil {
		return nil, e.guard("place_bid", err)
	}

	e.emitBidNotifications(ctx, req.AuctionID, out)
	return out.bid, nil
}

// emitBidNotifications runs after the bid committed; the dispatcher
// swallows delivery failures, so nothing here can undo the bid.
func (e *engine) emitBidNotifications(ctx context.Context, auctionID string, out bidOutcome) {
	amount := fmt.Sprintf("%.2f", out.bid.Amount)

	if out.reserveJustMet {
		e.notifier.Notify(ctx, "", NotifReserveMet,
			"Reserve met", "The reserve price has been reached", auctionID)
	} else if out.reserveWasMet {
		e.notifier.Notify(ctx, "", NotifReserveAlreadyMet,
			"Reserve already met", "Bidding continues above the reserve price", auctionID)
	}

	if out.biddersAfter != out.biddersBefore {
		e.notifier.Notify(ctx, "", NotifBidderCount,
			"Bidder count changed",
			fmt.Sprintf("%d bidders are now competing", out.biddersAfter), auctionID)
	}

	e.notifier.Notify(ctx, "", NotifNewBid,
		"New bid", "A bid of "+amount+" was placed", auctionID)

	if out.prevHighBidder != "" && out.prevHighBidder != out.bid.BidderID {
		e.notifier.Notify(ctx, out.prevHighBidder, NotifOutbid,
			"You have been outbid", "A higher bid of "+amount+" was placed", auctionID)
	}

	if out.extended {
		e.notifier.Notify(ctx, "", NotifAuctionExtended,
			"Auction extended",
			"Closing time moved to "+out.newEnd.Format(time.RFC3339), auctionID)
	}
}

func (e *engine) ProcessAuctionResult(ctx context.Context, auctionID string) (*Result, error) {
	var res *Result
	var notifyWinner *Winner
	err := e.store.Run(ctx, func(s Session) error {
		res, notifyWinner = nil, nil

		a, err := s.GetAuctionForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}
		if a.Status != StatusEnded {
			return ErrAuctionNotEnded
		}

		high, err := s.HighestBid(ctx, auctionID)
		if err != nil {
			return err
		}
		if high == nil {
			res = &Result{AuctionID: auctionID, Sold: false}
			return nil
		}

		res = &Result{AuctionID: auctionID, Sold: a.ReserveMet, HighBid: high}
		if !a.ReserveMet {
			return nil
		}

		exists, err := s.HasWinner(ctx, auctionID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		u, err := e.users.GetUserByID(ctx, high.BidderID)
		if err != nil {
			return err
		}
		name := high.BidderID
		if u != nil {
			name = u.DisplayName
		}
		w := &Winner{
			ID:        uuid.NewString(),
			AuctionID: auctionID,
			VehicleID: a.VehicleID,
			UserID:    high.BidderID,
			UserName:  name,
			Amount:    high.Amount,
			WonAt:     e.clk.Now(),
		}
		if err := s.InsertWinner(ctx, w); err != nil {
			return err
		}
		res.Winner = w
		notifyWinner = w
		return nil
	})
	if err != nil {
		return nil, e.guard("process_result", err)
	}

	if notifyWinner != nil {
		already, err := e.notifier.HasNotification(ctx, notifyWinner.UserID, NotifWon, auctionID)
		if err != nil {
			zap.L().Warn("process_result.won_guard", zap.Error(err))
		} else if !already {
			e.notifier.Notify(ctx, notifyWinner.UserID, NotifWon,
				"You won the auction",
				fmt.Sprintf("Winning amount %.2f", notifyWinner.Amount), auctionID)
		}
	}
	return res, nil
}

// AdvanceLifecycle applies the time-gated transitions to every
// non-terminal auction and finalizes the ones whose end time has passed.
// Every predicate is idempotent, so overlapping or failed ticks are
// healed by the next pass.
func (e *engine) AdvanceLifecycle(ctx context.Context) error {
	var started, ended []string
	err := e.store.Run(ctx, func(s Session) error {
		started, ended = started[:0], ended[:0]

		open, err := s.ListByStatus(ctx, StatusScheduled, StatusPreview, StatusActive)
		if err != nil {
			return err
		}
		now := e.clk.Now()
		for i := range open {
			a := &open[i]
			changed := false
			switch a.Status {
			case StatusScheduled:
				if a.PreviewStart != nil && !a.PreviewStart.After(now) && a.ScheduledStart.After(now) {
					a.Status = StatusPreview
					changed = true
				} else if !a.ScheduledStart.After(now) {
					a.Status = StatusActive
					start := now
					a.StartUTC = &start
					changed = true
				}
			case StatusPreview:
				if !a.ScheduledStart.After(now) {
					a.Status = StatusActive
					start := now
					a.StartUTC = &start
					changed = true
				}
			case StatusActive:
				if !now.Before(a.EndUTC) {
					a.Status = StatusEnded
					ended = append(ended, a.ID)
					changed = true
				}
			}
			if changed {
				a.UpdatedAt = now
				if err := s.UpdateAuction(ctx, a); err != nil {
					return err
				}
				if a.Status == StatusActive {
					e.logTransition(a.ID, StatusActive)
					started = append(started, a.ID)
				}
			}
		}
		return nil
	})
	if err != nil {
		return e.guard("advance_lifecycle", err)
	}

	for _, id := range started {
		e.notifier.Notify(ctx, "", NotifAuctionStarted, "Auction started", "Bidding is open", id)
	}

	// Finalization runs per auction so one broken result cannot block
	// the rest; a failure is retried on the next tick.
	for _, id := range ended {
		e.notifier.Notify(ctx, "", NotifAuctionClosed, "Auction closed", "Bidding has ended", id)
		if _, err := e.ProcessAuctionResult(ctx, id); err != nil {
			zap.L().Warn("advance_lifecycle.finalize",
				zap.String("auction_id", id), zap.Error(err))
		}
	}
	return nil
}

func (e *engine) logTransition(auctionID string, to Status) {
	zap.L().Info("auction_transition",
		zap.String("auction_id", auctionID),
		zap.String("to", string(to)),
	)
}

func (e *engine) GetAuction(ctx context.Context, id string) (*Auction, error) {
	a, err := e.store.GetAuction(ctx, id)
	return a, e.guard("get_auction", err)
}

func (e *engine) ListAuctions(ctx context.Context, status Status, limit, offset int) ([]Auction, error) {
	list, err := e.store.ListAuctions(ctx, status, limit, offset)
	return list, e.guard("list_auctions", err)
}

func (e *engine) BidHistory(ctx context.Context, auctionID string) ([]Bid, error) {
	if _, err := e.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	bids, err := e.store.ListBids(ctx, auctionID)
	return bids, e.guard("bid_history", err)
}

func (e *engine) HighestBid(ctx context.Context, auctionID string) (*Bid, error) {
	b, err := e.store.HighestBid(ctx, auctionID)
	return b, e.guard("highest_bid", err)
}

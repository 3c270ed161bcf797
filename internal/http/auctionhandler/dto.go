package auctionhandler

import (
	"time"

	"vehicleauctiongo/internal/auction"
	"vehicleauctiongo/internal/autobid"
)

// AuctionDTO deliberately omits the reserve amount; bidders only learn
// whether the reserve has been met.
type AuctionDTO struct {
	ID             string     `json:"id"`
	VehicleID      string     `json:"vehicle_id"`
	Status         string     `json:"status"          example:"ACTIVE"`
	ScheduledStart time.Time  `json:"scheduled_start" example:"2025-07-27T16:05:05Z"`
	PreviewStart   *time.Time `json:"preview_start,omitempty"`
	StartUTC       *time.Time `json:"start_utc,omitempty"`
	EndUTC         time.Time  `json:"end_utc"`
	StartingPrice  float64    `json:"starting_price"`
	CurrentPrice   float64    `json:"current_price"`
	ReserveMet     bool       `json:"reserve_met"`
	ExtensionCount int        `json:"extension_count"`
	MaxExtensions  int        `json:"max_extensions"`
} // @name Auction

// AuctionDetailDTO adds the per-auction aggregates the detail endpoint
// serves on top of the listing shape.
type AuctionDetailDTO struct {
	AuctionDTO
	BidCount         int   `json:"bid_count"`
	UniqueBidders    int   `json:"unique_bidders"`
	SecondsRemaining int64 `json:"seconds_remaining"`
} // @name AuctionDetail

type BidDTO struct {
	ID              string    `json:"id"`
	AuctionID       string    `json:"auction_id"`
	BidderID        string    `json:"bidder_id"`
	Amount          float64   `json:"amount"`
	IsAuto          bool      `json:"is_auto"`
	PreferredTiming string    `json:"preferred_timing,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
} // @name Bid

type AutoBidDTO struct {
	ID           string   `json:"id"`
	AuctionID    string   `json:"auction_id"`
	UserID       string   `json:"user_id"`
	MaxBidAmount float64  `json:"max_bid_amount"`
	Active       bool     `json:"active"`
	Strategy     string   `json:"strategy"`
	LastBid      *float64 `json:"last_bid,omitempty"`
} // @name AutoBid

type ResultDTO struct {
	AuctionID     string   `json:"auction_id"`
	Sold          bool     `json:"sold"`
	WinnerUserID  string   `json:"winner_user_id,omitempty"`
	WinningAmount *float64 `json:"winning_amount,omitempty"`
} // @name AuctionResult

func toAuctionDTO(a *auction.Auction) AuctionDTO {
	return AuctionDTO{
		ID:             a.ID,
		VehicleID:      a.VehicleID,
		Status:         string(a.Status),
		ScheduledStart: a.ScheduledStart,
		PreviewStart:   a.PreviewStart,
		StartUTC:       a.StartUTC,
		EndUTC:         a.EndUTC,
		StartingPrice:  a.StartingPrice,
		CurrentPrice:   a.CurrentPrice,
		ReserveMet:     a.ReserveMet,
		ExtensionCount: a.ExtensionCount,
		MaxExtensions:  a.MaxExtensions,
	}
}

func toAuctionDetailDTO(a *auction.Auction, bids []auction.Bid, now time.Time) AuctionDetailDTO {
	unique := map[string]struct{}{}
	for i := range bids {
		unique[bids[i].BidderID] = struct{}{}
	}
	var remaining int64
	if a.Status != auction.StatusEnded && a.EndUTC.After(now) {
		remaining = int64(a.EndUTC.Sub(now).Seconds())
	}
	return AuctionDetailDTO{
		AuctionDTO:       toAuctionDTO(a),
		BidCount:         len(bids),
		UniqueBidders:    len(unique),
		SecondsRemaining: remaining,
	}
}

func toBidDTO(b *auction.Bid) BidDTO {
	return BidDTO{
		ID:              b.ID,
		AuctionID:       b.AuctionID,
		BidderID:        b.BidderID,
		Amount:          b.Amount,
		IsAuto:          b.IsAuto,
		PreferredTiming: b.PreferredTiming,
		CreatedAt:       b.CreatedAt,
	}
}

func toAutoBidDTO(ab *autobid.AutoBid) AutoBidDTO {
	return AutoBidDTO{
		ID:           ab.ID,
		AuctionID:    ab.AuctionID,
		UserID:       ab.UserID,
		MaxBidAmount: ab.MaxBidAmount,
		Active:       ab.Active,
		Strategy:     string(ab.Strategy.Type),
		LastBid:      ab.LastBidAmount,
	}
}

func toResultDTO(r *auction.Result) ResultDTO {
	out := ResultDTO{AuctionID: r.AuctionID, Sold: r.Sold}
	if r.Sold && r.HighBid != nil {
		out.WinnerUserID = r.HighBid.BidderID
		amount := r.HighBid.Amount
		out.WinningAmount = &amount
	}
	return out
}

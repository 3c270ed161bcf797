package auction

import "context"

// Session is one consistent view of the auction store and bid ledger.
// Inside Store.Run it is transactional; outside, autocommit.
type Session interface {
	AuctionStore
	BidLedger
	WinnerStore
}

// Store is the persistence capability the engine depends on. Run executes
// fn as one atomic unit and retries the whole unit on transient
// conflicts, so fn must re-derive everything from the session it is
// given and must reset any captured state on entry.
type Store interface {
	Session
	Run(ctx context.Context, fn func(s Session) error) error
}

type AuctionStore interface {
	GetAuction(ctx context.Context, id string) (*Auction, error)
	// GetAuctionForUpdate locks the auction row for the rest of the
	// transaction, linearizing concurrent bids on the same auction.
	GetAuctionForUpdate(ctx context.Context, id string) (*Auction, error)
	HasAuctionForVehicle(ctx context.Context, vehicleID string) (bool, error)
	InsertAuction(ctx context.Context, a *Auction) error
	UpdateAuction(ctx context.Context, a *Auction) error
	ListByStatus(ctx context.Context, statuses ...Status) ([]Auction, error)
	ListAuctions(ctx context.Context, status Status, limit, offset int) ([]Auction, error)
}

type BidLedger interface {
	InsertBid(ctx context.Context, b *Bid) error
	BidCount(ctx context.Context, auctionID string) (int, error)
	// HighestBid returns nil when the ledger holds no bids for the
	// auction. Ties on amount go to the earliest bid.
	HighestBid(ctx context.Context, auctionID string) (*Bid, error)
	UniqueBidders(ctx context.Context, auctionID string) (int, error)
	ListBids(ctx context.Context, auctionID string) ([]Bid, error)
}

type WinnerStore interface {
	HasWinner(ctx context.Context, auctionID string) (bool, error)
	InsertWinner(ctx context.Context, w *Winner) error
}

// VehicleGateway and UserGateway are lookups into out-of-scope
// aggregates; both return (nil, nil) when the id is unknown.
type VehicleGateway interface {
	GetVehicleByID(ctx context.Context, id string) (*Vehicle, error)
}

type UserGateway interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// Notification types emitted by the engine.
const (
	NotifReserveMet        = "reserve_met"
	NotifReserveAlreadyMet = "reserve_already_met"
	NotifBidderCount       = "bidder_count_changed"
	NotifNewBid            = "new_bid"
	NotifOutbid            = "outbid"
	NotifWon               = "auction_won"
	NotifAuctionStarted    = "auction_started"
	NotifAuctionExtended   = "auction_extended"
	NotifAuctionClosed     = "auction_closed"
)

// Notifier is fire-and-forget: delivery failures are logged by the
// implementation and never abort the operation that emitted them. An
// empty userID addresses the auction's audience instead of a single
// user.
type Notifier interface {
	Notify(ctx context.Context, userID, notifType, title, message, auctionID string)
	// HasNotification guards once-only notifications such as the winner
	// announcement.
	HasNotification(ctx context.Context, userID, notifType, auctionID string) (bool, error)
}

package auction

import "time"

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusPreview   Status = "PREVIEW"
	StatusActive    Status = "ACTIVE"
	StatusEnded     Status = "ENDED"
)

// rank orders the state machine; transitions may only move forward.
func (s Status) rank() int {
	switch s {
	case StatusScheduled:
		return 0
	case StatusPreview:
		return 1
	case StatusActive:
		return 2
	case StatusEnded:
		return 3
	}
	return -1
}

func (s Status) Valid() bool { return s.rank() >= 0 }

// Auction is the aggregate for one listed vehicle's sale event. There is
// at most one auction per vehicle, and an auction is never deleted, only
// transitioned to ENDED.
type Auction struct {
	ID        string
	VehicleID string
	Status    Status

	ScheduledStart time.Time
	PreviewStart   *time.Time
	StartUTC       *time.Time
	EndUTC         time.Time

	StartingPrice float64
	CurrentPrice  float64
	ReservePrice  float64
	ReserveMet    bool
	ReserveMetAt  *time.Time

	ExtensionCount   int
	MaxExtensions    int
	TriggerMinutes   int
	ExtensionMinutes int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bid is immutable once created; the ledger is append-only.
type Bid struct {
	ID              string
	AuctionID       string
	BidderID        string
	Amount          float64
	IsAuto          bool
	PreferredTiming string
	CreatedAt       time.Time
}

type Vehicle struct {
	ID    string
	Make  string
	Model string
	Year  int
}

type User struct {
	ID          string
	DisplayName string
}

// Winner is the idempotent record of a finalized sale, written at most
// once per auction.
type Winner struct {
	ID        string
	AuctionID string
	VehicleID string
	UserID    string
	UserName  string
	Amount    float64
	WonAt     time.Time
}

// Result is the outcome of ProcessAuctionResult. HighBid is set whenever
// at least one bid exists, even if the reserve was never met.
type Result struct {
	AuctionID string
	Sold      bool
	HighBid   *Bid
	Winner    *Winner
}

type CreateAuctionRequest struct {
	VehicleID      string
	ScheduledStart time.Time
	PreviewStart   *time.Time
	EndUTC         time.Time
	StartingPrice  float64
	ReservePrice   *float64

	// Anti-snipe overrides; engine defaults apply when nil.
	TriggerMinutes   *int
	ExtensionMinutes *int
	MaxExtensions    *int
}

type PlaceBidRequest struct {
	AuctionID       string
	BidderID        string
	Amount          float64
	IsAuto          bool
	PreferredTiming string
}

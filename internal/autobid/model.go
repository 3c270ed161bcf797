package autobid

import "time"

// StrategyType selects the behavioral ruleset for a user's auto-bidding
// on one auction.
type StrategyType string

const (
	StrategyImmediate StrategyType = "immediate"
	StrategyPatient   StrategyType = "patient"
	StrategyClosing   StrategyType = "closing"
)

func (t StrategyType) Valid() bool {
	switch t {
	case StrategyImmediate, StrategyPatient, StrategyClosing:
		return true
	}
	return false
}

// Strategy holds the timing and rate parameters plus the running attempt
// counters.
type Strategy struct {
	Type             StrategyType
	DelaySeconds     int
	MaxBidsPerMinute int
	MaxSpreadBids    int
	PreferredTiming  string
}

// defaultStrategy maps a type to its shipped parameters.
func defaultStrategy(t StrategyType) Strategy {
	switch t {
	case StrategyPatient:
		return Strategy{Type: t, DelaySeconds: 30, MaxBidsPerMinute: 2, MaxSpreadBids: 20, PreferredTiming: "spread"}
	case StrategyClosing:
		return Strategy{Type: t, DelaySeconds: 0, MaxBidsPerMinute: 6, MaxSpreadBids: 10, PreferredTiming: "closing"}
	default:
		return Strategy{Type: StrategyImmediate, DelaySeconds: 0, MaxBidsPerMinute: 12, MaxSpreadBids: 0, PreferredTiming: "immediate"}
	}
}

// AutoBid is a standing instruction to bid on a user's behalf up to a
// ceiling. At most one active AutoBid exists per (user, auction).
type AutoBid struct {
	ID            string
	AuctionID     string
	UserID        string
	MaxBidAmount  float64
	LastBidAmount *float64
	Active        bool

	Strategy       Strategy
	SuccessfulBids int
	FailedBids     int
	LastBidAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateAutoBidRequest struct {
	AuctionID    string
	UserID       string
	MaxBidAmount float64
	StrategyType StrategyType
}

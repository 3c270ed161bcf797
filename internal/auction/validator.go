package auction

import (
	"fmt"
	"math"
)

// IncrementPolicy supplies the minimum step a new bid must clear above
// the effective price. The schedule is deliberately pluggable; a zero
// step means any strictly higher amount is acceptable.
type IncrementPolicy interface {
	MinIncrement(effectivePrice float64) float64
}

// FixedIncrement applies one configured step at every price level.
type FixedIncrement struct {
	Step float64
}

func (p FixedIncrement) MinIncrement(float64) float64 { return p.Step }

// LadderIncrement scales the step with the effective price, the way most
// live vehicle auctions run their increments.
type LadderIncrement struct{}

func (LadderIncrement) MinIncrement(effectivePrice float64) float64 {
	switch {
	case effectivePrice < 1_000:
		return 25
	case effectivePrice < 5_000:
		return 50
	case effectivePrice < 25_000:
		return 100
	case effectivePrice < 100_000:
		return 250
	default:
		return 500
	}
}

// ValidateBid checks a proposed amount against the auction's pricing
// state and returns every violated rule. It is pure: no side effects, no
// shared state, safe to call concurrently. An empty result means the bid
// is acceptable.
func ValidateBid(proposed, startingPrice, currentPrice float64, existingBidCount int, policy IncrementPolicy) []string {
	var reasons []string

	if math.IsNaN(proposed) || math.IsInf(proposed, 0) {
		return []string{"bid amount must be a finite number"}
	}
	if proposed <= 0 {
		reasons = append(reasons, "bid amount must be positive")
	}

	effective := startingPrice
	if existingBidCount > 0 {
		effective = currentPrice
	}
	if proposed <= effective {
		reasons = append(reasons,
			fmt.Sprintf("bid amount %.2f must exceed the current price %.2f", proposed, effective))
		return reasons
	}

	if policy != nil {
		if step := policy.MinIncrement(effective); step > 0 && proposed < effective+step {
			reasons = append(reasons,
				fmt.Sprintf("bid amount %.2f is below the minimum increment of %.2f over %.2f", proposed, step, effective))
		}
	}
	return reasons
}

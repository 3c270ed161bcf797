package auction

import (
	"errors"
	"strings"
)

// FailureKind classifies expected domain failures. Anything that does not
// carry a kind is treated as unexpected and is hidden behind a generic
// failure at the transaction boundary.
type FailureKind string

const (
	KindNotFound         FailureKind = "not_found"
	KindInvalidState     FailureKind = "invalid_state"
	KindValidationFailed FailureKind = "validation_failed"
	KindConflict         FailureKind = "conflict"
	KindUnexpected       FailureKind = "unexpected"
)

// Failure is a typed, expected domain failure. It is returned, never
// panicked, and safe to expose to API callers.
type Failure struct {
	Kind    FailureKind
	Msg     string
	Reasons []string
}

func (f *Failure) Error() string {
	if len(f.Reasons) > 0 {
		return f.Msg + ": " + strings.Join(f.Reasons, "; ")
	}
	return f.Msg
}

func notFound(msg string) *Failure     { return &Failure{Kind: KindNotFound, Msg: msg} }
func invalidState(msg string) *Failure { return &Failure{Kind: KindInvalidState, Msg: msg} }

// ValidationFailure wraps one or more bid-rule violations.
func ValidationFailure(reasons ...string) *Failure {
	return &Failure{Kind: KindValidationFailed, Msg: "bid validation failed", Reasons: reasons}
}

var (
	ErrAuctionNotFound   = notFound("auction not found")
	ErrVehicleNotFound   = notFound("vehicle not found")
	ErrUserNotFound      = notFound("user not found")
	ErrAuctionNotActive  = invalidState("auction is not active")
	ErrAuctionNotEnded   = invalidState("auction has not ended")
	ErrVehicleHasAuction = invalidState("vehicle already has an auction")
	ErrBackwardStatus    = invalidState("auction status cannot move backward")

	// ErrUnexpected is what callers see when an internal error escaped the
	// transaction boundary; the real cause is logged, not returned.
	ErrUnexpected = &Failure{Kind: KindUnexpected, Msg: "internal failure"}
)

// KindOf reports the failure kind of err, or KindUnexpected for errors
// that are not typed domain failures.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnexpected
}

// IsExpected reports whether err is a typed domain failure.
func IsExpected(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

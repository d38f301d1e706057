package contract

import (
	"errors"
	"strings"
)

var (
	// ErrStalePrice is returned when the vault refuses a read because its
	// stored oracle price is older than it tolerates.
	ErrStalePrice = errors.New("on-chain price is stale")

	// ErrTxReverted is returned when a submitted transaction was mined with
	// a failed status.
	ErrTxReverted = errors.New("transaction reverted on-chain")

	// ErrTxNotConfirmed is returned when a submitted transaction was not
	// mined within the confirmation window.
	ErrTxNotConfirmed = errors.New("transaction not confirmed in time")
)

// staleMarkers are substrings nodes put in revert errors raised by the
// vault's PriceStale custom error.
var staleMarkers = []string{"pricestale", "price stale", "stale price"}

// IsStalePrice reports whether err carries the vault's stale-price revert.
func IsStalePrice(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStalePrice) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range staleMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// wrapCallError normalizes a raw node error, mapping stale-price reverts to
// ErrStalePrice so callers can branch on it.
func wrapCallError(method string, err error) error {
	if err == nil {
		return nil
	}
	if IsStalePrice(err) {
		return ErrStalePrice
	}
	return &CallError{Method: method, Err: err}
}

// CallError identifies which contract method a node error came from.
type CallError struct {
	Method string
	Err    error
}

func (e *CallError) Error() string {
	return "contract call " + e.Method + " failed: " + e.Err.Error()
}

func (e *CallError) Unwrap() error { return e.Err }

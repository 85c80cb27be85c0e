package entity

import (
	"errors"
	"fmt"
)

// ConnectionError means an account's provider was entirely unreachable. It is
// the only per-account failure that escalates to a visible status change.
type ConnectionError struct {
	Platform Platform
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("provider unreachable for platform %s: %v", e.Platform, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// FetchError is a single failed (address, chain) balance call. The affected row
// is omitted; the account is otherwise unaffected.
type FetchError struct {
	Chain   ChainID
	Address string
	Symbol  string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("balance fetch failed for %s on %s (address %s): %v", e.Symbol, e.Chain, e.Address, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PriceUnavailable means the oracle has no quote for a symbol. Recoverable:
// the row is retained with a nil price.
type PriceUnavailable struct {
	Symbol string
}

func (e *PriceUnavailable) Error() string {
	return fmt.Sprintf("no price available for %s", e.Symbol)
}

// IsPriceUnavailable reports whether err is (or wraps) a missing-quote
// condition.
func IsPriceUnavailable(err error) bool {
	var pu *PriceUnavailable
	return errors.As(err, &pu)
}

// ValidationError rejects malformed input before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

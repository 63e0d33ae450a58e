// Package errkind classifies gateway and plugin failures into a small set
// of kinds the bot loop and risk manager can branch on, replacing
// string-matched or exception-style error handling (§7).
package errkind

import "fmt"

// Kind names a class of failure.
type Kind string

const (
	TransientNetwork   Kind = "transient_network"
	RateLimit          Kind = "rate_limit"
	AuthFailure        Kind = "auth_failure"
	OrderRejected      Kind = "order_rejected"
	InsufficientBalance Kind = "insufficient_balance"
	MarketClosed       Kind = "market_closed"
	StaleData          Kind = "stale_data"
	PluginUnavailable  Kind = "plugin_unavailable"
	InvariantViolation Kind = "invariant_violation"
	Fatal              Kind = "fatal"
)

// Retryable reports whether the gateway should back off and retry rather
// than surface the error up the bot state machine immediately.
func (k Kind) Retryable() bool {
	switch k {
	case TransientNetwork, RateLimit, StaleData, PluginUnavailable:
		return true
	default:
		return false
	}
}

// Error wraps an underlying error with a Kind so callers can switch on
// classification without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, defaulting to Fatal when no classification is available.
func KindOf(err error) Kind {
	var ke *Error
	for {
		if e, ok := err.(*Error); ok {
			ke = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
		if err == nil {
			break
		}
	}
	if ke == nil {
		return Fatal
	}
	return ke.Kind
}

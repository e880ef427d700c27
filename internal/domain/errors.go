package domain

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of a failure surfaced to callers.
type Kind string

const (
	KindOutOfStock    Kind = "out_of_stock"
	KindEmptyCart     Kind = "empty_cart"
	KindNotFound      Kind = "not_found"
	KindInvalid       Kind = "invalid"
	KindRenderFailure Kind = "render_failure"
	KindPersistence   Kind = "persistence"
)

var (
	ErrOutOfStock    = errors.New("out of stock")
	ErrEmptyCart     = errors.New("cart empty")
	ErrNotFound      = errors.New("not found")
	ErrInvalid       = errors.New("invalid request")
	ErrRenderFailure = errors.New("render failure")
	ErrPersistence   = errors.New("persistence failure")
)

// KindOf classifies err. Errors that match none of the known sentinels are
// reported as persistence failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfStock):
		return KindOutOfStock
	case errors.Is(err, ErrEmptyCart):
		return KindEmptyCart
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	case errors.Is(err, ErrRenderFailure):
		return KindRenderFailure
	default:
		return KindPersistence
	}
}

// Persistence marks err as a store failure unless it already carries a known kind.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindPersistence || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("failed to %s: %w: %w", op, ErrPersistence, err)
}

// Invalid wraps a validation message so that KindOf reports KindInvalid.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for lookups of unknown scheduled-trade ids.
	ErrNotFound = errors.New("trade not found")

	// ErrMissingCredentials is returned when a signer is constructed or
	// used with an empty API secret. Signing with an empty key would
	// silently produce unauthenticated requests, so this fails fast.
	ErrMissingCredentials = errors.New("missing api credentials")

	// ErrNoData is returned when the requested orderbook side is empty.
	ErrNoData = errors.New("no data")
)

// ValidationError marks a rejected input (bad side, past schedule time).
type ValidationError struct {
	msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string {
	return e.msg
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidStateError is returned when cancelling a trade that already
// left the pending state.
type InvalidStateError struct {
	Status TradeStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("trade is already %s", e.Status)
}

// UpstreamError carries a non-success exchange response: the HTTP
// status and the raw body, so callers can surface exactly what the
// exchange said.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("exchange returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("exchange returned status %d", e.StatusCode)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmitInFlight is returned when a form already has a submission running.
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	// ErrUnknownAsset is returned when the submitted name matches no suggestion.
	ErrUnknownAsset = errors.New("asset not found among suggestions")
)

// ConfigurationError reports an interval label missing from the interval table.
type ConfigurationError struct {
	Label string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("interval %q is not configured", e.Label)
}

// NetworkError wraps any failure talking to the market data API, including
// non-2xx responses and bodies that cannot be decoded.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError reports a required form field left empty.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failing field of one submission.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	msg := fmt.Sprintf("%d invalid fields", len(v))
	for _, e := range v {
		msg += "; " + e.Error()
	}
	return msg
}

// Fields maps each failing field to its user-facing message.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		out[e.Field] = e.Message
	}
	return out
}

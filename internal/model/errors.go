package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the trading core can report
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindInvalidInput
	KindExchangeRejected
	KindMetadataUnavailable
	KindCommandUnrecognized
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindExchangeRejected:
		return "exchange_rejected"
	case KindMetadataUnavailable:
		return "metadata_unavailable"
	case KindCommandUnrecognized:
		return "command_unrecognized"
	default:
		return "unexpected"
	}
}

var (
	// ErrMetadataUnavailable is returned when symbol info is missing or incomplete
	ErrMetadataUnavailable = errors.New("symbol metadata unavailable")

	// ErrCommandUnrecognized is returned when no verb is close enough to the input
	ErrCommandUnrecognized = errors.New("command not recognized")
)

// ValidationError reports user input that cannot become a legal order
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ExchangeError is a rejection reported by the exchange itself
type ExchangeError struct {
	Code    int
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("APIError(code=%d): %s", e.Code, e.Message)
}

// KindOf maps any error returned by the core onto its kind
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnexpected
	}

	var validationErr *ValidationError
	var exchangeErr *ExchangeError
	switch {
	case errors.As(err, &validationErr):
		return KindInvalidInput
	case errors.As(err, &exchangeErr):
		return KindExchangeRejected
	case errors.Is(err, ErrMetadataUnavailable):
		return KindMetadataUnavailable
	case errors.Is(err, ErrCommandUnrecognized):
		return KindCommandUnrecognized
	default:
		return KindUnexpected
	}
}

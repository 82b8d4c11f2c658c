// Package apperr holds the error categories shared by the CRUD services and
// their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrValidation   = errors.New("validation error")
	ErrTooLarge     = errors.New("payload too large")
	// ErrAggregation marks a failed engine-metric refresh after the record
	// mutation that triggered it was already committed.
	ErrAggregation = errors.New("aggregation failure")
)

// Error carries a client-facing message for one of the sentinel categories.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is match both the category and the wrapped cause.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Duplicate(format string, args ...any) error {
	return &Error{Kind: ErrDuplicateKey, Message: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Payload classifies a request body decode error: an oversized body is
// ErrTooLarge, anything else ErrValidation.
func Payload(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &Error{Kind: ErrTooLarge, Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), Err: err}
	}
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf("invalid payload: %v", err), Err: err}
}

// Aggregation wraps cause as an ErrAggregation with the given message.
func Aggregation(cause error, format string, args ...any) error {
	return &Error{Kind: ErrAggregation, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Status maps err onto an HTTP status and a stable error code.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrDuplicateKey):
		return http.StatusBadRequest, "DUPLICATE_KEY"
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case errors.Is(err, ErrAggregation):
		return http.StatusInternalServerError, "AGGREGATION_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// Message returns the client-facing message of err, or fallback for
// uncategorised errors so internals never leak.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}

// PathUUID returns the named path value, or an ErrValidation error when it
// is not a UUID.
func PathUUID(r *http.Request, name string) (string, error) {
	v := r.PathValue(name)
	if !utilities.IsUUID(v) {
		return "", Invalid("invalid %s format, expected a UUID", name)
	}
	return v, nil
}

// Write logs err and writes the matching error response.
func Write(w http.ResponseWriter, logger *zap.SugaredLogger, err error, fallback string) {
	status, code := Status(err)
	if status >= http.StatusInternalServerError {
		logger.Errorw(fallback, "err", err)
	} else {
		logger.Debugw(fallback, "err", err)
	}
	utilities.WriteError(w, status, Message(err, fallback), code)
}

// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrNotFound is returned by single-record lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Required builds the common "x is required" validation error.
func Required(field string) error {
	return &ValidationError{Field: field}
}

// Invalid builds a validation error with a custom reason.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports a write that would collide with an existing record.
type ConflictError struct {
	Resource string
	Key      string
	Message  string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists for %s", e.Resource, e.Key)
}

// StoreError wraps a failure from the persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError unless it is nil, ErrNotFound or already
// part of the taxonomy.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		se *StoreError
		ce *ConflictError
		ve *ValidationError
	)
	if errors.Is(err, ErrNotFound) || errors.As(err, &se) || errors.As(err, &ce) || errors.As(err, &ve) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsConflict(err):
		return http.StatusConflict
	case IsNotFound(err):
		return http.StatusNotFound
	case IsStore(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts err into an echo.HTTPError. Store failures are reported
// as transient without leaking driver detail.
func HTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	status := Status(err)
	switch status {
	case http.StatusServiceUnavailable:
		return echo.NewHTTPError(status, "storage temporarily unavailable").SetInternal(err)
	case http.StatusInternalServerError:
		return echo.NewHTTPError(status, "internal server error").SetInternal(err)
	default:
		return echo.NewHTTPError(status, err.Error())
	}
}

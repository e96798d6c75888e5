// Package apperrors defines the error taxonomy used across the service.
// Validation, not-found and unavailable errors propagate to the caller with
// enough context to render a useful message. Cache corruption never leaves
// the cache layer; it is self-healed and reported as a miss.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError rejects bad parameters before any load attempt.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError signals that a driver/session/event is absent upstream.
type NotFoundError struct {
	Resource string // driver, session, event
	Msg      string
}

func (e *NotFoundError) Error() string { return e.Msg }

func NotFoundf(resource, format string, args ...any) *NotFoundError {
	return &NotFoundError{Resource: resource, Msg: fmt.Sprintf(format, args...)}
}

// TelemetryUnavailableError signals that a session exists but has no
// telemetry. It carries remediation hints based on the season year.
type TelemetryUnavailableError struct {
	Year        int
	Event       string
	SessionType string
	Reason      string
}

func (e *TelemetryUnavailableError) Error() string {
	msg := fmt.Sprintf("telemetry data is not available for %s %d %s.",
		e.Event, e.Year, e.SessionType)
	switch {
	case e.Year < 2011:
		msg += " Telemetry data is only available from 2011 onwards." +
			" For best results, use years 2018 and later."
	case e.Year < 2018:
		msg += " Some sessions from 2011-2017 may not have complete telemetry." +
			" For guaranteed telemetry data, use years 2018 and later."
	}
	if e.Reason != "" {
		msg += fmt.Sprintf(" Reason: %s", e.Reason)
	}
	return msg
}

// LoadFailureError wraps an upstream I/O or parse failure.
type LoadFailureError struct {
	Year        int
	Event       string
	SessionType string
	Err         error
}

func (e *LoadFailureError) Error() string {
	return fmt.Sprintf("failed to load session %s %d %s: %v",
		e.Event, e.Year, e.SessionType, e.Err)
}

func (e *LoadFailureError) Unwrap() error { return e.Err }

// CacheCorruptionError is internal to the cache layer.
type CacheCorruptionError struct {
	Key string
	Err error
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("cache entry %s is corrupt: %v", e.Key, e.Err)
}

func (e *CacheCorruptionError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var t *ValidationError
	return errors.As(err, &t)
}

func IsNotFound(err error) bool {
	var t *NotFoundError
	return errors.As(err, &t)
}

func IsTelemetryUnavailable(err error) bool {
	var t *TelemetryUnavailableError
	return errors.As(err, &t)
}

func IsLoadFailure(err error) bool {
	var t *LoadFailureError
	return errors.As(err, &t)
}

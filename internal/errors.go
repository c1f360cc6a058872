package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrServerUnavailable is returned after every attempt failed with a 502
	ErrServerUnavailable = errors.New("server unavailable, please try again later or contact the administrator")

	// ErrNetworkUnavailable is returned after every attempt failed at the transport level
	ErrNetworkUnavailable = errors.New("network unavailable, please check your connection")

	// ErrComputeBusy is returned when a compute is already in flight
	ErrComputeBusy = errors.New("a compute is already running")

	// ErrNoSession is returned when an operation needs an active session
	ErrNoSession = errors.New("no active session")

	// ErrSessionDeleted is returned when switching to a session deleted in this process
	ErrSessionDeleted = errors.New("session was deleted")
)

// TransientServerError represents a 502 response; it is always retried
type TransientServerError struct {
	Endpoint string
	Attempt  int
	Attempts int
}

func (e *TransientServerError) Error() string {
	return fmt.Sprintf("server temporarily unavailable (502) for %s, retrying (%d/%d)", e.Endpoint, e.Attempt, e.Attempts)
}

// HTTPError represents any other non-success HTTP status
type HTTPError struct {
	Endpoint   string
	Status     int
	StatusText string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.StatusText)
}

// TransportError represents a connection-level failure (dial, DNS, reset)
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError represents input rejected before any network call
type ValidationError struct {
	Field   string // "query", "main_text"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// StorageError represents errors accessing the local cache backend
type StorageError struct {
	Op  string // "open", "get", "set", "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DecodeError represents a remote payload that could not be decoded
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error [%s]: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// exhaustedError carries the classified sentinel together with the last attempt error
type exhaustedError struct {
	kind error
	last error
}

func (e *exhaustedError) Error() string {
	return e.kind.Error()
}

func (e *exhaustedError) Unwrap() []error {
	return []error{e.kind, e.last}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

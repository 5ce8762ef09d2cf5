package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the instance is unreachable
	ErrServerOffline = errors.New("instance is unreachable")

	// ErrInstanceNotFound indicates the requested instance is not configured
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrNoInstance indicates no instance of the required type is selected
	ErrNoInstance = errors.New("no instance selected")

	// ErrInvalidURL indicates an instance URL that cannot be requested
	ErrInvalidURL = errors.New("invalid instance url")

	// ErrWrongAppName indicates the URL serves a different *arr application
	ErrWrongAppName = errors.New("wrong instance type")
)

// StatusError is returned by the API client for non-2xx responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// DecodeError is returned by the API client when a response body cannot be decoded
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorKind is the closed classification of facade failures
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCancelled
	KindNetworkUnreachable
	KindBadStatus
	KindDecodingFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindBadStatus:
		return "bad_status"
	case KindDecodingFailed:
		return "decoding_failed"
	default:
		return "unknown"
	}
}

// Error is a classified API failure. It is what stores record and what the
// UI renders; Cancelled errors are never recorded.
type Error struct {
	Kind   ErrorKind
	Code   int    // HTTP status for KindBadStatus
	Detail string // Underlying message for KindDecodingFailed and KindUnknown
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCancelled:
		return "request cancelled"
	case KindNetworkUnreachable:
		return "instance is unreachable"
	case KindBadStatus:
		return fmt.Sprintf("instance returned status %d", e.Code)
	case KindDecodingFailed:
		return "invalid server response: " + e.Detail
	default:
		return "unknown error: " + e.Detail
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Title is the short alert title
func (e *Error) Title() string {
	switch e.Kind {
	case KindNetworkUnreachable:
		return "Instance Not Reachable"
	case KindBadStatus:
		return "Invalid Status Code"
	case KindDecodingFailed:
		return "Invalid Server Response"
	default:
		return "Something Went Wrong"
	}
}

// RecoverySuggestion is the classification-specific hint shown under the alert
func (e *Error) RecoverySuggestion() string {
	switch e.Kind {
	case KindNetworkUnreachable:
		return "Check the instance URL and your network connection."
	case KindBadStatus:
		switch e.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "Check the instance API key."
		case http.StatusNotFound:
			return "The requested item no longer exists."
		}
		if e.Code >= 500 {
			return "The instance reported an internal error. Try again later."
		}
		return fmt.Sprintf("URL returned status %d.", e.Code)
	case KindDecodingFailed:
		return "The instance may be running an unsupported version."
	default:
		return "Try again later."
	}
}

// Classify maps any failure raised by the API client into the closed
// taxonomy. Cancellation is checked first. Returns nil for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCancelled, Err: err}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &Error{Kind: KindBadStatus, Code: statusErr.Code, Err: err}
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return &Error{Kind: KindDecodingFailed, Detail: decodeErr.Err.Error(), Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Kind: KindDecodingFailed, Detail: err.Error(), Err: err}
	}

	var netErr net.Error
	if errors.Is(err, ErrServerOffline) || errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return &Error{Kind: KindNetworkUnreachable, Err: err}
	}

	return &Error{Kind: KindUnknown, Detail: err.Error(), Err: err}
}

// IsCancelled reports whether err is a deliberate cancellation
func IsCancelled(err error) bool {
	return err != nil && Classify(err).Kind == KindCancelled
}

package aghpb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid aghpb configuration")
	// ErrInvalidLimit indicates a search limit outside 1..255
	ErrInvalidLimit = errors.New("search limit must be between 1 and 255")
	// ErrEmptySearchID indicates GetByID was called without an id
	ErrEmptySearchID = errors.New("search id is required")
)

// TransportError is returned when no response could be obtained from the API.
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("aghpb: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because a deadline was exceeded
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// APIError is a structured error body returned by the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("aghpb API error: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRateLimited checks if the service rejected the request for exceeding its rate limit
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// MalformedResponseError means the response does not have the documented shape.
// Field names the offending header or JSON key; it is "error" when a non-2xx
// body could not be parsed.
type MalformedResponseError struct {
	Field      string
	Reason     string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("aghpb: malformed response: %s: %s", e.Field, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when image bytes cannot be decoded.
type DecodeError struct {
	Err error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("aghpb: decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

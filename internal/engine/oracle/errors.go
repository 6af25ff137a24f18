package oracle

import (
	"fmt"
	"time"
)

// TransportError is a failure to get a usable HTTP response from an oracle.
// StatusCode is zero for network-level failures.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oracle: transport: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("oracle: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means the oracle answered but the body could not be decoded.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("oracle: parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RateLimitError indicates the provider is throttling or blocking us.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

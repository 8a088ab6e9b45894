package gink

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks a 200 response whose body is not JSON.
	ErrMalformedResponse = errors.New("expected JSON, none returned")
	// ErrMissingRedirectLocation marks a followed 3xx response without a Location header.
	ErrMissingRedirectLocation = errors.New("missing redirect location")
	// ErrTooManyRedirects marks a redirect chain longer than the configured bound.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// TransportError means the request could not be sent or its response could
// not be received at all.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string { return "transport error" }

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError carries any status other than 200 or a followed redirect.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP error status: %d", e.Code) }

// ConfigurationError is returned by New for an unusable endpoint
// configuration.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gink config %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

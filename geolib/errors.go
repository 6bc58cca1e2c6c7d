package geolib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingIdentifier = errors.New("provide at least one of ip_address or url")
	ErrInvalidURL        = errors.New("url is not a valid HTTP/HTTPS URL")
	ErrInvalidIPAddress  = errors.New("ip_address is not a valid IP address")
	ErrUnresolvableHost  = errors.New("cannot resolve url hostname")

	ErrNoData      = errors.New("no geolocation data available")
	ErrNotFound    = errors.New("geolocation is not found")
	ErrProvider    = errors.New("cannot fetch geolocation data")
	ErrPersistence = errors.New("cannot persist geolocation data")
	ErrCache       = errors.New("cannot evict cached geolocation")

	ErrGeolocatorShutdown = errors.New("geolocator instance was shutdown")
	ErrContextIsClosed    = errors.New("context is closed")

	ErrCircuitBreakerOpened = errors.New("circuit breaker is opened")
	ErrCircuitBreakerIgnore = errors.New("this error should be ignored by circuit breaker")
)

// IsValidationError tells if err is a result of a bad request: these
// errors never reach a provider or a store.
//
// ErrUnresolvableHost is not a validation error: a well-formed url
// simply has no geolocation if its hostname cannot be resolved.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingIdentifier) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidIPAddress)
}

// unresolvedAs reports a DNS failure as a target data level error.
// Other errors are returned as is.
func unresolvedAs(err, target error) error {
	if errors.Is(err, ErrUnresolvableHost) {
		return fmt.Errorf("%w: %w", target, err)
	}

	return err
}

// ProviderError wraps any failure of the upstream provider: transport,
// unexpected status or malformed body.
type ProviderError struct {
	Provider string
	Err      error
}

func (p *ProviderError) Error() string {
	return ErrProvider.Error() + " from " + p.Provider + ": " + p.Err.Error()
}

func (p *ProviderError) Unwrap() error {
	return p.Err
}

func (p *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// PersistenceError is returned if a store has failed after data was
// successfully fetched.
type PersistenceError struct {
	IP  string
	Err error
}

func (p *PersistenceError) Error() string {
	return ErrPersistence.Error() + " for " + p.IP + ": " + p.Err.Error()
}

func (p *PersistenceError) Unwrap() error {
	return p.Err
}

func (p *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

type jsonHTTPError struct {
	Error struct {
		Message string `json:"message"`
		Context string `json:"context"`
	} `json:"error"`
}

type httpError struct {
	message    string
	err        error
	statusCode int
}

func (h *httpError) Message() string {
	if h == nil {
		return ""
	}

	return h.message
}

func (h *httpError) Err() string {
	if err := errors.Unwrap(h); err != nil {
		return err.Error()
	}

	return ""
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	switch {
	case h == nil:
		return ""
	case h.err != nil && h.message != "":
		return h.message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return h.message
}

func (h *httpError) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}

	value := jsonHTTPError{}
	value.Error.Message = h.Message()
	value.Error.Context = h.Err()

	return json.Marshal(&value)
}

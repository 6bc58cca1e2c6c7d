package main

import (
	"crypto/subtle"
	"net/http"
	"time"
)

const apiKeyHeader = "X-Api-Key"

type apiKey struct {
	key       []byte
	expiresAt time.Time
	active    bool
}

func (a apiKey) Valid(now time.Time) bool {
	return a.active && (a.expiresAt.IsZero() || now.Before(a.expiresAt))
}

// apiKeyMiddleware lets through only requests which have a valid key in
// X-Api-Key header.
type apiKeyMiddleware struct {
	handler http.Handler
	keys    []apiKey
	now     func() time.Time
}

func (a *apiKeyMiddleware) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if a.authorized([]byte(req.Header.Get(apiKeyHeader))) {
		a.handler.ServeHTTP(w, req)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthorized"}`)) // nolint: errcheck
}

func (a *apiKeyMiddleware) authorized(value []byte) bool {
	if len(value) == 0 {
		return false
	}

	now := a.now()
	found := 0

	for _, v := range a.keys {
		if subtle.ConstantTimeCompare(v.key, value) == 1 && v.Valid(now) {
			found = 1
		}
	}

	return found == 1
}

// newAPIKeyMiddleware wraps a handler. If no keys are configured,
// handler is returned as is.
func newAPIKeyMiddleware(handler http.Handler, keys []configAPIKey) http.Handler {
	if len(keys) == 0 {
		return handler
	}

	rv := &apiKeyMiddleware{
		handler: handler,
		keys:    make([]apiKey, 0, len(keys)),
		now:     time.Now,
	}

	for _, v := range keys {
		rv.keys = append(rv.keys, apiKey{
			key:       []byte(v.Key),
			expiresAt: v.GetExpiresAt(),
			active:    v.GetActive(),
		})
	}

	return rv
}

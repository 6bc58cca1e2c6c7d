package geolib

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Provider fetches geolocation data for an IP address from some
// upstream source. A blank ip is not an error: provider returns nil
// payload and nil error.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ip string) (Payload, error)
}

// Store is a durable storage of geolocation records. All operations
// are keyed by canonical IP address. Implementations have to guarantee
// that there is at most one record per IP even under concurrent
// upserts.
type Store interface {
	Find(ctx context.Context, ip string) (*Record, error)
	Upsert(ctx context.Context, ip string, data Payload) (*Record, error)
	Delete(ctx context.Context, ip string) error
}

// Cache is an expiring key-value storage which is used as a read-through
// accelerant in front of the Store. A miss is never authoritative.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// HostResolver resolves hostnames into IP addresses. *net.Resolver
// satisfies this interface.
type HostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// HTTPClient is an interface for the HTTP clients which are used by
// online providers.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Logger interface {
	ProviderError(ip, name string, err error)
	StoreError(ip string, err error)
	CacheError(key string, err error)
	RequestDone(operation, ip string, outcome Outcome)
}

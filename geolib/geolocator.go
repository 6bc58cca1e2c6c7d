package geolib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// CacheTTL defines how long a geolocation stays in the cache.
	CacheTTL = 24 * time.Hour

	// CacheKeyPrefix is a namespace of geolocation keys in the cache.
	// This format is visible to anyone who inspects a cache so it
	// should not be changed.
	CacheKeyPrefix = "geolocation:"

	DefaultWorkerPoolSize = 64

	workerPoolExpireTime = time.Minute
)

// CacheKey returns a cache key for the given resolved IP.
func CacheKey(ip string) string {
	return CacheKeyPrefix + ip
}

// Opts defines a set of collaborators for the Geolocator. Provider,
// Store and Cache are mandatory.
type Opts struct {
	Provider Provider
	Store    Store
	Cache    Cache

	// Resolver is used to resolve url hostnames. net.DefaultResolver is
	// used if nothing is set.
	Resolver HostResolver

	Logger         Logger
	WorkerPoolSize int
}

// Geolocator keeps a cache and a store consistent with a provider.
//
// Lookups go through the cache first, then the store and only then
// hit the provider. Results are written back down the chain: store
// first, cache after a successful store write only. Geolocator does
// not lock anything around this sequence: concurrent creations of the
// same IP are last-write-wins.
type Geolocator struct {
	identifiers IdentifierResolver
	provider    Provider
	store       Store
	cache       Cache
	logger      Logger

	providerStats *UsageStats
	storeStats    *UsageStats
	cacheStats    *UsageStats

	handler    http.Handler
	rwmutex    sync.RWMutex
	closeOnce  sync.Once
	workerPool *ants.PoolWithFunc
	closed     bool
}

func (g *Geolocator) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	g.handler.ServeHTTP(w, req)
}

// Submit fetches fresh data from the provider and persists it.
//
// Please pay attention that the record is stored under the IP reported
// by the provider while the cache is populated for the resolved one.
// These may differ.
func (g *Geolocator) Submit(ctx context.Context, req Request) (*Record, error) {
	g.rwmutex.RLock()
	defer g.rwmutex.RUnlock()

	if g.closed {
		return nil, ErrGeolocatorShutdown
	}

	ip, err := g.identifiers.Resolve(ctx, req)
	if err != nil {
		g.done("submit", "", OutcomeFailed)

		return nil, unresolvedAs(err, ErrNoData)
	}

	record, err := g.create(ctx, ip)
	if err != nil {
		g.done("submit", ip, OutcomeFailed)

		return nil, err
	}

	g.done("submit", ip, OutcomeCreated)

	return record, nil
}

// Provide returns a known geolocation or creates a new one. Outcome
// tells if record was found (either in cache or in the store) or
// created.
func (g *Geolocator) Provide(ctx context.Context, req Request) (*Record, Outcome, error) {
	g.rwmutex.RLock()
	defer g.rwmutex.RUnlock()

	if g.closed {
		return nil, OutcomeFailed, ErrGeolocatorShutdown
	}

	return g.provide(ctx, req)
}

// Delete removes a geolocation from the store and evicts it from the
// cache.
func (g *Geolocator) Delete(ctx context.Context, req Request) error {
	g.rwmutex.RLock()
	defer g.rwmutex.RUnlock()

	if g.closed {
		return ErrGeolocatorShutdown
	}

	ip, err := g.identifiers.Resolve(ctx, req)
	if err != nil {
		g.done("delete", "", OutcomeFailed)

		return unresolvedAs(err, ErrNotFound)
	}

	if err := g.delete(ctx, ip); err != nil {
		g.done("delete", ip, OutcomeFailed)

		return err
	}

	g.done("delete", ip, OutcomeDeleted)

	return nil
}

// UsageStats returns statistics on provider, store and cache usage.
func (g *Geolocator) UsageStats() []*UsageStats {
	return []*UsageStats{g.providerStats, g.storeStats, g.cacheStats}
}

func (g *Geolocator) Shutdown() {
	g.rwmutex.Lock()
	defer g.rwmutex.Unlock()

	g.closed = true

	g.closeOnce.Do(func() {
		g.workerPool.Release()
	})
}

func (g *Geolocator) provide(ctx context.Context, req Request) (*Record, Outcome, error) {
	ip, err := g.identifiers.Resolve(ctx, req)
	if err != nil {
		g.done("provide", "", OutcomeFailed)

		return nil, OutcomeFailed, unresolvedAs(err, ErrNoData)
	}

	if record, ok := g.cacheRead(ctx, ip); ok {
		g.done("provide", ip, OutcomeFound)

		return record, OutcomeFound, nil
	}

	record, err := g.store.Find(ctx, ip)

	switch {
	case err == nil:
		g.storeStats.Used(nil)
		g.cacheWrite(ctx, ip, record)
		g.done("provide", ip, OutcomeFound)

		return record, OutcomeFound, nil
	case errors.Is(err, ErrNotFound):
		g.storeStats.Used(nil)
	default:
		g.storeStats.Used(err)
		g.logger.StoreError(ip, err)
		g.done("provide", ip, OutcomeFailed)

		return nil, OutcomeFailed, &PersistenceError{IP: ip, Err: err}
	}

	record, err = g.create(ctx, ip)
	if err != nil {
		g.done("provide", ip, OutcomeFailed)

		return nil, OutcomeFailed, err
	}

	g.done("provide", ip, OutcomeCreated)

	return record, OutcomeCreated, nil
}

func (g *Geolocator) create(ctx context.Context, ip string) (*Record, error) {
	payload, err := g.fetch(ctx, ip)
	if err != nil {
		return nil, err
	}

	if payload.Empty() {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ip)
	}

	storeIP := ip
	if reported := net.ParseIP(payload.IP()); reported != nil {
		storeIP = reported.String()
	}

	record, err := g.store.Upsert(ctx, storeIP, payload)
	g.storeStats.Used(err)

	if err != nil {
		g.logger.StoreError(storeIP, err)

		return nil, &PersistenceError{IP: storeIP, Err: err}
	}

	g.cacheWrite(ctx, ip, record)

	return record, nil
}

func (g *Geolocator) fetch(ctx context.Context, ip string) (Payload, error) {
	started := time.Now()
	payload, err := g.provider.Fetch(ctx, ip)

	metricProviderDuration.WithLabelValues(g.provider.Name()).Observe(time.Since(started).Seconds())
	g.providerStats.Used(err)

	if err != nil {
		g.logger.ProviderError(ip, g.provider.Name(), err)

		if !errors.Is(err, ErrProvider) {
			err = &ProviderError{Provider: g.provider.Name(), Err: err}
		}

		return nil, err
	}

	return payload, nil
}

func (g *Geolocator) delete(ctx context.Context, ip string) error {
	if _, err := g.store.Find(ctx, ip); err != nil {
		if errors.Is(err, ErrNotFound) {
			g.storeStats.Used(nil)

			return err
		}

		g.storeStats.Used(err)
		g.logger.StoreError(ip, err)

		return &PersistenceError{IP: ip, Err: err}
	}

	err := g.store.Delete(ctx, ip)

	switch {
	case errors.Is(err, ErrNotFound):
		g.storeStats.Used(nil)

		return err
	case err != nil:
		g.storeStats.Used(err)
		g.logger.StoreError(ip, err)

		return &PersistenceError{IP: ip, Err: err}
	}

	g.storeStats.Used(nil)

	key := CacheKey(ip)
	err = g.cache.Delete(ctx, key)
	g.cacheStats.Used(err)

	if err != nil {
		g.logger.CacheError(key, err)

		return fmt.Errorf("%w %s: %v", ErrCache, key, err)
	}

	return nil
}

func (g *Geolocator) cacheRead(ctx context.Context, ip string) (*Record, bool) {
	key := CacheKey(ip)

	data, ok, err := g.cache.Get(ctx, key)
	g.cacheStats.Used(err)

	switch {
	case err != nil:
		metricCacheLookups.WithLabelValues("error").Inc()
		g.logger.CacheError(key, err)

		return nil, false
	case !ok:
		metricCacheLookups.WithLabelValues("miss").Inc()

		return nil, false
	}

	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		metricCacheLookups.WithLabelValues("error").Inc()
		g.logger.CacheError(key, fmt.Errorf("cannot decode cached value: %w", err))

		return nil, false
	}

	metricCacheLookups.WithLabelValues("hit").Inc()

	return record, true
}

func (g *Geolocator) cacheWrite(ctx context.Context, ip string, record *Record) {
	key := CacheKey(ip)

	data, err := json.Marshal(record)
	if err == nil {
		err = g.cache.Set(ctx, key, data, CacheTTL)
	}

	g.cacheStats.Used(err)

	if err != nil {
		g.logger.CacheError(key, err)
	}
}

func (g *Geolocator) done(operation, ip string, outcome Outcome) {
	metricRequests.WithLabelValues(operation, outcome.String()).Inc()
	g.logger.RequestDone(operation, ip, outcome)
}

func NewGeolocator(opts Opts) (*Geolocator, error) {
	switch {
	case opts.Provider == nil:
		return nil, errors.New("provider is not set")
	case opts.Store == nil:
		return nil, errors.New("store is not set")
	case opts.Cache == nil:
		return nil, errors.New("cache is not set")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	rv := &Geolocator{
		identifiers:   NewIdentifierResolver(opts.Resolver),
		provider:      opts.Provider,
		store:         opts.Store,
		cache:         opts.Cache,
		logger:        logger,
		providerStats: &UsageStats{Name: "provider:" + opts.Provider.Name()},
		storeStats:    &UsageStats{Name: "store"},
		cacheStats:    &UsageStats{Name: "cache"},
	}

	poolSize := opts.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	pool, err := ants.NewPoolWithFunc(poolSize, rv.provideTask,
		ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create a worker pool: %w", err)
	}

	rv.workerPool = pool
	rv.handler = NewHTTPHandler(rv)

	return rv, nil
}

type noopLogger struct{}

func (noopLogger) ProviderError(string, string, error) {}
func (noopLogger) StoreError(string, error) {}
func (noopLogger) CacheError(string, error) {}
func (noopLogger) RequestDone(string, string, Outcome) {}

package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/9seconds/geolocator/caches"
	"github.com/9seconds/geolocator/geolib"
	"github.com/9seconds/geolocator/providers"
	"github.com/hjson/hjson-go/v4"
)

const (
	DefaultHTTPTimeout                        = 10 * time.Second
	DefaultRateLimitInterval                  = 100 * time.Millisecond
	DefaultRateLimitBurst                     = 10
	DefaultCircuitBreakerOpenThreshold        = 5
	DefaultCircuitBreakerHalfOpenTimeout      = time.Minute
	DefaultCircuitBreakerResetFailuresTimeout = 20 * time.Second
	DefaultDNSTimeout                         = 5 * time.Second
	DefaultRedisMaxIdle                       = 8
	DefaultRedisIdleTimeout                   = 5 * time.Minute
	DefaultRedisDialTimeout                   = 5 * time.Second

	StoreKindMemory   = "memory"
	StoreKindBolt     = "bolt"
	StoreKindPostgres = "postgres"

	CacheKindMemory = "memory"
	CacheKindRedis  = "redis"
)

// authTokenEnvVars are used if auth_token is not set in config.
var authTokenEnvVars = map[string]string{
	providers.NameIPStack: "IPSTACK_API_KEY",
	providers.NameIPInfo:  "IPINFO_TOKEN",
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	dur, err := time.ParseDuration(vv)
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var v string

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal timestamp: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return fmt.Errorf("cannot parse timestamp: %w", err)
	}

	t.Time = parsed

	return nil
}

type config struct {
	Listen         string         `json:"listen"`
	WorkerPoolSize uint           `json:"worker_pool_size"`
	APIKeys        []configAPIKey `json:"api_keys"`
	Provider       configProvider `json:"provider"`
	Store          configStore    `json:"store"`
	Cache          configCache    `json:"cache"`
	DNS            configDNS      `json:"dns"`
}

func (c config) GetListen() string {
	return c.Listen
}

func (c config) GetWorkerPoolSize() int {
	if c.WorkerPoolSize == 0 {
		return geolib.DefaultWorkerPoolSize
	}

	return int(c.WorkerPoolSize)
}

func (c config) GetAPIKeys() []configAPIKey {
	return c.APIKeys
}

type configAPIKey struct {
	Key       string     `json:"key"`
	ExpiresAt *timestamp `json:"expires_at"`
	Active    *bool      `json:"active"`
}

// GetActive tells if key is enabled. Keys are active unless explicitly
// disabled.
func (c configAPIKey) GetActive() bool {
	return c.Active == nil || *c.Active
}

func (c configAPIKey) GetExpiresAt() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}

	return c.ExpiresAt.Time
}

type configProvider struct {
	Name                               string   `json:"name"`
	AuthToken                          string   `json:"auth_token"`
	Secure                             *bool    `json:"secure"`
	DatabasePath                       string   `json:"database_path"`
	ReloadEvery                        duration `json:"reload_every"`
	HTTPTimeout                        duration `json:"http_timeout"`
	RateLimitInterval                  duration `json:"rate_limit_interval"`
	RateLimitBurst                     uint     `json:"rate_limit_burst"`
	CircuitBreakerOpenThreshold        uint32   `json:"circuit_breaker_open_threshold"`
	CircuitBreakerHalfOpenTimeout      duration `json:"circuit_breaker_half_open_timeout"`
	CircuitBreakerResetFailuresTimeout duration `json:"circuit_breaker_reset_failures_timeout"`
}

func (c configProvider) GetName() string {
	return c.Name
}

func (c configProvider) GetAuthToken() string {
	if c.AuthToken != "" {
		return c.AuthToken
	}

	if envVar, ok := authTokenEnvVars[c.Name]; ok {
		return strings.TrimSpace(os.Getenv(envVar))
	}

	return ""
}

func (c configProvider) GetSecure() bool {
	return c.Secure == nil || *c.Secure
}

func (c configProvider) GetDatabasePath() string {
	return c.DatabasePath
}

// GetReloadEvery returns how often a local database is checked for
// changes. 0 disables reloading.
func (c configProvider) GetReloadEvery() time.Duration {
	return c.ReloadEvery.Duration
}

func (c configProvider) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration == 0 {
		return DefaultHTTPTimeout
	}

	return c.HTTPTimeout.Duration
}

func (c configProvider) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval.Duration == 0 {
		return DefaultRateLimitInterval
	}

	return c.RateLimitInterval.Duration
}

func (c configProvider) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

func (c configProvider) GetCircuitBreakerOpenThreshold() uint32 {
	if c.CircuitBreakerOpenThreshold == 0 {
		return DefaultCircuitBreakerOpenThreshold
	}

	return c.CircuitBreakerOpenThreshold
}

func (c configProvider) GetCircuitBreakerHalfOpenTimeout() time.Duration {
	if c.CircuitBreakerHalfOpenTimeout.Duration == 0 {
		return DefaultCircuitBreakerHalfOpenTimeout
	}

	return c.CircuitBreakerHalfOpenTimeout.Duration
}

func (c configProvider) GetCircuitBreakerResetFailuresTimeout() time.Duration {
	if c.CircuitBreakerResetFailuresTimeout.Duration == 0 {
		return DefaultCircuitBreakerResetFailuresTimeout
	}

	return c.CircuitBreakerResetFailuresTimeout.Duration
}

type configStore struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	DSN  string `json:"dsn"`
}

func (c configStore) GetKind() string {
	if c.Kind == "" {
		return StoreKindMemory
	}

	return strings.ToLower(c.Kind)
}

func (c configStore) GetPath() string {
	return c.Path
}

func (c configStore) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	return os.Getenv("DATABASE_URL")
}

type configCache struct {
	Kind          string   `json:"kind"`
	ItemsCount    uint     `json:"items_count"`
	RedisAddress  string   `json:"redis_address"`
	RedisPassword string   `json:"redis_password"`
	RedisDB       int      `json:"redis_db"`
	RedisMaxIdle  int      `json:"redis_max_idle"`
	RedisMaxConns int      `json:"redis_max_active"`
	IdleTimeout   duration `json:"redis_idle_timeout"`
	DialTimeout   duration `json:"redis_dial_timeout"`
}

func (c configCache) GetKind() string {
	if c.Kind == "" {
		return CacheKindMemory
	}

	return strings.ToLower(c.Kind)
}

func (c configCache) GetItemsCount() uint {
	return c.ItemsCount
}

func (c configCache) GetRedisConfig() caches.RedisConfig {
	rv := caches.RedisConfig{
		Address:     c.RedisAddress,
		Password:    c.RedisPassword,
		DB:          c.RedisDB,
		MaxIdle:     c.RedisMaxIdle,
		MaxActive:   c.RedisMaxConns,
		IdleTimeout: c.IdleTimeout.Duration,
		DialTimeout: c.DialTimeout.Duration,
	}

	if rv.MaxIdle == 0 {
		rv.MaxIdle = DefaultRedisMaxIdle
	}

	if rv.IdleTimeout == 0 {
		rv.IdleTimeout = DefaultRedisIdleTimeout
	}

	if rv.DialTimeout == 0 {
		rv.DialTimeout = DefaultRedisDialTimeout
	}

	return rv
}

type configDNS struct {
	Nameserver string   `json:"nameserver"`
	Timeout    duration `json:"timeout"`
}

func (c configDNS) GetNameserver() string {
	return c.Nameserver
}

func (c configDNS) GetTimeout() time.Duration {
	if c.Timeout.Duration == 0 {
		return DefaultDNSTimeout
	}

	return c.Timeout.Duration
}

func parseConfig(content []byte) (*config, error) {
	conf := config{}
	rawMap := map[string]interface{}{}

	if err := hjson.Unmarshal(content, &rawMap); err != nil {
		return nil, fmt.Errorf("cannot parse hjson: %w", err)
	}

	rawBytes, err := json.Marshal(rawMap)
	if err != nil {
		return nil, fmt.Errorf("cannot convert config to json: %w", err)
	}

	if err := json.Unmarshal(rawBytes, &conf); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c config) validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	seenKeys := map[string]struct{}{}

	for i, v := range c.APIKeys {
		if v.Key == "" {
			return fmt.Errorf("api key %d is empty", i)
		}

		if _, ok := seenKeys[v.Key]; ok {
			return fmt.Errorf("api key %d is duplicated", i)
		}

		seenKeys[v.Key] = struct{}{}
	}

	switch c.Provider.GetName() {
	case providers.NameIPStack:
		if c.Provider.GetAuthToken() == "" {
			return fmt.Errorf("auth_token is required for %s provider", c.Provider.GetName())
		}
	case providers.NameIPInfo:
	case providers.NameMaxmind:
		if c.Provider.GetDatabasePath() == "" {
			return fmt.Errorf("database_path is required for %s provider", c.Provider.GetName())
		}
	default:
		return fmt.Errorf("unsupported provider name: %q", c.Provider.GetName())
	}

	switch c.Store.GetKind() {
	case StoreKindMemory:
	case StoreKindBolt:
		if c.Store.GetPath() == "" {
			return fmt.Errorf("path is required for %s store", StoreKindBolt)
		}
	case StoreKindPostgres:
		if c.Store.GetDSN() == "" {
			return fmt.Errorf("dsn is required for %s store", StoreKindPostgres)
		}
	default:
		return fmt.Errorf("unsupported store kind: %q", c.Store.Kind)
	}

	switch c.Cache.GetKind() {
	case CacheKindMemory:
	case CacheKindRedis:
		if c.Cache.RedisAddress == "" {
			return fmt.Errorf("redis_address is required for %s cache", CacheKindRedis)
		}
	default:
		return fmt.Errorf("unsupported cache kind: %q", c.Cache.Kind)
	}

	return nil
}

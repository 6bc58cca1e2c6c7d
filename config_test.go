package main

import (
	"testing"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (suite *ConfigTestSuite) TestMinimal() {
	conf, err := parseConfig([]byte(`
    {
        listen: "127.0.0.1:8000"
        provider: {
            name: ipstack
            auth_token: secret
        }
    }`))

	suite.NoError(err)
	suite.Equal("127.0.0.1:8000", conf.GetListen())
	suite.Equal(geolib.DefaultWorkerPoolSize, conf.GetWorkerPoolSize())
	suite.Empty(conf.GetAPIKeys())
	suite.Equal("secret", conf.Provider.GetAuthToken())
	suite.True(conf.Provider.GetSecure())
	suite.Equal(DefaultHTTPTimeout, conf.Provider.GetHTTPTimeout())
	suite.Equal(DefaultRateLimitInterval, conf.Provider.GetRateLimitInterval())
	suite.Equal(DefaultRateLimitBurst, conf.Provider.GetRateLimitBurst())
	suite.EqualValues(DefaultCircuitBreakerOpenThreshold, conf.Provider.GetCircuitBreakerOpenThreshold())
	suite.Equal(StoreKindMemory, conf.Store.GetKind())
	suite.Equal(CacheKindMemory, conf.Cache.GetKind())
	suite.Equal("", conf.DNS.GetNameserver())
	suite.Equal(DefaultDNSTimeout, conf.DNS.GetTimeout())
}

func (suite *ConfigTestSuite) TestFull() {
	conf, err := parseConfig([]byte(`
    {
        # comments are allowed
        listen: "0.0.0.0:3000"
        worker_pool_size: 10
        api_keys: [
            {
                key: key1
            }
            {
                key: key2
                expires_at: "2030-01-02T03:04:05Z"
                active: false
            }
        ]
        provider: {
            name: ipinfo
            auth_token: token
            secure: false
            http_timeout: "3s"
            rate_limit_interval: "1s"
            rate_limit_burst: 2
            circuit_breaker_open_threshold: 7
            circuit_breaker_half_open_timeout: "2m"
            circuit_breaker_reset_failures_timeout: "30s"
        }
        store: {
            kind: bolt
            path: "/tmp/geolocator.db"
        }
        cache: {
            kind: redis
            redis_address: "127.0.0.1:6379"
            redis_db: 2
        }
        dns: {
            nameserver: "1.1.1.1"
            timeout: "1s"
        }
    }`))

	suite.NoError(err)
	suite.Equal(10, conf.GetWorkerPoolSize())

	keys := conf.GetAPIKeys()

	suite.Len(keys, 2)
	suite.True(keys[0].GetActive())
	suite.True(keys[0].GetExpiresAt().IsZero())
	suite.False(keys[1].GetActive())
	suite.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), keys[1].GetExpiresAt().UTC())

	suite.False(conf.Provider.GetSecure())
	suite.Equal(3*time.Second, conf.Provider.GetHTTPTimeout())
	suite.Equal(time.Second, conf.Provider.GetRateLimitInterval())
	suite.Equal(2, conf.Provider.GetRateLimitBurst())
	suite.EqualValues(7, conf.Provider.GetCircuitBreakerOpenThreshold())
	suite.Equal(2*time.Minute, conf.Provider.GetCircuitBreakerHalfOpenTimeout())
	suite.Equal(30*time.Second, conf.Provider.GetCircuitBreakerResetFailuresTimeout())

	suite.Equal(StoreKindBolt, conf.Store.GetKind())
	suite.Equal("/tmp/geolocator.db", conf.Store.GetPath())

	redisConf := conf.Cache.GetRedisConfig()

	suite.Equal(CacheKindRedis, conf.Cache.GetKind())
	suite.Equal("127.0.0.1:6379", redisConf.Address)
	suite.Equal(2, redisConf.DB)
	suite.Equal(DefaultRedisMaxIdle, redisConf.MaxIdle)
	suite.Equal(DefaultRedisDialTimeout, redisConf.DialTimeout)

	suite.Equal("1.1.1.1", conf.DNS.GetNameserver())
	suite.Equal(time.Second, conf.DNS.GetTimeout())
}

func (suite *ConfigTestSuite) TestAuthTokenFromEnv() {
	suite.T().Setenv("IPSTACK_API_KEY", "from-env")

	conf, err := parseConfig([]byte(`{"listen": ":8000", "provider": {"name": "ipstack"}}`))

	suite.NoError(err)
	suite.Equal("from-env", conf.Provider.GetAuthToken())
}

func (suite *ConfigTestSuite) TestIPInfoWithoutToken() {
	suite.T().Setenv("IPINFO_TOKEN", "")

	conf, err := parseConfig([]byte(`{"listen": ":8000", "provider": {"name": "ipinfo"}}`))

	suite.NoError(err)
	suite.Equal("", conf.Provider.GetAuthToken())
}

func (suite *ConfigTestSuite) TestIncorrect() {
	suite.T().Setenv("IPSTACK_API_KEY", "")
	suite.T().Setenv("IPINFO_TOKEN", "")
	suite.T().Setenv("DATABASE_URL", "")

	for _, v := range []string{
		`{`,
		`{"listen": "localhost", "provider": {"name": "ipstack", "auth_token": "x"}}`,
		`{"listen": ":8000", "provider": {"name": "unknown"}}`,
		`{"listen": ":8000", "provider": {"name": "ipstack"}}`,
		`{"listen": ":8000", "provider": {"name": "maxmind"}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x", "http_timeout": 10}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x", "http_timeout": "10 parsecs"}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "store": {"kind": "bolt"}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "store": {"kind": "postgres"}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "store": {"kind": "mongo"}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "cache": {"kind": "redis"}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "cache": {"kind": "memcached"}}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "api_keys": [{"key": ""}]}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "api_keys": [{"key": "a"}, {"key": "a"}]}`,
		`{"listen": ":8000", "provider": {"name": "ipinfo", "auth_token": "x"}, "api_keys": [{"key": "a", "expires_at": "tomorrow"}]}`,
	} {
		_, err := parseConfig([]byte(v))

		suite.Error(err, v)
	}
}

func TestConfig(t *testing.T) {
	suite.Run(t, &ConfigTestSuite{})
}

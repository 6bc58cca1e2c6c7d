package caches

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/gomodule/redigo/redis"
)

// MinRedisTTL is the minimum TTL that can be set for any key: Redis
// expires keys with millisecond precision.
const MinRedisTTL = time.Millisecond

type redisPool interface {
	GetContext(ctx context.Context) (redis.Conn, error)
}

// Redis is a cache which is backed by Redis. Keys are stored as is, so
// geolocation:<ip> entries can be inspected with redis-cli.
type Redis struct {
	pool redisPool
}

func (r *Redis) Get(ctx context.Context, key string) (val []byte, ok bool, err error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("cannot get a connection from pool: %w", err)
	}

	defer conn.Close()

	val, err = redis.Bytes(conn.Do("GET", key))

	switch {
	case err == nil:
		return val, true, nil
	case errors.Is(err, redis.ErrNil):
		return nil, false, nil
	}

	return nil, false, fmt.Errorf("cannot get %s: %w", key, err)
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < MinRedisTTL {
		ttl = MinRedisTTL
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("cannot get a connection from pool: %w", err)
	}

	defer conn.Close()

	if _, err := conn.Do("SET", key, value, "PX", ttl.Milliseconds()); err != nil {
		return fmt.Errorf("cannot set %s: %w", key, err)
	}

	return nil
}

// Delete removes a key. Absent key is not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("cannot get a connection from pool: %w", err)
	}

	defer conn.Close()

	if _, err := conn.Do("DEL", key); err != nil {
		return fmt.Errorf("cannot delete %s: %w", key, err)
	}

	return nil
}

func (r *Redis) Close() error {
	if closer, ok := r.pool.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// RedisConfig defines how to connect to Redis.
type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	MaxIdle     int
	MaxActive   int
	IdleTimeout time.Duration
	DialTimeout time.Duration
}

func NewRedis(conf RedisConfig) *Redis {
	dialOptions := []redis.DialOption{
		redis.DialDatabase(conf.DB),
		redis.DialConnectTimeout(conf.DialTimeout),
	}

	if conf.Password != "" {
		dialOptions = append(dialOptions, redis.DialPassword(conf.Password))
	}

	pool := &redis.Pool{
		MaxIdle:     conf.MaxIdle,
		MaxActive:   conf.MaxActive,
		IdleTimeout: conf.IdleTimeout,
		Wait:        true,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", conf.Address, dialOptions...)
		},
	}

	return &Redis{
		pool: pool,
	}
}

// type check
var _ geolib.Cache = (*Redis)(nil)

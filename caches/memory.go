package caches

import (
	"context"
	"fmt"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/dgraph-io/ristretto"
)

const DefaultMemoryItemsCount = 100000

type Memory struct {
	cache *ristretto.Cache
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}

	return value.([]byte), true, nil
}

// Set stores a value. Ristretto buffers writes so we wait until value
// is applied: otherwise an immediate Get could miss it.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if !m.cache.SetWithTTL(key, value, 1, ttl) {
		return fmt.Errorf("value for %s was dropped", key)
	}

	m.cache.Wait()

	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.cache.Del(key)

	return nil
}

func (m *Memory) Close() {
	m.cache.Close()
}

// NewMemory returns a new in-memory cache which keeps at most
// itemsCount entries.
func NewMemory(itemsCount uint) (*Memory, error) {
	if itemsCount == 0 {
		itemsCount = DefaultMemoryItemsCount
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		MaxCost:            int64(itemsCount),
		NumCounters:        10 * int64(itemsCount),
		Metrics:            false,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create a cache: %w", err)
	}

	return &Memory{
		cache: cache,
	}, nil
}

// type check
var _ geolib.Cache = (*Memory)(nil)

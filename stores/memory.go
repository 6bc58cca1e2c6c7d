package stores

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/9seconds/geolocator/geolib"
)

type Memory struct {
	mutex   sync.RWMutex
	records map[string]geolib.Record
}

func (m *Memory) Find(ctx context.Context, ip string) (*geolib.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	record, ok := m.records[ip]
	if !ok {
		return nil, fmt.Errorf("%w: %s", geolib.ErrNotFound, ip)
	}

	return &record, nil
}

func (m *Memory) Upsert(ctx context.Context, ip string, data geolib.Payload) (*geolib.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	record, ok := m.records[ip]
	if !ok {
		record.IP = ip
		record.CreatedAt = now
	}

	record.Data = data
	record.UpdatedAt = now
	m.records[ip] = record

	return &record, nil
}

func (m *Memory) Delete(ctx context.Context, ip string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.records[ip]; !ok {
		return fmt.Errorf("%w: %s", geolib.ErrNotFound, ip)
	}

	delete(m.records, ip)

	return nil
}

// Len returns a number of stored records.
func (m *Memory) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.records)
}

func NewMemory() *Memory {
	return &Memory{
		records: map[string]geolib.Record{},
	}
}

// type check
var _ geolib.Store = (*Memory)(nil)

package geolib_test

import (
	"context"
	"net"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/mock"
)

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) Name() string {
	return m.Called().String(0)
}

func (m *ProviderMock) Fetch(ctx context.Context, ip string) (geolib.Payload, error) {
	args := m.Called(ctx, ip)
	payload, _ := args.Get(0).(geolib.Payload)

	return payload, args.Error(1)
}

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Find(ctx context.Context, ip string) (*geolib.Record, error) {
	args := m.Called(ctx, ip)
	record, _ := args.Get(0).(*geolib.Record)

	return record, args.Error(1)
}

func (m *StoreMock) Upsert(ctx context.Context, ip string, data geolib.Payload) (*geolib.Record, error) {
	args := m.Called(ctx, ip, data)
	record, _ := args.Get(0).(*geolib.Record)

	return record, args.Error(1)
}

func (m *StoreMock) Delete(ctx context.Context, ip string) error {
	return m.Called(ctx, ip).Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)

	return value, args.Bool(1), args.Error(2)
}

func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *CacheMock) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	args := m.Called(ctx, host)
	addrs, _ := args.Get(0).([]net.IPAddr)

	return addrs, args.Error(1)
}

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) ProviderError(ip, name string, err error) {
	m.Called(ip, name, err)
}

func (m *LoggerMock) StoreError(ip string, err error) {
	m.Called(ip, err)
}

func (m *LoggerMock) CacheError(key string, err error) {
	m.Called(key, err)
}

func (m *LoggerMock) RequestDone(operation, ip string, outcome geolib.Outcome) {
	m.Called(operation, ip, outcome)
}

func (m *LoggerMock) AllowAll() {
	m.On("ProviderError", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("StoreError", mock.Anything, mock.Anything).Maybe()
	m.On("CacheError", mock.Anything, mock.Anything).Maybe()
	m.On("RequestDone", mock.Anything, mock.Anything, mock.Anything).Maybe()
}

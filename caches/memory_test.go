package caches_test

import (
	"context"
	"testing"
	"time"

	"github.com/9seconds/geolocator/caches"
	"github.com/stretchr/testify/suite"
)

type MemoryTestSuite struct {
	suite.Suite

	cache *caches.Memory
}

func (suite *MemoryTestSuite) SetupTest() {
	cache, err := caches.NewMemory(100)
	if err != nil {
		panic(err)
	}

	suite.cache = cache
}

func (suite *MemoryTestSuite) TearDownTest() {
	suite.cache.Close()
}

func (suite *MemoryTestSuite) TestMiss() {
	value, ok, err := suite.cache.Get(context.Background(), "geolocation:10.0.0.1")

	suite.NoError(err)
	suite.False(ok)
	suite.Nil(value)
}

func (suite *MemoryTestSuite) TestSetGet() {
	ctx := context.Background()

	suite.NoError(suite.cache.Set(ctx, "geolocation:10.0.0.1", []byte("data"), time.Hour))

	value, ok, err := suite.cache.Get(ctx, "geolocation:10.0.0.1")

	suite.NoError(err)
	suite.True(ok)
	suite.Equal([]byte("data"), value)
}

func (suite *MemoryTestSuite) TestDelete() {
	ctx := context.Background()

	suite.NoError(suite.cache.Set(ctx, "geolocation:10.0.0.1", []byte("data"), time.Hour))
	suite.NoError(suite.cache.Delete(ctx, "geolocation:10.0.0.1"))

	_, ok, err := suite.cache.Get(ctx, "geolocation:10.0.0.1")

	suite.NoError(err)
	suite.False(ok)
}

func (suite *MemoryTestSuite) TestDeleteAbsent() {
	suite.NoError(suite.cache.Delete(context.Background(), "geolocation:10.0.0.2"))
}

func (suite *MemoryTestSuite) TestExpired() {
	ctx := context.Background()

	suite.NoError(suite.cache.Set(ctx, "geolocation:10.0.0.1", []byte("data"), 10*time.Millisecond))

	suite.Eventually(func() bool {
		_, ok, _ := suite.cache.Get(ctx, "geolocation:10.0.0.1")

		return !ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestMemory(t *testing.T) {
	suite.Run(t, &MemoryTestSuite{})
}

package stores_test

import (
	"context"
	"errors"
	"sync"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite checks a contract of geolib.Store. Concrete suites
// have to set a store in SetupTest.
type StoreTestSuite struct {
	suite.Suite

	store geolib.Store
	ctx   context.Context
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
}

func (suite *StoreTestSuite) TestFindAbsent() {
	_, err := suite.store.Find(suite.ctx, "134.201.250.155")

	suite.True(errors.Is(err, geolib.ErrNotFound))
}

func (suite *StoreTestSuite) TestUpsertCreates() {
	record, err := suite.store.Upsert(suite.ctx, "134.201.250.155", geolib.Payload{
		"ip":   "134.201.250.155",
		"city": "Los Angeles",
	})

	suite.NoError(err)
	suite.Equal("134.201.250.155", record.IP)
	suite.Equal("Los Angeles", record.Data["city"])
	suite.False(record.CreatedAt.IsZero())

	found, err := suite.store.Find(suite.ctx, "134.201.250.155")

	suite.NoError(err)
	suite.Equal("134.201.250.155", found.IP)
	suite.Equal("Los Angeles", found.Data["city"])
}

func (suite *StoreTestSuite) TestUpsertOverwrites() {
	first, err := suite.store.Upsert(suite.ctx, "134.201.250.155", geolib.Payload{
		"ip":     "134.201.250.155",
		"city":   "Los Angeles",
		"region": "California",
	})
	suite.NoError(err)

	second, err := suite.store.Upsert(suite.ctx, "134.201.250.155", geolib.Payload{
		"ip":   "134.201.250.155",
		"city": "San Francisco",
	})
	suite.NoError(err)

	suite.True(first.CreatedAt.Equal(second.CreatedAt))
	suite.False(second.UpdatedAt.Before(first.UpdatedAt))

	found, err := suite.store.Find(suite.ctx, "134.201.250.155")

	suite.NoError(err)
	suite.Equal("San Francisco", found.Data["city"])
	suite.NotContains(found.Data, "region")
}

func (suite *StoreTestSuite) TestDelete() {
	_, err := suite.store.Upsert(suite.ctx, "134.201.250.155", geolib.Payload{"ip": "134.201.250.155"})
	suite.NoError(err)

	suite.NoError(suite.store.Delete(suite.ctx, "134.201.250.155"))

	_, err = suite.store.Find(suite.ctx, "134.201.250.155")

	suite.True(errors.Is(err, geolib.ErrNotFound))
}

func (suite *StoreTestSuite) TestDeleteAbsent() {
	err := suite.store.Delete(suite.ctx, "134.201.250.155")

	suite.True(errors.Is(err, geolib.ErrNotFound))
}

func (suite *StoreTestSuite) TestConcurrentUpserts() {
	wg := &sync.WaitGroup{}
	errs := make([]error, 20)

	for i := range errs {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			_, errs[idx] = suite.store.Upsert(suite.ctx, "93.184.216.34", geolib.Payload{
				"ip":      "93.184.216.34",
				"attempt": float64(idx),
			})
		}(i)
	}

	wg.Wait()

	for _, v := range errs {
		suite.NoError(v)
	}

	found, err := suite.store.Find(suite.ctx, "93.184.216.34")

	suite.NoError(err)
	suite.Contains(found.Data, "attempt")
	suite.NoError(suite.store.Delete(suite.ctx, "93.184.216.34"))

	_, err = suite.store.Find(suite.ctx, "93.184.216.34")

	suite.True(errors.Is(err, geolib.ErrNotFound))
}

package stores_test

import (
	"context"
	"os"
	"testing"

	"github.com/9seconds/geolocator/stores"
	"github.com/stretchr/testify/suite"
)

type IntegrationPostgresTestSuite struct {
	StoreTestSuite

	postgres *stores.Postgres
}

func (suite *IntegrationPostgresTestSuite) SetupTest() {
	suite.StoreTestSuite.SetupTest()

	postgres, err := stores.NewPostgres(context.Background(), os.Getenv("GEOLOCATOR_POSTGRES_DSN"))
	if err != nil {
		panic(err)
	}

	for _, v := range []string{"134.201.250.155", "93.184.216.34"} {
		postgres.Delete(context.Background(), v) // nolint: errcheck
	}

	suite.postgres = postgres
	suite.store = postgres
}

func (suite *IntegrationPostgresTestSuite) TearDownTest() {
	suite.postgres.Close()
}

func TestIntegrationPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipped because of the short mode")

		return
	}

	if os.Getenv("GEOLOCATOR_POSTGRES_DSN") == "" {
		t.Skip("Skipped because there is no GEOLOCATOR_POSTGRES_DSN in environment")

		return
	}

	suite.Run(t, &IntegrationPostgresTestSuite{})
}

package providers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/9seconds/geolocator/geolib"
	"github.com/9seconds/geolocator/providers"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"
)

type MockedIPInfoTestSuite struct {
	MockedProviderTestSuite

	prov geolib.Provider
}

func (suite *MockedIPInfoTestSuite) SetupTest() {
	suite.MockedProviderTestSuite.SetupTest()

	suite.prov = providers.NewIPInfo(suite.http, "token")
}

func (suite *MockedIPInfoTestSuite) TestName() {
	suite.Equal(providers.NameIPInfo, suite.prov.Name())
}

func (suite *MockedIPInfoTestSuite) TestFetchFailed() {
	httpmock.RegisterResponder("GET",
		"https://ipinfo.io/23.22.13.113",
		httpmock.NewStringResponder(http.StatusTooManyRequests, ""))

	_, err := suite.prov.Fetch(context.Background(), "23.22.13.113")

	suite.True(errors.Is(err, geolib.ErrProvider))
}

func (suite *MockedIPInfoTestSuite) TestFetchBadJSON() {
	httpmock.RegisterResponder("GET",
		"https://ipinfo.io/23.22.13.113",
		httpmock.NewStringResponder(http.StatusOK, "{["))

	_, err := suite.prov.Fetch(context.Background(), "23.22.13.113")

	suite.True(errors.Is(err, geolib.ErrProvider))
}

func (suite *MockedIPInfoTestSuite) TestFetchBogon() {
	httpmock.RegisterResponder("GET",
		"https://ipinfo.io/10.0.0.1",
		httpmock.NewStringResponder(http.StatusOK, `{"ip": "10.0.0.1", "bogon": true}`))

	payload, err := suite.prov.Fetch(context.Background(), "10.0.0.1")

	suite.NoError(err)
	suite.Nil(payload)
}

func (suite *MockedIPInfoTestSuite) TestFetchOK() {
	httpmock.RegisterResponder("GET",
		"https://ipinfo.io/23.22.13.113",
		func(req *http.Request) (*http.Response, error) {
			suite.Equal("Bearer token", req.Header.Get("Authorization"))

			return httpmock.NewStringResponse(http.StatusOK,
				`{"ip": "23.22.13.113", "city": "Ashburn", "country": "US"}`), nil
		})

	payload, err := suite.prov.Fetch(context.Background(), "23.22.13.113")

	suite.NoError(err)
	suite.Equal("23.22.13.113", payload.IP())
	suite.Equal("Ashburn", payload["city"])
	suite.Equal("US", payload["country"])
}

func TestIPInfo(t *testing.T) {
	suite.Run(t, &MockedIPInfoTestSuite{})
}

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type APIKeyMiddlewareTestSuite struct {
	suite.Suite

	now  time.Time
	h    http.Handler
	resp *httptest.ResponseRecorder
}

func (suite *APIKeyMiddlewareTestSuite) SetupTest() {
	active := true
	inactive := false

	suite.now = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	suite.resp = httptest.NewRecorder()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	suite.h = newAPIKeyMiddleware(handler, []configAPIKey{
		{Key: "valid"},
		{Key: "active", Active: &active},
		{Key: "inactive", Active: &inactive},
		{Key: "expired", ExpiresAt: &timestamp{Time: suite.now.Add(-time.Hour)}},
		{Key: "not-expired", ExpiresAt: &timestamp{Time: suite.now.Add(time.Hour)}},
	})
	suite.h.(*apiKeyMiddleware).now = func() time.Time {
		return suite.now
	}
}

func (suite *APIKeyMiddlewareTestSuite) Do(key string) int {
	suite.resp = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/geolocations/provide", nil)

	if key != "" {
		req.Header.Set("X-Api-Key", key)
	}

	suite.h.ServeHTTP(suite.resp, req)

	return suite.resp.Code
}

func (suite *APIKeyMiddlewareTestSuite) TestAllowed() {
	suite.Equal(http.StatusTeapot, suite.Do("valid"))
	suite.Equal(http.StatusTeapot, suite.Do("active"))
	suite.Equal(http.StatusTeapot, suite.Do("not-expired"))
}

func (suite *APIKeyMiddlewareTestSuite) TestRejected() {
	for _, v := range []string{"", "unknown", "inactive", "expired", "VALID"} {
		suite.Equal(http.StatusUnauthorized, suite.Do(v), v)
		suite.JSONEq(`{"error": "Unauthorized"}`, suite.resp.Body.String())
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	suite.Run(t, &APIKeyMiddlewareTestSuite{})
}

func TestAPIKeyMiddlewareDisabled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	resp := httptest.NewRecorder()

	newAPIKeyMiddleware(handler, nil).ServeHTTP(resp, httptest.NewRequest("GET", "/", nil))

	if resp.Code != http.StatusTeapot {
		t.Fatalf("unexpected status code %d", resp.Code)
	}
}

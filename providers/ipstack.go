package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/9seconds/geolocator/geolib"
)

const ipstackHost = "api.ipstack.com"

type ipstackProvider struct {
	client     geolib.HTTPClient
	httpScheme string
	authToken  string
}

func (i ipstackProvider) Name() string {
	return NameIPStack
}

func (i ipstackProvider) Fetch(ctx context.Context, ip string) (geolib.Payload, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.buildURL(ip), nil)
	if err != nil {
		return nil, providerError(NameIPStack, fmt.Errorf("cannot build a request: %w", err))
	}

	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, providerError(NameIPStack, fmt.Errorf("cannot send a request: %w", err))
	}

	defer flushResponse(resp.Body)

	payload, err := decodePayload(resp)
	if err != nil {
		return nil, providerError(NameIPStack, err)
	}

	// ipstack responds with 200 even if request has failed.
	if failed, ok := payload["error"].(map[string]interface{}); ok {
		return nil, providerError(NameIPStack, fmt.Errorf(
			"failed response: code=%v, type=%v, info=%v",
			failed["code"],
			failed["type"],
			failed["info"]))
	}

	return payload, nil
}

func (i ipstackProvider) buildURL(ip string) string {
	getQuery := url.Values{}

	getQuery.Set("access_key", i.authToken)

	u := url.URL{
		Scheme:   i.httpScheme,
		Host:     ipstackHost,
		Path:     "/" + ip,
		RawQuery: getQuery.Encode(),
	}

	return u.String()
}

// NewIPStack returns a provider for ipstack.com. Free plan of ipstack
// does not support HTTPS so isSecure is optional.
func NewIPStack(client geolib.HTTPClient, authToken string, isSecure bool) (geolib.Provider, error) {
	scheme := "http"

	if isSecure {
		scheme = "https"
	}

	if authToken == "" {
		return nil, ErrAuthTokenIsRequired
	}

	return ipstackProvider{
		client:     client,
		authToken:  authToken,
		httpScheme: scheme,
	}, nil
}

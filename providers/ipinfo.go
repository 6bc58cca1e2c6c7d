package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/9seconds/geolocator/geolib"
)

type ipinfoProvider struct {
	authToken string
	client    geolib.HTTPClient
}

func (i ipinfoProvider) Name() string {
	return NameIPInfo
}

func (i ipinfoProvider) Fetch(ctx context.Context, ip string) (geolib.Payload, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipinfo.io/"+ip, nil)
	if err != nil {
		return nil, providerError(NameIPInfo, fmt.Errorf("cannot build a request: %w", err))
	}

	req.Header.Set("Accept", "application/json")

	if i.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+i.authToken)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, providerError(NameIPInfo, fmt.Errorf("cannot send a request: %w", err))
	}

	defer flushResponse(resp.Body)

	payload, err := decodePayload(resp)
	if err != nil {
		return nil, providerError(NameIPInfo, err)
	}

	// bogon addresses have no geolocation at all.
	if bogon, _ := payload["bogon"].(bool); bogon {
		return nil, nil
	}

	return payload, nil
}

// NewIPInfo returns a provider for ipinfo.io. Token is optional: ipinfo
// works without it but with quite strict rate limits.
func NewIPInfo(client geolib.HTTPClient, authToken string) geolib.Provider {
	return ipinfoProvider{
		authToken: authToken,
		client:    client,
	}
}

package providers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/9seconds/geolocator/geolib"
)

func flushResponse(resp io.ReadCloser) {
	io.Copy(io.Discard, resp) // nolint: errcheck
	resp.Close()
}

func decodePayload(resp *http.Response) (geolib.Payload, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	payload := geolib.Payload{}
	jsonDecoder := json.NewDecoder(bufio.NewReader(resp.Body))

	if err := jsonDecoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("cannot parse a response: %w", err)
	}

	return payload, nil
}

func providerError(name string, err error) error {
	return &geolib.ProviderError{
		Provider: name,
		Err:      err,
	}
}

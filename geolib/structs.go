package geolib

import (
	"strings"
	"time"
)

// Payload is a structured response of the provider. Its schema is
// opaque to the Geolocator except for the "ip" field.
type Payload map[string]interface{}

// IP returns an IP address reported by a provider.
func (p Payload) IP() string {
	if v, ok := p["ip"].(string); ok {
		return strings.TrimSpace(v)
	}

	return ""
}

// Empty tells if there is nothing to store.
func (p Payload) Empty() bool {
	return len(p) == 0
}

// Record is a persisted geolocation data for a single IP address.
type Record struct {
	IP        string    `json:"ip"`
	Data      Payload   `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Request carries raw identifiers of the host to geolocate. At least one
// of them has to be present.
type Request struct {
	IPAddress string `json:"ip_address"`
	URL       string `json:"url"`
}

// Outcome shows how Geolocator has got a record.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeFound
	OutcomeCreated
	OutcomeDeleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeCreated:
		return "created"
	case OutcomeDeleted:
		return "deleted"
	}

	return "failed"
}

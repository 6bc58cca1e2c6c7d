// Package resolvers contains implementations of geolib.HostResolver
// which do not rely on a system resolver.
package resolvers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/miekg/dns"
)

const DefaultTimeout = 5 * time.Second

var ErrNoAddresses = errors.New("no addresses")

// DNS asks a given nameserver directly for A and AAAA records. It is
// useful when a service should resolve hostnames in the same way
// regardless of /etc/resolv.conf of the host.
type DNS struct {
	client     *dns.Client
	nameserver string
}

func (d *DNS) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}

	fqdn := dns.Fqdn(host)
	rv := []net.IPAddr{}

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addrs, err := d.exchange(ctx, fqdn, qtype)
		if err != nil {
			return nil, err
		}

		rv = append(rv, addrs...)
	}

	if len(rv) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoAddresses, host)
	}

	return rv, nil
}

func (d *DNS) exchange(ctx context.Context, fqdn string, qtype uint16) ([]net.IPAddr, error) {
	req := &dns.Msg{}

	req.SetQuestion(fqdn, qtype)
	req.RecursionDesired = true

	resp, _, err := d.client.ExchangeContext(ctx, req, d.nameserver)
	if err != nil {
		return nil, fmt.Errorf("cannot query %s for %s: %w", d.nameserver, fqdn, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, fmt.Errorf("%w for %s: %s", ErrNoAddresses, fqdn, dns.RcodeToString[resp.Rcode])
	default:
		return nil, fmt.Errorf("nameserver has responded with %s", dns.RcodeToString[resp.Rcode])
	}

	rv := make([]net.IPAddr, 0, len(resp.Answer))

	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *dns.A:
			rv = append(rv, net.IPAddr{IP: record.A})
		case *dns.AAAA:
			rv = append(rv, net.IPAddr{IP: record.AAAA})
		}
	}

	return rv, nil
}

// NewDNS returns a resolver which sends queries to nameserver. Port 53
// is used if nameserver has no port.
func NewDNS(nameserver string, timeout time.Duration) *DNS {
	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &DNS{
		client: &dns.Client{
			Net:     "udp",
			Timeout: timeout,
		},
		nameserver: nameserver,
	}
}

// type check
var _ geolib.HostResolver = (*DNS)(nil)

package geolib

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// IdentifierResolver derives a canonical IP address from a Request.
//
// Explicit ip_address is authoritative: if it is given, url is not even
// parsed. Otherwise a hostname of the url is resolved with DNS. The only
// side effect is this DNS lookup.
type IdentifierResolver struct {
	resolver HostResolver
}

func (i IdentifierResolver) Resolve(ctx context.Context, req Request) (string, error) {
	ipAddress := strings.TrimSpace(req.IPAddress)
	rawURL := strings.TrimSpace(req.URL)

	switch {
	case ipAddress != "":
		return canonicalIP(ipAddress)
	case rawURL == "":
		return "", ErrMissingIdentifier
	}

	host, err := hostFromURL(rawURL)
	if err != nil {
		return "", err
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	addrs, err := i.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", fmt.Errorf("%w %s: %v", ErrUnresolvableHost, host, err)
	}

	if ip := pickAddress(addrs); ip != nil {
		return ip.String(), nil
	}

	return "", fmt.Errorf("%w %s: no addresses", ErrUnresolvableHost, host)
}

func canonicalIP(value string) (string, error) {
	ip := net.ParseIP(value)
	if ip == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIPAddress, value)
	}

	return ip.String(), nil
}

func hostFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", ErrInvalidURL
	}

	host := parsed.Hostname()
	if host == "" {
		return "", ErrInvalidURL
	}

	return host, nil
}

// pickAddress prefers IPv4 addresses, the same way as most of system
// resolvers do.
func pickAddress(addrs []net.IPAddr) net.IP {
	var fallback net.IP

	for _, v := range addrs {
		if v.IP == nil {
			continue
		}

		if v.IP.To4() != nil {
			return v.IP
		}

		if fallback == nil {
			fallback = v.IP
		}
	}

	return fallback
}

// NewIdentifierResolver returns a new resolver. If resolver is nil,
// net.DefaultResolver is used.
func NewIdentifierResolver(resolver HostResolver) IdentifierResolver {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	return IdentifierResolver{
		resolver: resolver,
	}
}

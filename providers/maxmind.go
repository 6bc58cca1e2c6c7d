package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/oschwald/maxminddb-golang"
)

// MaxmindProvider reads geolocation data from a local mmdb file. It
// returns the whole database record as a payload.
//
// A database file can be replaced while provider is running: Reload
// reopens it if a checksum of the file has changed.
type MaxmindProvider struct {
	path     string
	checksum string
	reader   *maxminddb.Reader
	rwmutex  sync.RWMutex
}

func (m *MaxmindProvider) Name() string {
	return NameMaxmind
}

func (m *MaxmindProvider) Fetch(ctx context.Context, ip string) (geolib.Payload, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, providerError(NameMaxmind, err)
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, providerError(NameMaxmind, fmt.Errorf("%w: %s", ErrIncorrectIP, ip))
	}

	payload := geolib.Payload{}

	m.rwmutex.RLock()
	_, ok, err := m.reader.LookupNetwork(parsed, &payload)
	m.rwmutex.RUnlock()

	switch {
	case err != nil:
		return nil, providerError(NameMaxmind, fmt.Errorf("cannot lookup database: %w", err))
	case !ok:
		return nil, nil
	}

	return payload, nil
}

// Reload reopens a database if its file has changed. It returns true if
// a new database is in use.
func (m *MaxmindProvider) Reload() (bool, error) {
	checksum, err := fileChecksum(m.path)
	if err != nil {
		return false, err
	}

	m.rwmutex.RLock()
	unchanged := checksum == m.checksum
	m.rwmutex.RUnlock()

	if unchanged {
		return false, nil
	}

	reader, err := maxminddb.Open(m.path)
	if err != nil {
		return false, fmt.Errorf("cannot open maxmind database: %w", err)
	}

	m.rwmutex.Lock()
	oldReader := m.reader
	m.reader = reader
	m.checksum = checksum
	m.rwmutex.Unlock()

	if oldReader != nil {
		oldReader.Close() // nolint: errcheck
	}

	return true, nil
}

// Watch calls Reload periodically until context is closed.
func (m *MaxmindProvider) Watch(ctx context.Context, every time.Duration, onReload func(bool, error)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reloaded, err := m.Reload()
			onReload(reloaded, err)
		}
	}
}

func (m *MaxmindProvider) Close() error {
	m.rwmutex.Lock()
	defer m.rwmutex.Unlock()

	if m.reader == nil {
		return nil
	}

	return m.reader.Close()
}

func fileChecksum(path string) (string, error) {
	fp, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open a file %s: %w", path, err)
	}

	defer fp.Close()

	hasher := sha256.New()

	if _, err := io.Copy(hasher, fp); err != nil {
		return "", fmt.Errorf("cannot calculate a checksum of %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func NewMaxmind(path string) (*MaxmindProvider, error) {
	if path == "" {
		return nil, ErrDatabasePathIsRequired
	}

	rv := &MaxmindProvider{
		path: path,
	}

	if _, err := rv.Reload(); err != nil {
		return nil, err
	}

	return rv, nil
}

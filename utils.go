package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/9seconds/geolocator/caches"
	"github.com/9seconds/geolocator/geolib"
	"github.com/9seconds/geolocator/providers"
	"github.com/9seconds/geolocator/resolvers"
	"github.com/9seconds/geolocator/stores"
	"github.com/rs/zerolog"
)

type closeFunc func()

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

func makeProvider(ctx context.Context, conf configProvider, log zerolog.Logger) (geolib.Provider, closeFunc, error) {
	switch conf.GetName() {
	case providers.NameIPStack:
		prov, err := providers.NewIPStack(makeNewHTTPClient(conf), conf.GetAuthToken(), conf.GetSecure())
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create ipstack provider: %w", err)
		}

		return prov, func() {}, nil
	case providers.NameIPInfo:
		return providers.NewIPInfo(makeNewHTTPClient(conf), conf.GetAuthToken()), func() {}, nil
	case providers.NameMaxmind:
		prov, err := providers.NewMaxmind(conf.GetDatabasePath())
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create maxmind provider: %w", err)
		}

		if every := conf.GetReloadEvery(); every > 0 {
			go prov.Watch(ctx, every, func(reloaded bool, err error) {
				switch {
				case err != nil:
					log.Error().Err(err).Msg("Cannot reload maxmind database")
				case reloaded:
					log.Info().Msg("Maxmind database has been reloaded")
				}
			})
		}

		return prov, closeQuietly(prov), nil
	}

	return nil, nil, fmt.Errorf("unsupported provider name: %s", conf.GetName())
}

func makeStore(ctx context.Context, conf configStore) (geolib.Store, closeFunc, error) {
	switch conf.GetKind() {
	case StoreKindMemory:
		return stores.NewMemory(), func() {}, nil
	case StoreKindBolt:
		store, err := stores.NewBolt(conf.GetPath())
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open bolt store: %w", err)
		}

		return store, closeQuietly(store), nil
	case StoreKindPostgres:
		store, err := stores.NewPostgres(ctx, conf.GetDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("cannot connect to postgres store: %w", err)
		}

		return store, store.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported store kind: %s", conf.GetKind())
}

func makeCache(conf configCache) (geolib.Cache, closeFunc, error) {
	switch conf.GetKind() {
	case CacheKindMemory:
		cache, err := caches.NewMemory(conf.GetItemsCount())
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create memory cache: %w", err)
		}

		return cache, cache.Close, nil
	case CacheKindRedis:
		cache := caches.NewRedis(conf.GetRedisConfig())

		return cache, closeQuietly(cache), nil
	}

	return nil, nil, fmt.Errorf("unsupported cache kind: %s", conf.GetKind())
}

// makeResolver returns nil if no nameserver is set: geolib falls back
// to a system resolver then.
func makeResolver(conf configDNS) geolib.HostResolver {
	if conf.GetNameserver() == "" {
		return nil
	}

	return resolvers.NewDNS(conf.GetNameserver(), conf.GetTimeout())
}

func makeNewHTTPClient(conf configProvider) geolib.HTTPClient {
	httpClient := &http.Client{
		Timeout: conf.GetHTTPTimeout(),
	}

	return geolib.NewHTTPClient(httpClient,
		"geolocator/"+version,
		conf.GetRateLimitInterval(),
		conf.GetRateLimitBurst(),
		conf.GetCircuitBreakerOpenThreshold(),
		conf.GetCircuitBreakerHalfOpenTimeout(),
		conf.GetCircuitBreakerResetFailuresTimeout())
}

func closeQuietly(closer io.Closer) closeFunc {
	return func() {
		closer.Close() // nolint: errcheck
	}
}

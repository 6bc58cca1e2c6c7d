package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	version = "0.1.0"

	shutdownTimeout = 10 * time.Second
)

var (
	app = kingpin.New(
		"geolocator",
		"Geolocation service which keeps provider data in a store and a cache")

	debug = app.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("GEOLOCATOR_DEBUG").
		Bool()
	configFile = app.Arg("config-path", "Path to the config.").
			Required().
			File()
)

func main() {
	app.Version(version)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	log := zerolog.New(os.Stderr).With().Timestamp().Str("event_name", "main").Logger()

	content, err := io.ReadAll(*configFile)
	(*configFile).Close()

	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read config file")
	}

	conf, err := parseConfig(content)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot parse config file")
	}

	if err := run(log, conf); err != nil {
		log.Fatal().Err(err).Msg("Geolocator has failed")
	}
}

// run owns every resource opened during startup: all of them are
// closed on return, including an initialization failure.
func run(log zerolog.Logger, conf *config) error {
	ctx, cancel := makeRootContext()
	defer cancel()

	provider, closeProvider, err := makeProvider(ctx, conf.Provider, log)
	if err != nil {
		return fmt.Errorf("cannot initialize provider: %w", err)
	}
	defer closeProvider()

	store, closeStore, err := makeStore(ctx, conf.Store)
	if err != nil {
		return fmt.Errorf("cannot initialize store: %w", err)
	}
	defer closeStore()

	cache, closeCache, err := makeCache(conf.Cache)
	if err != nil {
		return fmt.Errorf("cannot initialize cache: %w", err)
	}
	defer closeCache()

	geo, err := geolib.NewGeolocator(geolib.Opts{
		Provider:       provider,
		Store:          store,
		Cache:          cache,
		Resolver:       makeResolver(conf.DNS),
		Logger:         newLogger(os.Stderr, *debug),
		WorkerPoolSize: conf.GetWorkerPoolSize(),
	})
	if err != nil {
		return fmt.Errorf("cannot initialize geolocator: %w", err)
	}
	defer geo.Shutdown()

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", newAPIKeyMiddleware(geo, conf.GetAPIKeys()))

	srv := &http.Server{
		Addr:              conf.GetListen(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)

	go func() {
		log.Info().
			Str("listen", conf.GetListen()).
			Str("provider", provider.Name()).
			Str("store", conf.Store.GetKind()).
			Str("cache", conf.Cache.GetKind()).
			Msg("Start geolocator")

		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		serveErr <- err

		cancel()
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Cannot gracefully shutdown a server")
	}

	if err := <-serveErr; err != nil {
		return fmt.Errorf("server has been stopped: %w", err)
	}

	log.Info().Msg("Geolocator has been stopped")

	return nil
}

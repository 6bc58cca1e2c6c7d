package main

import (
	"io"

	"github.com/9seconds/geolocator/geolib"
	"github.com/rs/zerolog"
)

type logger struct {
	providerLog zerolog.Logger
	storeLog    zerolog.Logger
	cacheLog    zerolog.Logger
	requestLog  zerolog.Logger
}

func (l *logger) ProviderError(ip, name string, err error) {
	l.providerLog.Error().Str("provider", name).Str("ip", ip).Err(err).Msg("")
}

func (l *logger) StoreError(ip string, err error) {
	l.storeLog.Error().Str("ip", ip).Err(err).Msg("")
}

func (l *logger) CacheError(key string, err error) {
	l.cacheLog.Warn().Str("key", key).Err(err).Msg("")
}

func (l *logger) RequestDone(operation, ip string, outcome geolib.Outcome) {
	event := l.requestLog.Debug()
	if outcome == geolib.OutcomeFailed {
		event = l.requestLog.Info()
	}

	event.Str("operation", operation).Str("ip", ip).Stringer("outcome", outcome).Msg("")
}

func newLogger(writer io.Writer, debug bool) *logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	makeLogger := func(name string) zerolog.Logger {
		return zerolog.New(writer).
			Level(level).
			With().
			Timestamp().
			Str("event_name", name).
			Logger()
	}

	return &logger{
		providerLog: makeLogger("provider"),
		storeLog:    makeLogger("store"),
		cacheLog:    makeLogger("cache"),
		requestLog:  makeLogger("request"),
	}
}

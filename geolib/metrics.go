package geolib

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolocator",
		Name:      "requests_total",
		Help:      "The number of processed geolocation operations.",
	}, []string{"operation", "outcome"})

	metricCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolocator",
		Name:      "cache_lookups_total",
		Help:      "The number of cache lookups by result: hit, miss or error.",
	}, []string{"result"})

	metricProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geolocator",
		Name:      "provider_fetch_duration_seconds",
		Help:      "Time spent fetching data from the provider.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
)

// Geolocator is a service which returns geolocation data for a given IP
// address or URL.
//
// Data comes from an external provider (ipstack, ipinfo or a local
// MaxMind database) and is kept in a durable store. A cache is put in
// front of the store, so repeated lookups reach neither the store nor
// the provider.
//
// Tool itself is organized into several packages:
//
// Geolib
//
// geolib is a main package of the application. It has Geolocator
// struct which composes a provider, a store and a cache into submit,
// provide and delete operations. Geolocator can act as http.Handler.
//
// Providers, Stores, Caches, Resolvers
//
// These packages have implementations of geolib interfaces: providers
// for ipstack, ipinfo and MaxMind, stores backed by memory, bbolt or
// PostgreSQL, caches backed by ristretto or Redis and a DNS resolver.
//
// Geolocator
//
// A main package itself wires everything according to a config file
// and starts an HTTP server.
package main

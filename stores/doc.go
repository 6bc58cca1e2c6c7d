// Package stores contains durable implementations of geolib.Store.
//
// Each store keeps at most one record per IP address. Bolt is an
// embedded database which is good enough for a single instance.
// Postgres should be used if many instances share the same data. Memory
// store is not durable at all and is intended for tests and
// experiments.
package stores

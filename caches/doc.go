// Package caches contains implementations of geolib.Cache.
//
// Memory cache is local to the process and is backed by ristretto. Redis
// cache is shared between instances, so a cache entry written by one
// instance is visible to another one.
package caches

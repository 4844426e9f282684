// Package cache provides a generic, thread-safe LRU cache with optional TTL.
//
// The navigation resolver uses it to remember rides fetched from the REST
// backend for a short time, so repeated taps on the same notification do not
// refetch.
//
//	rides := cache.NewLRUCache[string, api.Ride](128,
//	    cache.WithTTL[string, api.Ride](time.Minute),
//	)
//	rides.Put("42", ride)
//	if r, ok := rides.Get("42"); ok {
//	    // fresh hit
//	}
package cache

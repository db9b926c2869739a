// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import "github.com/jcodagnone/geofix/curation/utils"

type cacheKey struct {
	provider string
	query    string
}

// Cache memoizes provider answers for the duration of a run. A cached nil
// result is a definitive miss. Not safe for concurrent use.
type Cache struct {
	entries map[cacheKey]*GeocodingResult

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*GeocodingResult)}
}

// Get returns the cached answer of provider for query, and whether there was one.
func (c *Cache) Get(provider, query string) (*GeocodingResult, bool) {
	r, ok := c.entries[cacheKey{provider, utils.NormalizeQuery(query)}]
	if ok {
		c.hits++
	} else {
		c.misses++
	}

	return r, ok
}

// Put stores the answer of provider for query. r may be nil.
func (c *Cache) Put(provider, query string, r *GeocodingResult) {
	c.entries[cacheKey{provider, utils.NormalizeQuery(query)}] = r
}

// Len returns the number of cached answers.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns the number of hits and misses.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

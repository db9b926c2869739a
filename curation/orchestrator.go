// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/geofix/curation/utils"
	"golang.org/x/time/rate"
)

const (
	// DefaultAcceptThreshold is the confidence the primary provider must
	// exceed for its answer to be taken.
	DefaultAcceptThreshold = 0.3
	// DefaultRequestDelay is the minimum spacing between two network calls.
	DefaultRequestDelay = time.Second
)

// Pacer is consulted before every network call.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a pacer allowing one call every delay.
func NewPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	return rate.NewLimiter(rate.Every(delay), 1)
}

// OrchestratorMetrics tracks provider usage during a run.
type OrchestratorMetrics struct {
	Calls     map[string]int
	Errors    map[string]int
	CacheHits int
	Resolved  int
	Missed    int
}

// Merge combines two OrchestratorMetrics.
func (m *OrchestratorMetrics) Merge(o *OrchestratorMetrics) *OrchestratorMetrics {
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}

	if m.Errors == nil {
		m.Errors = make(map[string]int)
	}

	for k, v := range o.Calls {
		m.Calls[k] += v
	}

	for k, v := range o.Errors {
		m.Errors[k] += v
	}

	m.CacheHits += o.CacheHits
	m.Resolved += o.Resolved
	m.Missed += o.Missed

	return m
}

// Orchestrator resolves a place to a position trying query variants against
// a primary and a fallback provider, in that fixed order.
type Orchestrator struct {
	primary   Geocoder
	fallback  Geocoder
	cache     *Cache
	pacer     Pacer
	threshold float64
	city      string
	logger    *log.Logger

	Metrics OrchestratorMetrics
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	// Threshold defaults to DefaultAcceptThreshold.
	Threshold float64
	// City is used by the "{name}, {city}" variant.
	City string
	// Pacer defaults to NewPacer(DefaultRequestDelay).
	Pacer Pacer
	// Cache defaults to an empty cache.
	Cache *Cache
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// NewOrchestrator creates an Orchestrator. fallback may be nil.
func NewOrchestrator(primary, fallback Geocoder, opts OrchestratorOptions) *Orchestrator {
	o := &Orchestrator{
		primary:   primary,
		fallback:  fallback,
		cache:     opts.Cache,
		pacer:     opts.Pacer,
		threshold: opts.Threshold,
		city:      opts.City,
		logger:    opts.Logger,
		Metrics:   OrchestratorMetrics{Calls: map[string]int{}, Errors: map[string]int{}},
	}

	if o.cache == nil {
		o.cache = NewCache()
	}

	if o.pacer == nil {
		o.pacer = NewPacer(DefaultRequestDelay)
	}

	if o.threshold == 0 {
		o.threshold = DefaultAcceptThreshold
	}

	if o.logger == nil {
		o.logger = log.Default()
	}

	return o
}

// Variants returns the queries tried for a place, most specific first.
// Empty and repeated variants are dropped.
func Variants(name, address, city string) []string {
	name = utils.NormalizeQuery(name)
	address = utils.NormalizeQuery(address)

	var candidates []string
	if name != "" && address != "" {
		candidates = append(candidates, name+", "+address)
	}

	candidates = append(candidates, address)

	if name != "" && city != "" {
		candidates = append(candidates, name+", "+city)
	}

	candidates = append(candidates, utils.StripStreetNumber(address))

	ret := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}

		seen[c] = true
		ret = append(ret, c)
	}

	return ret
}

// Resolve returns the first accepted answer for the place, or nil when no
// provider knows it. The only error is the cancellation of ctx.
func (o *Orchestrator) Resolve(ctx context.Context, name, address string) (*GeocodingResult, error) {
	for _, query := range Variants(name, address, o.city) {
		r, err := o.query(ctx, o.primary, query)
		if err != nil {
			return nil, err
		}

		if r != nil && r.Confidence > o.threshold {
			o.Metrics.Resolved++

			return r, nil
		}

		if o.fallback == nil {
			continue
		}

		r, err = o.query(ctx, o.fallback, query)
		if err != nil {
			return nil, err
		}

		if r != nil {
			o.Metrics.Resolved++

			return r, nil
		}
	}

	o.Metrics.Missed++

	return nil, nil
}

// query asks g through the cache. Provider failures are logged and reported
// as no result.
func (o *Orchestrator) query(ctx context.Context, g Geocoder, query string) (*GeocodingResult, error) {
	if r, ok := o.cache.Get(g.Name(), query); ok {
		o.Metrics.CacheHits++

		return r, nil
	}

	if err := o.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", g.Name(), err)
	}

	o.Metrics.Calls[g.Name()]++

	r, err := g.Geocode(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		o.Metrics.Errors[g.Name()]++
		o.logger.Printf("⚠️  %s %q: %v", g.Name(), query, err)

		var geoErr *GeocodingError
		if errors.As(err, &geoErr) && geoErr.Type == ErrorTypeNotFound {
			o.cache.Put(g.Name(), query, nil)
		}

		return nil, nil
	}

	o.cache.Put(g.Name(), query, r)

	return r, nil
}

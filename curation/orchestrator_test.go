// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/geofix/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGeocoder answers from a map of canned responses and records the
// queries it receives.
type scriptedGeocoder struct {
	name    string
	answers map[string]*GeocodingResult
	errs    map[string]error
	queries []string
}

func (g *scriptedGeocoder) Name() string { return g.name }

func (g *scriptedGeocoder) Geocode(_ context.Context, query string) (*GeocodingResult, error) {
	g.queries = append(g.queries, query)

	if err, ok := g.errs[query]; ok {
		return nil, err
	}

	if r, ok := g.answers[query]; ok {
		// a copy, like a fresh decode would be
		c := *r

		return &c, nil
	}

	return nil, nil
}

// everyQuery answers result for any query.
type everyQuery struct {
	scriptedGeocoder
	result GeocodingResult
}

func (g *everyQuery) Geocode(_ context.Context, query string) (*GeocodingResult, error) {
	g.queries = append(g.queries, query)
	c := g.result

	return &c, nil
}

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++

	return ctx.Err()
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestOrchestrator(primary, fallback Geocoder, pacer Pacer) *Orchestrator {
	return NewOrchestrator(primary, fallback, OrchestratorOptions{
		City:   "Paris",
		Pacer:  pacer,
		Logger: quietLogger(),
	})
}

func TestVariants(t *testing.T) {
	tests := []struct {
		name    string
		place   string
		address string
		want    []string
	}{
		{
			name:    "full",
			place:   "Le Grand Véfour",
			address: "17 Rue de Beaujolais, 75001 Paris",
			want: []string{
				"Le Grand Véfour, 17 Rue de Beaujolais, 75001 Paris",
				"17 Rue de Beaujolais, 75001 Paris",
				"Le Grand Véfour, Paris",
				"Rue de Beaujolais, 75001 Paris",
			},
		},
		{
			name:    "no street number",
			place:   "Tour Eiffel",
			address: "Champ de Mars, 75007 Paris",
			want: []string{
				"Tour Eiffel, Champ de Mars, 75007 Paris",
				"Champ de Mars, 75007 Paris",
				"Tour Eiffel, Paris",
			},
		},
		{
			name:  "no address",
			place: "Louvre",
			want:  []string{"Louvre, Paris"},
		},
		{
			name:    "whitespace",
			place:   "  Café  de Flore ",
			address: " 172 Bd Saint-Germain ",
			want: []string{
				"Café de Flore, 172 Bd Saint-Germain",
				"172 Bd Saint-Germain",
				"Café de Flore, Paris",
				"Bd Saint-Germain",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Variants(tt.place, tt.address, "Paris")); diff != "" {
				t.Errorf("Variants() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolvePrimaryAccepted(t *testing.T) {
	eiffel := &GeocodingResult{Point: spatial.Point{Lat: 48.8584, Lng: 2.2945}, Confidence: 0.8, Provider: NominatimName}
	primary := &scriptedGeocoder{
		name:    NominatimName,
		answers: map[string]*GeocodingResult{"Tour Eiffel, Champ de Mars, 75007 Paris": eiffel},
	}
	fallback := &scriptedGeocoder{name: PhotonName}
	pacer := &countingPacer{}

	o := newTestOrchestrator(primary, fallback, pacer)

	r, err := o.Resolve(context.Background(), "Tour Eiffel", "Champ de Mars, 75007 Paris")
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, eiffel.Point, r.Point)
	assert.Equal(t, NominatimName, r.Provider)
	assert.Empty(t, fallback.queries, "fallback must not be called")
	assert.Equal(t, 1, pacer.waits)
}

func TestResolveFallback(t *testing.T) {
	primary := &everyQuery{
		scriptedGeocoder: scriptedGeocoder{name: NominatimName},
		result:           GeocodingResult{Point: spatial.Point{Lat: 48.85, Lng: 2.35}, Confidence: 0.1, Provider: NominatimName},
	}
	photon := &GeocodingResult{Point: spatial.Point{Lat: 48.8584, Lng: 2.2945}, Confidence: 0.7, Provider: PhotonName}
	fallback := &scriptedGeocoder{
		name:    PhotonName,
		answers: map[string]*GeocodingResult{"Tour Eiffel, Champ de Mars, 75007 Paris": photon},
	}
	pacer := &countingPacer{}

	o := newTestOrchestrator(primary, fallback, pacer)

	r, err := o.Resolve(context.Background(), "Tour Eiffel", "Champ de Mars, 75007 Paris")
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, PhotonName, r.Provider)
	assert.Equal(t, photon.Point, r.Point)
	assert.Equal(t, []string{"Tour Eiffel, Champ de Mars, 75007 Paris"}, primary.queries)
	assert.Equal(t, 2, pacer.waits)
}

func TestResolveThresholdIsExclusive(t *testing.T) {
	primary := &everyQuery{
		scriptedGeocoder: scriptedGeocoder{name: NominatimName},
		result:           GeocodingResult{Confidence: DefaultAcceptThreshold, Provider: NominatimName},
	}
	fallback := &scriptedGeocoder{name: PhotonName}

	o := newTestOrchestrator(primary, fallback, &countingPacer{})

	r, err := o.Resolve(context.Background(), "Louvre", "")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, []string{"Louvre, Paris"}, fallback.queries)
}

func TestResolveUnresolved(t *testing.T) {
	primary := &scriptedGeocoder{
		name: NominatimName,
		errs: map[string]error{"17 Rue de Beaujolais, 75001 Paris": ClassifyHTTPError(503, NominatimName)},
	}
	fallback := &scriptedGeocoder{name: PhotonName}
	pacer := &countingPacer{}

	o := newTestOrchestrator(primary, fallback, pacer)

	r, err := o.Resolve(context.Background(), "Le Grand Véfour", "17 Rue de Beaujolais, 75001 Paris")
	require.NoError(t, err)
	assert.Nil(t, r)

	// four variants, two providers each
	assert.Len(t, primary.queries, 4)
	assert.Len(t, fallback.queries, 4)
	assert.Equal(t, 8, pacer.waits)
	assert.Equal(t, 1, o.Metrics.Errors[NominatimName])
	assert.Equal(t, 1, o.Metrics.Missed)

	// variant order is also the call order
	if diff := cmp.Diff(Variants("Le Grand Véfour", "17 Rue de Beaujolais, 75001 Paris", "Paris"), primary.queries); diff != "" {
		t.Errorf("query order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveCache(t *testing.T) {
	primary := &scriptedGeocoder{
		name: NominatimName,
		errs: map[string]error{"Louvre, Paris": errors.New("connection reset")},
	}
	fallback := &scriptedGeocoder{name: PhotonName}
	pacer := &countingPacer{}
	cache := NewCache()

	o := NewOrchestrator(primary, fallback, OrchestratorOptions{
		City:   "Paris",
		Pacer:  pacer,
		Cache:  cache,
		Logger: quietLogger(),
	})

	for range 2 {
		r, err := o.Resolve(context.Background(), "Louvre", "")
		require.NoError(t, err)
		assert.Nil(t, r)
	}

	// the transport error is retried, the fallback miss is not
	assert.Len(t, primary.queries, 2)
	assert.Len(t, fallback.queries, 1)
	assert.Equal(t, 3, pacer.waits)
	assert.Equal(t, 1, o.Metrics.CacheHits)
	assert.Equal(t, 1, cache.Len())
}

func TestResolveCacheHitSkipsPacer(t *testing.T) {
	louvre := &GeocodingResult{Point: spatial.Point{Lat: 48.8606, Lng: 2.3376}, Confidence: 0.9, Provider: NominatimName}
	primary := &scriptedGeocoder{name: NominatimName, answers: map[string]*GeocodingResult{"Louvre, Paris": louvre}}
	pacer := &countingPacer{}

	o := newTestOrchestrator(primary, nil, pacer)

	for range 3 {
		r, err := o.Resolve(context.Background(), "Louvre", "  ")
		require.NoError(t, err)
		require.NotNil(t, r)
	}

	assert.Len(t, primary.queries, 1)
	assert.Equal(t, 1, pacer.waits)
}

func TestResolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(&scriptedGeocoder{name: NominatimName}, nil, &countingPacer{})

	_, err := o.Resolve(ctx, "Louvre", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPacer(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)

	start := time.Now()

	for range 3 {
		require.NoError(t, p.Wait(context.Background()))
	}

	// the first call is free
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)

	unlimited := NewPacer(0)
	for range 100 {
		require.NoError(t, unlimited.Wait(context.Background()))
	}
}

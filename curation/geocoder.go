// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"

	"github.com/jcodagnone/geofix/spatial"
)

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Point       spatial.Point
	Confidence  float64 // 0..1
	Provider    string
	DisplayName string
	Type        string
}

// Geocoder interface for different geocoding providers.
//
// Geocode returns (nil, nil) when the provider has no in-region answer for
// the query. Errors are soft failures, usually a *GeocodingError.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, query string) (*GeocodingResult, error)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

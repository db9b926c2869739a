// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadius = 6371e3 // meters

// Point represents a geographical point with latitude and longitude.
//
// On the wire a Point is the catalog's 2-element array [lat, lng].
type Point struct {
	Lat float64
	Lng float64
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("[%s, %s]", FormatDegrees(p.Lat), FormatDegrees(p.Lng))
}

// Key returns the "{lat},{lng}" form used to compare positions as text.
func (p Point) Key() string {
	return FormatDegrees(p.Lat) + "," + FormatDegrees(p.Lng)
}

// IsFinite reports whether both components are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// MarshalJSON implements json.Marshaler.
func (p Point) MarshalJSON() ([]byte, error) {
	if !p.IsFinite() {
		return nil, errors.New("spatial: cannot encode non finite point")
	}

	return json.Marshal([2]float64{p.Lat, p.Lng})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Point) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("spatial: invalid point: %w", err)
	}

	if len(v) != 2 {
		return fmt.Errorf("spatial: invalid point: expected 2 elements, got %d", len(v))
	}

	p.Lat, p.Lng = v[0], v[1]

	return nil
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Distance returns the great-circle distance in meters between two coordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	a, b := Point{Lat: lat1, Lng: lng1}, Point{Lat: lat2, Lng: lng2}

	return a.HaversineDistance(&b)
}

// FormatDegrees prints a coordinate component in its shortest decimal form.
func FormatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Precision returns the number of decimal digits of the most precise component.
func (p Point) Precision() int {
	return max(decimals(p.Lat), decimals(p.Lng))
}

func decimals(v float64) int {
	s := FormatDegrees(v)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}

	return 0
}

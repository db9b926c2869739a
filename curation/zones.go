// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/jcodagnone/geofix/curation/utils"
	"github.com/jcodagnone/geofix/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Zone is an administrative zone represented by its center.
type Zone struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Center spatial.Point `json:"center"`
}

// ZoneIndex finds the nearest zone of a position.
type ZoneIndex struct {
	zones []Zone
}

// parisArrondissements holds the approximate center of each arrondissement.
var parisArrondissements = []spatial.Point{
	{Lat: 48.8607, Lng: 2.3358}, // 1er
	{Lat: 48.8686, Lng: 2.3428},
	{Lat: 48.8630, Lng: 2.3601},
	{Lat: 48.8543, Lng: 2.3576},
	{Lat: 48.8445, Lng: 2.3497},
	{Lat: 48.8491, Lng: 2.3328},
	{Lat: 48.8566, Lng: 2.3098},
	{Lat: 48.8738, Lng: 2.3095},
	{Lat: 48.8771, Lng: 2.3375},
	{Lat: 48.8761, Lng: 2.3607},
	{Lat: 48.8591, Lng: 2.3799},
	{Lat: 48.8396, Lng: 2.3958},
	{Lat: 48.8283, Lng: 2.3623},
	{Lat: 48.8292, Lng: 2.3266},
	{Lat: 48.8401, Lng: 2.2929},
	{Lat: 48.8604, Lng: 2.2620},
	{Lat: 48.8838, Lng: 2.3128},
	{Lat: 48.8925, Lng: 2.3484},
	{Lat: 48.8871, Lng: 2.3848},
	{Lat: 48.8634, Lng: 2.4011}, // 20ème
}

// ParisZones returns the index of the 20 Paris arrondissements.
func ParisZones() *ZoneIndex {
	zones := make([]Zone, len(parisArrondissements))
	for i, c := range parisArrondissements {
		zones[i] = Zone{
			ID:     strconv.Itoa(i + 1),
			Name:   utils.ZoneLabel(i + 1),
			Center: c,
		}
	}

	return &ZoneIndex{zones: zones}
}

// NewZoneIndex creates an index over zones.
func NewZoneIndex(zones []Zone) *ZoneIndex {
	return &ZoneIndex{zones: slices.Clone(zones)}
}

// LoadZones reads zone centers from a GeoJSON FeatureCollection of points.
// Each feature needs an "id" property; "name" defaults to the id.
func LoadZones(path string) (*ZoneIndex, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("reading zones file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing zones GeoJSON: %w", err)
	}

	zones := make([]Zone, 0, len(fc.Features))

	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("zone feature %d: geometry is not a point", i)
		}

		id := featureID(f)
		if id == "" {
			return nil, fmt.Errorf("zone feature %d: missing id", i)
		}

		zones = append(zones, Zone{
			ID:     id,
			Name:   f.Properties.MustString("name", id),
			Center: spatial.Point{Lat: pt.Lat(), Lng: pt.Lon()},
		})
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("zones file %s has no features", path)
	}

	return &ZoneIndex{zones: zones}, nil
}

// ids are strings or numbers, in the properties or on the feature itself.
func featureID(f *geojson.Feature) string {
	for _, v := range []any{f.Properties["id"], f.ID} {
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}

	return ""
}

// Len returns the number of zones.
func (z *ZoneIndex) Len() int {
	return len(z.zones)
}

// Nearest returns the zone whose center is the closest to p, and the
// distance to it in meters.
func (z *ZoneIndex) Nearest(p spatial.Point) (Zone, float64, bool) {
	var (
		best  Zone
		found bool
	)

	bestDistance := math.Inf(1)

	for _, zone := range z.zones {
		if d := zone.Center.HaversineDistance(&p); d < bestDistance {
			best, bestDistance, found = zone, d, true
		}
	}

	return best, bestDistance, found
}

// Lookup returns the zone designated by id, a label or a number.
func (z *ZoneIndex) Lookup(id string) (Zone, bool) {
	for _, zone := range z.zones {
		if zone.ID == id || utils.SameZone(zone.ID, id) {
			return zone, true
		}
	}

	return Zone{}, false
}

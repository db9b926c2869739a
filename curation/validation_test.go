// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"errors"
	"testing"

	"github.com/jcodagnone/geofix/catalog"
	"github.com/jcodagnone/geofix/spatial"
	"github.com/stretchr/testify/assert"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr error
	}{
		{name: "notre dame", lat: 48.853, lon: 2.3499},
		{name: "north boundary", lat: 48.902, lon: 2.3},
		{name: "latitude too high", lat: 91.0, lon: 2.3, wantErr: errOutsideGlobe},
		{name: "latitude too low", lat: -91.0, lon: 2.3, wantErr: errOutsideGlobe},
		{name: "longitude too high", lat: 48.86, lon: 181.0, wantErr: errOutsideGlobe},
		{name: "longitude too low", lat: 48.86, lon: -181.0, wantErr: errOutsideGlobe},
		{name: "null island", lat: 0, lon: 0, wantErr: errNullIsland},
		{name: "versailles", lat: 48.8049, lon: 2.1204, wantErr: errOutsideRegion},
		{name: "swapped", lat: 2.35, lon: 48.86, wantErr: errOutsideRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCoordinates(spatial.Point{Lat: tt.lat, Lng: tt.lon}, spatial.Paris)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSuspicious(t *testing.T) {
	assert.True(t, suspicious(spatial.Point{}))
	assert.True(t, suspicious(spatial.Point{Lat: 95, Lng: 2}))
	assert.False(t, suspicious(spatial.Point{Lat: 43.29, Lng: 5.37}))
	assert.False(t, suspicious(spatial.Point{Lat: 48.86, Lng: 2.35}))
}

func pt(lat, lng float64) *spatial.Point {
	return &spatial.Point{Lat: lat, Lng: lng}
}

func TestFindDuplicates(t *testing.T) {
	places := []catalog.Place{
		{ID: "1", Category: "c", Index: 0, Coordinates: pt(48.86, 2.35)},
		{ID: "2", Category: "c", Index: 1, Coordinates: pt(48.86, 2.35)},
		{ID: "3", Category: "c", Index: 2, Coordinates: pt(48.87, 2.30)},
	}

	groups := FindDuplicates(places)
	if assert.Len(t, groups, 1) {
		assert.Equal(t, "48.86,2.35", groups[0].Key)
		assert.Equal(t, 2, groups[0].Count)
		assert.Equal(t, "1", groups[0].Places[0].ID)
		assert.Equal(t, "2", groups[0].Places[1].ID)
	}
}

func TestFindDuplicatesOrder(t *testing.T) {
	places := []catalog.Place{
		{ID: "a", Coordinates: pt(48.87, 2.30)},
		{ID: "b", Coordinates: pt(48.86, 2.35)},
		{ID: "c"},
		{ID: "d", Coordinates: pt(48.86, 2.35)},
		{ID: "e", Coordinates: pt(48.87, 2.30)},
		{ID: "f"},
		{ID: "g", Coordinates: pt(48.87, 2.30)},
	}

	groups := FindDuplicates(places)
	if assert.Len(t, groups, 2) {
		assert.Equal(t, "48.87,2.3", groups[0].Key)
		assert.Equal(t, 3, groups[0].Count)
		assert.Equal(t, "48.86,2.35", groups[1].Key)
	}

	assert.Empty(t, FindDuplicates(nil))
}

func TestFindDuplicatesInUnit(t *testing.T) {
	u, err := catalog.Parse("1.json", []byte(`{"arrondissement": {"id": 1, "center": [48.8607, 2.3358], "categories": {
		"bars": {"places": [
			{"name": "a", "coordinates": [48.8607, 2.3358]},
			{"name": "b", "coordinates": [48.8607, 2.3358]},
			{"name": "c", "coordinates": [48.86, 2.35]},
			{"name": "d", "coordinates": [48.86, 2.35]}
		]}
	}}}`))
	if !assert.NoError(t, err) {
		return
	}

	groups := FindDuplicatesInUnit(u)
	if assert.Len(t, groups, 2) {
		assert.True(t, groups[0].ZoneCenter)
		assert.False(t, groups[1].ZoneCenter)
	}
}

func TestClassify(t *testing.T) {
	places := []catalog.Place{
		{Name: "dup out of region", Category: "a", Index: 0, Coordinates: pt(43.29, 5.37)},
		{Name: "dup 2", Category: "a", Index: 1, Coordinates: pt(43.29, 5.37)},
		{Name: "ok", Category: "a", Index: 2, Coordinates: pt(48.86, 2.35)},
		{Name: "missing", Category: "b", Index: 0},
		{Name: "malformed", Category: "b", Index: 1, Malformed: true},
		{Name: "marseille", Category: "b", Index: 2, Coordinates: pt(43.3, 5.4)},
		{Name: "null island", Category: "b", Index: 3, Coordinates: pt(0, 0)},
	}

	got := Classify(places, FindDuplicates(places), spatial.Paris)

	want := []struct {
		name   string
		reason CandidateReason
	}{
		{"dup out of region", ReasonDuplicate},
		{"dup 2", ReasonDuplicate},
		{"missing", ReasonMissing},
		{"malformed", ReasonMalformed},
		{"marseille", ReasonOutOfRegion},
		{"null island", ReasonOutOfRegion},
	}

	if assert.Len(t, got, len(want)) {
		for i, w := range want {
			assert.Equal(t, w.name, got[i].Place.Name)
			assert.Equal(t, w.reason, got[i].Reason, w.name)
		}
	}
}

func TestClassifySameIndexOtherCategory(t *testing.T) {
	places := []catalog.Place{
		{Name: "x", Category: "a", Index: 0, Coordinates: pt(48.86, 2.35)},
		{Name: "y", Category: "b", Index: 0, Coordinates: pt(48.86, 2.35)},
		{Name: "z", Category: "c", Index: 0, Coordinates: pt(48.87, 2.33)},
	}

	got := Classify(places, FindDuplicates(places), spatial.Paris)
	assert.Len(t, got, 2)
}

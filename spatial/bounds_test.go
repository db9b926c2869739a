// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundsContains(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{name: "notre dame", lat: 48.8530, lng: 2.3499, want: true},
		{name: "north edge", lat: 48.902, lng: 2.3, want: true},
		{name: "south edge", lat: 48.815, lng: 2.3, want: true},
		{name: "east edge", lat: 48.86, lng: 2.469, want: true},
		{name: "west edge", lat: 48.86, lng: 2.224, want: true},
		{name: "corner", lat: 48.815, lng: 2.224, want: true},
		{name: "north of", lat: 48.9021, lng: 2.3, want: false},
		{name: "south of", lat: 48.8149, lng: 2.3, want: false},
		{name: "east of", lat: 48.86, lng: 2.4691, want: false},
		{name: "west of", lat: 48.86, lng: 2.2239, want: false},
		{name: "null island", lat: 0, lng: 0, want: false},
		{name: "swapped lat lng", lat: 2.35, lng: 48.86, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paris.Contains(tt.lat, tt.lng))
			assert.Equal(t, tt.want, Paris.ContainsPoint(Point{Lat: tt.lat, Lng: tt.lng}))
		})
	}
}

func TestBoundsEdges(t *testing.T) {
	b := NewBounds(48.902, 48.815, 2.469, 2.224)
	assert.InDelta(t, 48.902, b.North(), 1e-12)
	assert.InDelta(t, 48.815, b.South(), 1e-12)
	assert.InDelta(t, 2.469, b.East(), 1e-12)
	assert.InDelta(t, 2.224, b.West(), 1e-12)
	assert.Equal(t, "2.224,48.902,2.469,48.815", b.Viewbox())
	assert.Equal(t, "2.224,48.815,2.469,48.902", b.BBox())
}

// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Paris is the envelope of the city of Paris used by default.
var Paris = NewBounds(48.902, 48.815, 2.469, 2.224)

// Bounds is a latitude/longitude envelope. Edges are inclusive.
type Bounds struct {
	bound orb.Bound
}

// NewBounds creates a Bounds from its four edges.
func NewBounds(north, south, east, west float64) Bounds {
	return Bounds{
		bound: orb.Bound{
			Min: orb.Point{west, south},
			Max: orb.Point{east, north},
		},
	}
}

// North returns the northern edge.
func (b Bounds) North() float64 { return b.bound.Max.Lat() }

// South returns the southern edge.
func (b Bounds) South() float64 { return b.bound.Min.Lat() }

// East returns the eastern edge.
func (b Bounds) East() float64 { return b.bound.Max.Lon() }

// West returns the western edge.
func (b Bounds) West() float64 { return b.bound.Min.Lon() }

// Contains reports whether lat, lng is inside the envelope.
func (b Bounds) Contains(lat, lng float64) bool {
	return b.bound.Contains(orb.Point{lng, lat})
}

// ContainsPoint is Contains for a Point.
func (b Bounds) ContainsPoint(p Point) bool {
	return b.Contains(p.Lat, p.Lng)
}

// Viewbox formats the envelope as "west,north,east,south" (Nominatim).
func (b Bounds) Viewbox() string {
	return fmt.Sprintf("%s,%s,%s,%s",
		FormatDegrees(b.West()), FormatDegrees(b.North()),
		FormatDegrees(b.East()), FormatDegrees(b.South()))
}

// BBox formats the envelope as "west,south,east,north" (Photon).
func (b Bounds) BBox() string {
	return fmt.Sprintf("%s,%s,%s,%s",
		FormatDegrees(b.West()), FormatDegrees(b.South()),
		FormatDegrees(b.East()), FormatDegrees(b.North()))
}

// String returns a "S..N / W..E" representation.
func (b Bounds) String() string {
	return fmt.Sprintf("lat %s..%s, lng %s..%s",
		FormatDegrees(b.South()), FormatDegrees(b.North()),
		FormatDegrees(b.West()), FormatDegrees(b.East()))
}

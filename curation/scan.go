// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"github.com/jcodagnone/geofix/catalog"
	"github.com/jcodagnone/geofix/spatial"
)

// Analysis is what a scan finds in a unit. Nothing is geocoded.
type Analysis struct {
	File        string           `json:"file"`
	Zone        string           `json:"zone,omitempty"`
	Total       int              `json:"total_places"`
	Missing     []catalog.Place  `json:"missing"`
	Malformed   []catalog.Place  `json:"malformed"`
	OutOfRegion []catalog.Place  `json:"out_of_region"`
	Suspicious  []catalog.Place  `json:"suspicious"`
	Duplicates  []DuplicateGroup `json:"duplicates"`
	// ZoneCenters are the duplicate groups placed on the zone center, the
	// placeholder left when a place was never geocoded.
	ZoneCenters []DuplicateGroup `json:"zone_centers"`
}

// Candidates returns the number of places a run would try to geocode.
func (a *Analysis) Candidates() int {
	n := len(a.Missing) + len(a.Malformed)

	seen := make(map[placeRef]bool)
	for _, g := range a.Duplicates {
		for i := range g.Places {
			seen[refOf(&g.Places[i])] = true
		}
	}

	n += len(seen)

	for i := range a.OutOfRegion {
		if !seen[refOf(&a.OutOfRegion[i])] {
			n++
		}
	}

	return n
}

// Scan analyzes the positions of u against bounds.
func Scan(u *catalog.Unit, bounds spatial.Bounds) *Analysis {
	places := u.Places()
	a := &Analysis{
		File:       u.Name,
		Zone:       u.Zone,
		Total:      len(places),
		Duplicates: FindDuplicatesInUnit(u),
	}

	for _, p := range places {
		switch {
		case p.Malformed:
			a.Malformed = append(a.Malformed, p)
		case p.Coordinates == nil:
			a.Missing = append(a.Missing, p)
		default:
			if suspicious(*p.Coordinates) {
				a.Suspicious = append(a.Suspicious, p)
			}

			if !bounds.ContainsPoint(*p.Coordinates) {
				a.OutOfRegion = append(a.OutOfRegion, p)
			}
		}
	}

	for _, g := range a.Duplicates {
		if g.ZoneCenter {
			a.ZoneCenters = append(a.ZoneCenters, g)
		}
	}

	return a
}

// ScanSummary adds up the analyses of several units.
type ScanSummary struct {
	Files       int `json:"files"`
	Total       int `json:"total_places"`
	Missing     int `json:"missing"`
	Malformed   int `json:"malformed"`
	OutOfRegion int `json:"out_of_region"`
	Suspicious  int `json:"suspicious"`
	Duplicates  int `json:"duplicate_groups"`
	ZoneCenters int `json:"zone_center_groups"`
	Candidates  int `json:"candidates"`
}

// Add accumulates a into s.
func (s *ScanSummary) Add(a *Analysis) *ScanSummary {
	s.Files++
	s.Total += a.Total
	s.Missing += len(a.Missing)
	s.Malformed += len(a.Malformed)
	s.OutOfRegion += len(a.OutOfRegion)
	s.Suspicious += len(a.Suspicious)
	s.Duplicates += len(a.Duplicates)
	s.ZoneCenters += len(a.ZoneCenters)
	s.Candidates += a.Candidates()

	return s
}

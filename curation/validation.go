// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"errors"
	"fmt"

	"github.com/jcodagnone/geofix/catalog"
	"github.com/jcodagnone/geofix/spatial"
)

var (
	errNullIsland     = errors.New("null island (0, 0)")
	errOutsideGlobe   = errors.New("outside the globe")
	errOutsideRegion  = errors.New("outside the region")
	errNotFiniteValue = errors.New("not a finite number")
)

// validateCoordinates checks a position against the globe and the region.
func validateCoordinates(p spatial.Point, bounds spatial.Bounds) error {
	if !p.IsFinite() {
		return errNotFiniteValue
	}

	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: %s", errOutsideGlobe, p)
	}

	if p.Lat == 0 && p.Lng == 0 {
		return errNullIsland
	}

	if !bounds.ContainsPoint(p) {
		return fmt.Errorf("%w %s: %s", errOutsideRegion, bounds, p)
	}

	return nil
}

// suspicious reports positions that can't be a real place anywhere.
func suspicious(p spatial.Point) bool {
	err := validateCoordinates(p, spatial.Bounds{})

	return err != nil && !errors.Is(err, errOutsideRegion)
}

// CandidateReason tells why a place needs geocoding.
type CandidateReason string

const (
	ReasonDuplicate   CandidateReason = "duplicate"
	ReasonMissing     CandidateReason = "missing"
	ReasonMalformed   CandidateReason = "malformed"
	ReasonOutOfRegion CandidateReason = "out_of_region"
)

// Candidate is a place selected for geocoding.
type Candidate struct {
	Place  catalog.Place
	Reason CandidateReason
}

type placeRef struct {
	category string
	index    int
}

func refOf(p *catalog.Place) placeRef {
	return placeRef{p.Category, p.Index}
}

// Classify selects the places needing geocoding, in catalog order. A member
// of a duplicate group is reported as such even if its position is also out
// of region.
func Classify(places []catalog.Place, duplicates []DuplicateGroup, bounds spatial.Bounds) []Candidate {
	members := make(map[placeRef]bool)

	for _, g := range duplicates {
		for i := range g.Places {
			members[refOf(&g.Places[i])] = true
		}
	}

	var ret []Candidate

	for _, p := range places {
		var reason CandidateReason

		switch {
		case members[refOf(&p)]:
			reason = ReasonDuplicate
		case p.Malformed:
			reason = ReasonMalformed
		case p.Coordinates == nil:
			reason = ReasonMissing
		case validateCoordinates(*p.Coordinates, bounds) != nil:
			reason = ReasonOutOfRegion
		default:
			continue
		}

		ret = append(ret, Candidate{Place: p, Reason: reason})
	}

	return ret
}

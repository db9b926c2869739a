// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"github.com/jcodagnone/geofix/catalog"
)

// DuplicateGroup is a set of places sharing the exact same coordinates, a
// sign that they were never geocoded.
type DuplicateGroup struct {
	Key    string          `json:"coordinates"`
	Count  int             `json:"count"`
	Places []catalog.Place `json:"places"`
	// ZoneCenter is set when the shared position is the declared center of
	// the unit's zone.
	ZoneCenter bool `json:"zone_center,omitempty"`
}

// FindDuplicates groups places by their coordinate key. Only groups of two
// or more places are returned, in the order their key is first seen.
// Places without coordinates are ignored.
func FindDuplicates(places []catalog.Place) []DuplicateGroup {
	index := make(map[string]int)

	var groups []DuplicateGroup

	for _, p := range places {
		if p.Coordinates == nil {
			continue
		}

		key := p.Coordinates.Key()

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DuplicateGroup{Key: key})
		}

		groups[i].Places = append(groups[i].Places, p)
		groups[i].Count++
	}

	ret := groups[:0]

	for _, g := range groups {
		if g.Count >= 2 {
			ret = append(ret, g)
		}
	}

	return ret
}

// FindDuplicatesInUnit is FindDuplicates over every place of u, flagging the
// groups sitting on the zone center.
func FindDuplicatesInUnit(u *catalog.Unit) []DuplicateGroup {
	groups := FindDuplicates(u.Places())

	if u.Center != nil {
		center := u.Center.Key()
		for i := range groups {
			groups[i].ZoneCenter = groups[i].Key == center
		}
	}

	return groups
}

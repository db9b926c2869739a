// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jcodagnone/geofix/spatial"
)

const (
	knownFixDefaultSource     = "manual"
	knownFixDefaultConfidence = 1.0
)

// KnownFix is a correction decided ahead of time for a place, by name.
// Either Coordinates or Address is set; an address is geocoded when applied.
type KnownFix struct {
	Name        string         `json:"name" validate:"required"`
	Coordinates *spatial.Point `json:"coordinates,omitempty"`
	Address     string         `json:"address,omitempty" validate:"required_without=Coordinates"`
	Source      string         `json:"source,omitempty"`
	Confidence  *float64       `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// SourceOrDefault returns the source to record for a precomputed fix.
func (f *KnownFix) SourceOrDefault() string {
	if f.Source != "" {
		return f.Source
	}

	return knownFixDefaultSource
}

// ConfidenceOrDefault returns the confidence to record for a precomputed fix.
func (f *KnownFix) ConfidenceOrDefault() float64 {
	if f.Confidence != nil {
		return *f.Confidence
	}

	return knownFixDefaultConfidence
}

// KnownFixes represents the known fixes file.
type KnownFixes struct {
	Version     string     `json:"version"`
	LastUpdated time.Time  `json:"last_updated"`
	Fixes       []KnownFix `json:"fixes" validate:"dive"`

	byName map[string]int
}

// NewKnownFixes indexes fixes by place name. A later fix for the same name
// replaces an earlier one.
func NewKnownFixes(fixes []KnownFix) *KnownFixes {
	k := &KnownFixes{Version: "1.0", Fixes: fixes}
	k.index()

	return k
}

func (k *KnownFixes) index() {
	k.byName = make(map[string]int, len(k.Fixes))
	for i, f := range k.Fixes {
		k.byName[f.Name] = i
	}
}

// Len returns the number of distinct places with a fix.
func (k *KnownFixes) Len() int {
	return len(k.byName)
}

// Lookup returns the fix for a place name.
func (k *KnownFixes) Lookup(name string) (*KnownFix, bool) {
	i, ok := k.byName[name]
	if !ok {
		return nil, false
	}

	return &k.Fixes[i], true
}

// LoadKnownFixes reads a known fixes file.
func LoadKnownFixes(path string) (*KnownFixes, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("reading known fixes: %w", err)
	}

	var k KnownFixes
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parsing known fixes: %w", err)
	}

	if err := validate.Struct(&k); err != nil {
		return nil, fmt.Errorf("validating known fixes %s: %w", path, err)
	}

	k.index()

	return &k, nil
}

// Save writes the fixes to path.
func (k *KnownFixes) Save(path string, now time.Time) error {
	out := *k
	out.LastUpdated = now

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling known fixes: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing known fixes: %w", err)
	}

	return nil
}

func confidence(v float64) *float64 {
	return &v
}

// DefaultKnownFixes returns the fixes used when no file is configured.
func DefaultKnownFixes() *KnownFixes {
	return NewKnownFixes([]KnownFix{
		{
			Name:        "Tour Eiffel",
			Coordinates: &spatial.Point{Lat: 48.858260, Lng: 2.294501},
			Source:      PhotonName,
			Confidence:  confidence(0.70),
		},
		{
			Name:        "Musée du Louvre",
			Coordinates: &spatial.Point{Lat: 48.862513, Lng: 2.335930},
			Source:      NominatimName,
			Confidence:  confidence(0.47),
		},
		{
			Name:        "Église de la Madeleine",
			Coordinates: &spatial.Point{Lat: 48.870137, Lng: 2.324562},
			Source:      NominatimName,
			Confidence:  confidence(0.51),
		},
		{Name: "Square Marcel-Pagnol", Address: "Square Marcel-Pagnol, 75008 Paris"},
		{Name: "Palais-Royal", Address: "Place du Palais-Royal, 75001 Paris"},
		{Name: "Le Grand Véfour", Address: "17 Rue de Beaujolais, 75001 Paris"},
	})
}

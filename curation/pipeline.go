// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jcodagnone/geofix/catalog"
	"github.com/jcodagnone/geofix/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ReasonKnownFix marks corrections coming from the known fixes file.
const ReasonKnownFix CandidateReason = "known_fix"

// CorrectionRecord is the audit trail of one applied correction.
type CorrectionRecord struct {
	File           string          `json:"file"`
	Zone           string          `json:"zone,omitempty"`
	Category       string          `json:"category"`
	ID             string          `json:"id,omitempty"`
	Place          string          `json:"place"`
	Reason         CandidateReason `json:"reason"`
	OldCoordinates *spatial.Point  `json:"oldCoordinates"`
	NewCoordinates spatial.Point   `json:"newCoordinates"`
	Source         string          `json:"source"`
	Confidence     float64         `json:"confidence"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Outcome is the result of running the pipeline over a unit.
type Outcome struct {
	// Unit is the corrected unit. It is the input unit if nothing changed.
	Unit       *catalog.Unit
	Fixed      []CorrectionRecord
	Failed     []catalog.Place
	Duplicates []DuplicateGroup
	Changes    []catalog.Change
}

// Resolver finds the position of a place.
type Resolver interface {
	Resolve(ctx context.Context, name, address string) (*GeocodingResult, error)
}

// Pipeline selects the places of a unit needing a position, resolves them
// one at a time and builds the corrected unit.
type Pipeline struct {
	resolver Resolver
	bounds   spatial.Bounds
	now      func() time.Time
	logger   *log.Logger
	progress bool
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Bounds spatial.Bounds
	// Now defaults to time.Now.
	Now func() time.Time
	// Logger defaults to log.Default().
	Logger *log.Logger
	// Progress shows a progress bar when stderr is a terminal.
	Progress bool
}

// NewPipeline creates a Pipeline.
func NewPipeline(resolver Resolver, opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		resolver: resolver,
		bounds:   opts.Bounds,
		now:      opts.Now,
		logger:   opts.Logger,
		progress: opts.Progress,
	}

	if p.now == nil {
		p.now = time.Now
	}

	if p.logger == nil {
		p.logger = log.Default()
	}

	return p
}

func (p *Pipeline) newBar(n int, description string) *progressbar.ProgressBar {
	if !p.progress || n == 0 || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}

	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// Run corrects the duplicated, missing, malformed and out of region
// positions of u. Candidates are resolved sequentially, in catalog order.
// Unresolved candidates are not errors, they end up in Outcome.Failed.
func (p *Pipeline) Run(ctx context.Context, u *catalog.Unit) (*Outcome, error) {
	places := u.Places()
	out := &Outcome{Duplicates: FindDuplicatesInUnit(u)}
	candidates := Classify(places, out.Duplicates, p.bounds)

	if len(candidates) == 0 {
		out.Unit = u

		return out, nil
	}

	p.logger.Printf("🔍 %s: %d candidates (%d duplicate groups)", u.Name, len(candidates), len(out.Duplicates))

	bar := p.newBar(len(candidates), "Geocoding "+u.Name)

	for _, c := range candidates {
		if bar == nil {
			p.logger.Printf("🔍 %s [%s] (%s)", c.Place.Name, c.Place.Category, c.Reason)
		}

		r, err := p.resolver.Resolve(ctx, c.Place.Name, c.Place.Address)
		if err != nil {
			return nil, fmt.Errorf("resolving %q of %s: %w", c.Place.Name, u.Name, err)
		}

		p.record(out, u, c, r)

		if bar != nil {
			if err := bar.Add(1); err != nil {
				p.logger.Printf("updating progress bar: %v", err)
			}
		}
	}

	return p.finish(out, u)
}

// ApplyKnown applies the known fixes matching the places of u by name.
// Fixes with an address are geocoded.
func (p *Pipeline) ApplyKnown(ctx context.Context, u *catalog.Unit, fixes *KnownFixes) (*Outcome, error) {
	out := &Outcome{}

	for _, place := range u.Places() {
		fix, ok := fixes.Lookup(place.Name)
		if !ok {
			continue
		}

		c := Candidate{Place: place, Reason: ReasonKnownFix}

		if fix.Coordinates != nil {
			p.record(out, u, c, &GeocodingResult{
				Point:      *fix.Coordinates,
				Confidence: fix.ConfidenceOrDefault(),
				Provider:   fix.SourceOrDefault(),
			})

			continue
		}

		p.logger.Printf("🔍 %s at %q", place.Name, fix.Address)

		r, err := p.resolver.Resolve(ctx, place.Name, fix.Address)
		if err != nil {
			return nil, fmt.Errorf("resolving %q of %s: %w", place.Name, u.Name, err)
		}

		p.record(out, u, c, r)
	}

	return p.finish(out, u)
}

// record adds the correction of c to out, or c to the failures when r is nil
// or unusable.
func (p *Pipeline) record(out *Outcome, u *catalog.Unit, c Candidate, r *GeocodingResult) {
	if r == nil {
		p.logger.Printf("❌ %s: unresolved", c.Place.Name)
		out.Failed = append(out.Failed, c.Place)

		return
	}

	if err := validateCoordinates(r.Point, p.bounds); err != nil {
		p.logger.Printf("❌ %s: %s answered %v", c.Place.Name, r.Provider, err)
		out.Failed = append(out.Failed, c.Place)

		return
	}

	at := p.now().UTC()

	out.Changes = append(out.Changes, catalog.Change{
		Category:    c.Place.Category,
		Index:       c.Place.Index,
		Coordinates: r.Point,
		Geocoding: &catalog.Geocoding{
			Source:         r.Provider,
			Confidence:     r.Confidence,
			CorrectedAt:    at,
			OldCoordinates: c.Place.Coordinates,
		},
	})

	out.Fixed = append(out.Fixed, CorrectionRecord{
		File:           u.Name,
		Zone:           u.Zone,
		Category:       c.Place.Category,
		ID:             c.Place.ID,
		Place:          c.Place.Name,
		Reason:         c.Reason,
		OldCoordinates: c.Place.Coordinates,
		NewCoordinates: r.Point,
		Source:         r.Provider,
		Confidence:     r.Confidence,
		Timestamp:      at,
	})

	old := "none"
	if c.Place.Coordinates != nil {
		old = c.Place.Coordinates.String()
	}

	p.logger.Printf("✅ %s: %s → %s (%s, %.0f%%)", c.Place.Name, old, r.Point, r.Provider, r.Confidence*100)
}

func (p *Pipeline) finish(out *Outcome, u *catalog.Unit) (*Outcome, error) {
	corrected, err := u.WithChanges(out.Changes)
	if err != nil {
		return nil, fmt.Errorf("applying corrections to %s: %w", u.Name, err)
	}

	out.Unit = corrected

	return out, nil
}

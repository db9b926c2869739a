// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"fmt"
	"math"
	"time"

	"github.com/jcodagnone/geofix/curation/utils"
	"github.com/jcodagnone/geofix/spatial"
)

const (
	minorDisplacement       = 100.0  // meters
	significantDisplacement = 2000.0 // meters
	lowPrecisionDigits      = 4
	highPrecisionDigits     = 6
	lowConfidence           = 0.4
	highConfidence          = 0.7
)

// DisplacementClass buckets the distance a correction moved a place.
type DisplacementClass string

const (
	DisplacementMinor       DisplacementClass = "minor"
	DisplacementSignificant DisplacementClass = "significant"
	DisplacementLarge       DisplacementClass = "suspiciously_large"
)

// IssueKind identifies a problem found while auditing a correction.
type IssueKind string

const (
	IssueOutOfRegion       IssueKind = "out_of_region"
	IssueLargeDisplacement IssueKind = "large_displacement"
	IssueLowPrecision      IssueKind = "low_precision"
	IssueZoneMismatch      IssueKind = "zone_mismatch"
	IssueLowConfidence     IssueKind = "low_confidence"
)

// Issue is a problem of a correction. Only out of region issues make a
// correction invalid.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// Links points to web maps showing the corrected position.
type Links struct {
	GoogleMaps    string `json:"google_maps"`
	OpenStreetMap string `json:"openstreetmap"`
}

// ValidationVerdict is the audit outcome of one CorrectionRecord.
type ValidationVerdict struct {
	Place             string            `json:"place"`
	File              string            `json:"file"`
	Category          string            `json:"category"`
	Valid             bool              `json:"valid"`
	Displacement      *float64          `json:"displacement,omitempty"`
	DisplacementClass DisplacementClass `json:"displacement_class,omitempty"`
	Precision         int               `json:"precision"`
	Zone              string            `json:"zone,omitempty"`
	ZoneDistance      float64           `json:"zone_distance,omitempty"`
	Issues            []Issue           `json:"issues"`
	Improvements      []string          `json:"improvements"`
	Confidence        float64           `json:"confidence"`
	Links             Links             `json:"links"`
}

// ValidationSummary aggregates the verdicts of a report.
type ValidationSummary struct {
	TotalFixes          int     `json:"total_fixes"`
	ValidFixes          int     `json:"valid_fixes"`
	IssuesCount         int     `json:"issues_count"`
	AverageConfidence   float64 `json:"average_confidence"`
	AverageDisplacement float64 `json:"average_displacement"`
}

// ValidationReport is written to validation-report.json.
type ValidationReport struct {
	Timestamp   time.Time           `json:"timestamp"`
	Summary     ValidationSummary   `json:"summary"`
	Validations []ValidationVerdict `json:"validations"`
}

// Auditor checks applied corrections after the fact. It never changes them.
type Auditor struct {
	bounds spatial.Bounds
	zones  *ZoneIndex
}

// NewAuditor creates an Auditor. zones may be nil to skip the zone check.
func NewAuditor(bounds spatial.Bounds, zones *ZoneIndex) *Auditor {
	return &Auditor{bounds: bounds, zones: zones}
}

// Audit returns one verdict per record, in order.
func (a *Auditor) Audit(records []CorrectionRecord) []ValidationVerdict {
	ret := make([]ValidationVerdict, 0, len(records))
	for i := range records {
		ret = append(ret, a.verdict(&records[i]))
	}

	return ret
}

func (a *Auditor) verdict(r *CorrectionRecord) ValidationVerdict {
	p := r.NewCoordinates
	v := ValidationVerdict{
		Place:        r.Place,
		File:         r.File,
		Category:     r.Category,
		Valid:        true,
		Precision:    p.Precision(),
		Issues:       []Issue{},
		Improvements: []string{},
		Confidence:   r.Confidence,
		Links:        linksFor(p),
	}

	issue := func(kind IssueKind, format string, args ...any) {
		v.Issues = append(v.Issues, Issue{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	if a.bounds.ContainsPoint(p) {
		v.Improvements = append(v.Improvements, "inside the region")
	} else {
		v.Valid = false
		issue(IssueOutOfRegion, "%s is outside %s", p, a.bounds)
	}

	if r.OldCoordinates != nil {
		d := r.OldCoordinates.HaversineDistance(&p)
		rounded := math.Round(d)
		v.Displacement = &rounded

		switch {
		case d > significantDisplacement:
			v.DisplacementClass = DisplacementLarge
			issue(IssueLargeDisplacement, "moved %s", utils.FormatMeters(rounded))
		case d > minorDisplacement:
			v.DisplacementClass = DisplacementSignificant
			v.Improvements = append(v.Improvements, "significant correction of "+utils.FormatMeters(rounded))
		default:
			v.DisplacementClass = DisplacementMinor
			v.Improvements = append(v.Improvements, "minor correction of "+utils.FormatMeters(rounded))
		}
	}

	switch {
	case v.Precision >= highPrecisionDigits:
		v.Improvements = append(v.Improvements, fmt.Sprintf("high precision (%d decimals)", v.Precision))
	case v.Precision >= lowPrecisionDigits:
		v.Improvements = append(v.Improvements, fmt.Sprintf("fair precision (%d decimals)", v.Precision))
	default:
		issue(IssueLowPrecision, "only %d decimals", v.Precision)
	}

	if a.zones != nil {
		if zone, d, ok := a.zones.Nearest(p); ok {
			v.Zone = zone.Name
			v.ZoneDistance = math.Round(d)

			switch {
			case r.Zone == "":
			case utils.SameZone(zone.ID, r.Zone):
				v.Improvements = append(v.Improvements, "consistent with zone "+zone.Name)
			default:
				issue(IssueZoneMismatch, "nearest zone is %s, expected %s", zone.Name, r.Zone)
			}
		}
	}

	pct := math.Round(r.Confidence * 100)

	switch {
	case r.Confidence >= highConfidence:
		v.Improvements = append(v.Improvements, fmt.Sprintf("high confidence (%.0f%%)", pct))
	case r.Confidence >= lowConfidence:
		v.Improvements = append(v.Improvements, fmt.Sprintf("fair confidence (%.0f%%)", pct))
	default:
		issue(IssueLowConfidence, "low confidence (%.0f%%)", pct)
	}

	return v
}

func linksFor(p spatial.Point) Links {
	lat, lng := spatial.FormatDegrees(p.Lat), spatial.FormatDegrees(p.Lng)

	return Links{
		GoogleMaps:    "https://www.google.com/maps?q=" + lat + "," + lng,
		OpenStreetMap: "https://www.openstreetmap.org/?mlat=" + lat + "&mlon=" + lng + "&zoom=17",
	}
}

// Report audits records and summarizes the verdicts.
func (a *Auditor) Report(records []CorrectionRecord, now time.Time) *ValidationReport {
	verdicts := a.Audit(records)
	report := &ValidationReport{
		Timestamp:   now.UTC(),
		Validations: verdicts,
		Summary:     ValidationSummary{TotalFixes: len(verdicts)},
	}

	var (
		confidence, displacement float64
		displaced                int
	)

	for i, v := range verdicts {
		if v.Valid {
			report.Summary.ValidFixes++
		}

		report.Summary.IssuesCount += len(v.Issues)
		confidence += records[i].Confidence

		if v.Displacement != nil {
			displacement += *v.Displacement
			displaced++
		}
	}

	if len(verdicts) > 0 {
		report.Summary.AverageConfidence = confidence / float64(len(verdicts))
	}

	if displaced > 0 {
		report.Summary.AverageDisplacement = displacement / float64(displaced)
	}

	return report
}

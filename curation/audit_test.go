// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/geofix/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditRecords() []CorrectionRecord {
	return []CorrectionRecord{
		{
			File: "arrondissement-1.json", Zone: "1", Category: "sights", Place: "Palais-Royal",
			NewCoordinates: spatial.Point{Lat: 48.8631, Lng: 2.337}, Source: NominatimName, Confidence: 0.6,
		},
		{
			File: "arrondissement-1.json", Zone: "1", Category: "sights", Place: "Vieux-Port",
			OldCoordinates: &spatial.Point{Lat: 48.86, Lng: 2.35},
			NewCoordinates: spatial.Point{Lat: 43.2951, Lng: 5.3744}, Source: PhotonName, Confidence: 0.2,
		},
		{
			File: "arrondissement-7.json", Zone: "7", Category: "sights", Place: "Tour Eiffel",
			OldCoordinates: &spatial.Point{Lat: 48.8584, Lng: 2.2945},
			NewCoordinates: spatial.Point{Lat: 48.858, Lng: 2.294}, Source: "manual", Confidence: 0.9,
		},
	}
}

func kinds(v ValidationVerdict) []IssueKind {
	ret := []IssueKind{}
	for _, i := range v.Issues {
		ret = append(ret, i.Kind)
	}

	return ret
}

func TestAudit(t *testing.T) {
	verdicts := NewAuditor(spatial.Paris, ParisZones()).Audit(auditRecords())
	require.Len(t, verdicts, 3)

	palais := verdicts[0]
	assert.True(t, palais.Valid)
	assert.Empty(t, palais.Issues)
	assert.Nil(t, palais.Displacement)
	assert.Empty(t, palais.DisplacementClass)
	assert.Equal(t, 4, palais.Precision)
	assert.Equal(t, "1er", palais.Zone)
	assert.InDelta(t, 280, palais.ZoneDistance, 20)
	assert.Equal(t, "https://www.google.com/maps?q=48.8631,2.337", palais.Links.GoogleMaps)
	assert.Equal(t, "https://www.openstreetmap.org/?mlat=48.8631&mlon=2.337&zoom=17", palais.Links.OpenStreetMap)

	port := verdicts[1]
	assert.False(t, port.Valid)
	assert.Equal(t, DisplacementLarge, port.DisplacementClass)
	want := []IssueKind{IssueOutOfRegion, IssueLargeDisplacement, IssueZoneMismatch, IssueLowConfidence}
	if diff := cmp.Diff(want, kinds(port)); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}

	eiffel := verdicts[2]
	assert.True(t, eiffel.Valid, "low precision is not a hard issue")
	assert.Equal(t, []IssueKind{IssueLowPrecision}, kinds(eiffel))
	assert.Equal(t, DisplacementMinor, eiffel.DisplacementClass)
	assert.Equal(t, "7ème", eiffel.Zone)
	require.NotNil(t, eiffel.Displacement)
	assert.InDelta(t, 58, *eiffel.Displacement, 5)
	assert.Contains(t, eiffel.Improvements, "high confidence (90%)")
}

// metersNorth returns the latitude shift moving a point m meters north.
func metersNorth(m float64) float64 {
	return m / 6371e3 * 180 / math.Pi
}

func TestAuditDisplacementClasses(t *testing.T) {
	tests := []struct {
		name  string
		shift float64 // degrees of latitude
		want  DisplacementClass
		issue bool
	}{
		{"none", 0, DisplacementMinor, false},
		{"minor", 0.0005, DisplacementMinor, false},
		{"just above minor", metersNorth(100.3), DisplacementSignificant, false},
		{"significant", 0.005, DisplacementSignificant, false},
		{"just above significant", metersNorth(2000.3), DisplacementLarge, true},
		{"large", 0.05, DisplacementLarge, true},
	}

	a := NewAuditor(spatial.Paris, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := a.Audit([]CorrectionRecord{{
				Place:          "x",
				OldCoordinates: &spatial.Point{Lat: 48.8412, Lng: 2.3517},
				NewCoordinates: spatial.Point{Lat: 48.8412 + tt.shift, Lng: 2.3517},
				Confidence:     0.5,
			}})[0]

			assert.Equal(t, tt.want, v.DisplacementClass)
			assert.Equal(t, tt.issue, len(v.Issues) > 0)
			assert.Empty(t, v.Zone, "no zone index")
		})
	}
}

func TestAuditWithoutDeclaredZone(t *testing.T) {
	v := NewAuditor(spatial.Paris, ParisZones()).Audit([]CorrectionRecord{{
		Place:          "Palais-Royal",
		NewCoordinates: spatial.Point{Lat: 48.863100, Lng: 2.337000},
		Confidence:     0.75,
	}})[0]

	assert.Empty(t, v.Issues)
	assert.Equal(t, "1er", v.Zone)
}

func TestReport(t *testing.T) {
	report := NewAuditor(spatial.Paris, ParisZones()).Report(auditRecords(), fixedNow)

	assert.Equal(t, fixedNow, report.Timestamp)
	assert.Len(t, report.Validations, 3)
	assert.Equal(t, 3, report.Summary.TotalFixes)
	assert.Equal(t, 2, report.Summary.ValidFixes)
	assert.Equal(t, 5, report.Summary.IssuesCount)
	assert.InDelta(t, (0.6+0.2+0.9)/3, report.Summary.AverageConfidence, 1e-9)

	d1, d2 := *report.Validations[1].Displacement, *report.Validations[2].Displacement
	assert.InDelta(t, (d1+d2)/2, report.Summary.AverageDisplacement, 1e-9)
}

func TestReportEmpty(t *testing.T) {
	report := NewAuditor(spatial.Paris, ParisZones()).Report(nil, fixedNow)

	assert.Equal(t, ValidationSummary{}, report.Summary)
	assert.NotNil(t, report.Validations)
}

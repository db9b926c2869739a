// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jcodagnone/geofix/catalog"
)

// Run modes recorded in the correction report.
const (
	ModeAuto  = "auto"
	ModeKnown = "known_fixes"
)

// UnitStatus tells what happened to a unit during a run. StatusFailed is a
// unit whose corrections could not be computed; nothing was written.
type UnitStatus string

const (
	StatusOK            UnitStatus = "ok"
	StatusUnchanged     UnitStatus = "unchanged"
	StatusDryRun        UnitStatus = "dry_run"
	StatusParseFailed   UnitStatus = "parse_failed"
	StatusPersistFailed UnitStatus = "persist_failed"
	StatusFailed        UnitStatus = "failed"
)

// UnitDetail is the per unit section of the correction report.
type UnitDetail struct {
	File       string             `json:"file"`
	Status     UnitStatus         `json:"status"`
	Error      string             `json:"error,omitempty"`
	BackupPath string             `json:"backup_path,omitempty"`
	Fixed      []CorrectionRecord `json:"fixed"`
	Failed     []FailedPlace      `json:"failed"`
	Duplicates int                `json:"duplicates"`
}

// FailedPlace is a candidate no provider could place.
type FailedPlace struct {
	Category string `json:"category"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
}

// ReportSummary holds the totals of a run.
type ReportSummary struct {
	FilesProcessed      int    `json:"files_processed"`
	TotalFixed          int    `json:"total_fixed"`
	TotalFailed         int    `json:"total_failed"`
	CorrectionsApplied  int    `json:"corrections_applied"`
	KnownFixesAvailable int    `json:"known_fixes_available,omitempty"`
	SuccessRate         string `json:"success_rate"`
}

// CorrectionReport is written to coordinate-fixes-report.json at the end of
// every run, even an interrupted one.
type CorrectionReport struct {
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id"`
	Mode      string        `json:"mode"`
	DryRun    bool          `json:"dry_run"`
	Summary   ReportSummary `json:"summary"`
	Details   []UnitDetail  `json:"details"`
	// AppliedFixes holds the corrections that were persisted.
	AppliedFixes []CorrectionRecord `json:"applied_fixes"`
}

// NewCorrectionReport starts the report of a run.
func NewCorrectionReport(mode string, dryRun bool) *CorrectionReport {
	return &CorrectionReport{
		RunID:        uuid.NewString(),
		Mode:         mode,
		DryRun:       dryRun,
		Details:      []UnitDetail{},
		AppliedFixes: []CorrectionRecord{},
	}
}

// AddFailure records a unit that could not be processed.
func (r *CorrectionReport) AddFailure(file string, status UnitStatus, err error) {
	r.Summary.FilesProcessed++
	r.Details = append(r.Details, UnitDetail{
		File:   file,
		Status: status,
		Error:  err.Error(),
		Fixed:  []CorrectionRecord{},
		Failed: []FailedPlace{},
	})
}

// AddOutcome records the outcome of a unit. persistErr is the error saving
// it, if any; corrections of a unit that wasn't saved aren't applied.
func (r *CorrectionReport) AddOutcome(file string, out *Outcome, backupPath string, persistErr error) {
	d := UnitDetail{
		File:       file,
		BackupPath: backupPath,
		Fixed:      out.Fixed,
		Failed:     make([]FailedPlace, 0, len(out.Failed)),
		Duplicates: len(out.Duplicates),
	}

	if d.Fixed == nil {
		d.Fixed = []CorrectionRecord{}
	}

	for _, p := range out.Failed {
		d.Failed = append(d.Failed, failedPlace(p))
	}

	switch {
	case persistErr != nil:
		d.Status = StatusPersistFailed
		d.Error = persistErr.Error()
	case len(out.Changes) == 0:
		d.Status = StatusUnchanged
	case r.DryRun:
		d.Status = StatusDryRun
	default:
		d.Status = StatusOK
		r.AppliedFixes = append(r.AppliedFixes, out.Fixed...)
	}

	r.Summary.FilesProcessed++
	r.Summary.TotalFixed += len(out.Fixed)
	r.Summary.TotalFailed += len(out.Failed)
	r.Details = append(r.Details, d)
}

func failedPlace(p catalog.Place) FailedPlace {
	return FailedPlace{Category: p.Category, ID: p.ID, Name: p.Name, Address: p.Address}
}

// Finish computes the summary.
func (r *CorrectionReport) Finish(now time.Time) *CorrectionReport {
	r.Timestamp = now.UTC()
	r.Summary.CorrectionsApplied = len(r.AppliedFixes)
	r.Summary.SuccessRate = SuccessRate(r.Summary.TotalFixed, r.Summary.TotalFailed)

	return r
}

// SuccessRate formats fixed / (fixed + failed) as "x.y%", "0%" when nothing
// was fixed.
func SuccessRate(fixed, failed int) string {
	if fixed == 0 {
		return "0%"
	}

	return fmt.Sprintf("%.1f%%", float64(fixed)/float64(fixed+failed)*100)
}

// ReadCorrectionReport reads a report written by WriteJSON.
func ReadCorrectionReport(path string) (*CorrectionReport, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("reading correction report: %w", err)
	}

	var r CorrectionReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing correction report %s: %w", path, err)
	}

	return &r, nil
}

// WriteJSON writes v indented to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

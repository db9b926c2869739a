// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/geofix/catalog"
	"github.com/jcodagnone/geofix/curation"
	"github.com/jcodagnone/geofix/utils/httputils"
)

// session holds what the correcting commands share.
type session struct {
	store        *catalog.Store
	orchestrator *curation.Orchestrator
	pipeline     *curation.Pipeline
	ledger       *curation.Ledger
	db           *sql.DB
}

func newHTTPClient() *http.Client {
	var trace io.Writer
	if options.TraceHTTP {
		trace = os.Stderr
	}

	return httputils.NewClient(httputils.ClientOptions{
		Timeout:     options.Timeout,
		UserAgent:   options.UserAgent,
		TraceWriter: trace,
		TraceBody:   options.TraceHTTPBody,
	})
}

func newSession(ctx context.Context) (*session, error) {
	client := newHTTPClient()

	primary, fallback := options.NewGeocoders(client)
	orchestrator := curation.NewOrchestrator(primary, fallback, curation.OrchestratorOptions{
		Threshold: options.Threshold,
		City:      options.City,
		Pacer:     curation.NewPacer(options.RequestDelay),
	})

	s := &session{
		store:        catalog.NewStore(options.DataDir, options.BackupDir),
		orchestrator: orchestrator,
		pipeline: curation.NewPipeline(orchestrator, curation.PipelineOptions{
			Bounds:   options.Bounds(),
			Progress: !options.NoProgress,
		}),
	}

	if options.LedgerPath != "" {
		ledger, db, err := openLedger(ctx, options.LedgerPath)
		if err != nil {
			return nil, err
		}

		s.ledger, s.db = ledger, db
	}

	return s, nil
}

func (s *session) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func openLedger(ctx context.Context, path string) (*curation.Ledger, *sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger: %w", err)
	}

	ledger := curation.NewLedger(db)
	if err := ledger.CreateSchema(ctx); err != nil {
		db.Close()

		return nil, nil, err
	}

	return ledger, db, nil
}

// units returns the unit names to process, all of them when only is empty.
func (s *session) units(only []string) ([]string, error) {
	names, err := s.store.Units()
	if err != nil {
		return nil, err
	}

	if len(only) == 0 {
		return names, nil
	}

	for _, name := range only {
		if !slices.Contains(names, name) {
			return nil, fmt.Errorf("unit %s not found in %s", name, s.store.Root())
		}
	}

	return only, nil
}

type unitFunc func(ctx context.Context, u *catalog.Unit) (*curation.Outcome, error)

// process applies fn to every unit, persists the changed ones unless dryRun
// and fills report. It stops at the first cancellation; the report is the
// caller's to write.
func (s *session) process(ctx context.Context, names []string, report *curation.CorrectionReport, fn unitFunc) error {
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		u, err := s.store.Load(name)
		if err != nil {
			log.Printf("❌ %s: %v", name, err)
			report.AddFailure(name, curation.StatusParseFailed, err)

			continue
		}

		out, err := fn(ctx, u)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return err
			}

			log.Printf("❌ %s: %v", name, err)
			report.AddFailure(name, curation.StatusFailed, err)

			continue
		}

		var backupPath string

		if len(out.Changes) > 0 && !report.DryRun {
			backupPath, err = s.store.Save(out.Unit)
			if err != nil {
				log.Printf("❌ %s: %v", name, err)
			} else {
				log.Printf("💾 %s: %d corrections saved, backup %s", name, len(out.Changes), backupPath)
			}
		}

		report.AddOutcome(name, out, backupPath, err)

		if err == nil && !report.DryRun && s.ledger != nil {
			if lErr := s.ledger.Record(ctx, report.RunID, out.Fixed); lErr != nil {
				log.Printf("⚠️  %s: ledger: %v", name, lErr)
			}
		}
	}

	return nil
}

// finishReport writes the report whatever happened to the run.
func finishReport(report *curation.CorrectionReport, runErr error) error {
	report.Finish(time.Now())

	if err := curation.WriteJSON(options.ReportPath, report); err != nil {
		return errors.Join(runErr, err)
	}

	s := report.Summary
	log.Printf("📄 %s: %d files, %d fixed, %d failed, %d applied (%s)",
		options.ReportPath, s.FilesProcessed, s.TotalFixed, s.TotalFailed, s.CorrectionsApplied, s.SuccessRate)

	return runErr
}

func (s *session) logMetrics() {
	m := s.orchestrator.Metrics
	for provider, calls := range m.Calls {
		log.Printf("🌐 %s: %d calls, %d errors", provider, calls, m.Errors[provider])
	}

	log.Printf("🌐 %d cache hits, %d resolved, %d missed", m.CacheHits, m.Resolved, m.Missed)
}

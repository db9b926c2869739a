// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/jcodagnone/geofix/spatial"
	"github.com/uber/h3-go/v4"
)

// Resolutions of the cells stored with each correction. At 12 a cell is
// about 300 m², so distinct places sharing one were likely given the same
// street or area centroid.
const (
	ledgerCoarseRes = 9
	ledgerFineRes   = 12
)

// placeSeparator is chr(31), used to aggregate names.
const placeSeparator = "\x1f"

// Ledger is the history of persisted corrections.
type Ledger struct {
	db *sql.DB
}

// Hotspot is a fine cell several distinct places were moved to.
type Hotspot struct {
	Cell   string        `json:"cell"`
	Places []string      `json:"places"`
	Center spatial.Point `json:"center"`
}

// NewLedger creates a Ledger over db. CreateSchema must be called once.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// DB returns the underlying database connection.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// CreateSchema creates the corrections table.
func (l *Ledger) CreateSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE SEQUENCE IF NOT EXISTS corrections_seq START 1;

		CREATE TABLE IF NOT EXISTS corrections (
			id INTEGER PRIMARY KEY DEFAULT nextval('corrections_seq'),
			run_id VARCHAR NOT NULL,
			file VARCHAR NOT NULL,
			zone VARCHAR,
			category VARCHAR NOT NULL,
			place_id VARCHAR,
			place VARCHAR NOT NULL,
			reason VARCHAR NOT NULL,
			old_lat DOUBLE,
			old_lng DOUBLE,
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			source VARCHAR NOT NULL,
			confidence DOUBLE NOT NULL,
			corrected_at TIMESTAMP NOT NULL,
			h3_res9 BIGINT NOT NULL,
			h3_res12 BIGINT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating ledger schema: %w", err)
	}

	return nil
}

func cellsOf(p spatial.Point) (coarse, fine int64, err error) {
	latLng := h3.NewLatLng(p.Lat, p.Lng)

	c, err := h3.LatLngToCell(latLng, ledgerCoarseRes)
	if err != nil {
		return 0, 0, fmt.Errorf("error converting to h3 cell at res %d: %w", ledgerCoarseRes, err)
	}

	f, err := h3.LatLngToCell(latLng, ledgerFineRes)
	if err != nil {
		return 0, 0, fmt.Errorf("error converting to h3 cell at res %d: %w", ledgerFineRes, err)
	}

	return int64(c), int64(f), nil
}

// Record inserts the records of a run in a single transaction.
func (l *Ledger) Record(ctx context.Context, runID string, records []CorrectionRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting ledger transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = fmt.Errorf("%w (rollback: %w)", err, rErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO corrections(
			run_id, file, zone, category, place_id, place, reason,
			old_lat, old_lng, lat, lng, source, confidence, corrected_at,
			h3_res9, h3_res12
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing ledger insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		coarse, fine, err := cellsOf(r.NewCoordinates)
		if err != nil {
			return err
		}

		var oldLat, oldLng *float64
		if r.OldCoordinates != nil {
			oldLat, oldLng = &r.OldCoordinates.Lat, &r.OldCoordinates.Lng
		}

		if _, err := stmt.ExecContext(ctx,
			runID, r.File, r.Zone, r.Category, r.ID, r.Place, string(r.Reason),
			oldLat, oldLng, r.NewCoordinates.Lat, r.NewCoordinates.Lng,
			r.Source, r.Confidence, r.Timestamp, coarse, fine,
		); err != nil {
			return fmt.Errorf("recording %q of %s: %w", r.Place, r.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}

	return nil
}

// Count returns the number of recorded corrections.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corrections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting corrections: %w", err)
	}

	return n, nil
}

// Hotspots returns the fine cells holding the latest position of at least
// minPlaces distinct places, most crowded first.
func (l *Ledger) Hotspots(ctx context.Context, minPlaces int) ([]Hotspot, error) {
	rows, err := l.db.QueryContext(ctx, `
		WITH latest AS (
			SELECT * FROM corrections
			QUALIFY row_number() OVER (PARTITION BY file, category, place ORDER BY corrected_at DESC, id DESC) = 1
		)
		SELECT
			h3_res12,
			COUNT(*) AS places,
			string_agg(place, chr(31)) AS names,
			AVG(lat),
			AVG(lng)
		FROM latest
		GROUP BY h3_res12
		HAVING COUNT(*) >= ?
		ORDER BY places DESC, h3_res12
	`, minPlaces)
	if err != nil {
		return nil, fmt.Errorf("querying hotspots: %w", err)
	}
	defer rows.Close()

	var ret []Hotspot

	for rows.Next() {
		var (
			cell  int64
			count int
			names string
			h     Hotspot
		)

		if err := rows.Scan(&cell, &count, &names, &h.Center.Lat, &h.Center.Lng); err != nil {
			return nil, fmt.Errorf("scanning hotspot: %w", err)
		}

		h.Cell = h3.Cell(cell).String()
		h.Places = strings.Split(names, placeSeparator)
		slices.Sort(h.Places)
		ret = append(ret, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading hotspots: %w", err)
	}

	return ret, nil
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/jcodagnone/geofix/curation"
	"github.com/spf13/cobra"
)

var runOptions struct {
	dryRun bool
	units  []string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Find and geocode again the places with bad coordinates",
	Long: `Selects in every unit the places sharing their coordinates with another
place, without coordinates, with malformed coordinates or outside the region,
geocodes them and saves the corrected units after backing them up.

The correction report is written even when the run is interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		names, err := s.units(runOptions.units)
		if err != nil {
			return err
		}

		if runOptions.dryRun {
			log.Printf("🔍 dry run over %d units, nothing will be written but the report", len(names))
		}

		report := curation.NewCorrectionReport(curation.ModeAuto, runOptions.dryRun)
		err = s.process(ctx, names, report, s.pipeline.Run)
		s.logMetrics()

		return finishReport(report, err)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOptions.dryRun, "dry-run", false, "Geocode and report without writing the units")
	runCmd.Flags().StringSliceVar(&runOptions.units, "unit", nil, "Only process these units (file names)")
	rootCmd.AddCommand(runCmd)
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/geofix/catalog"
	"github.com/jcodagnone/geofix/curation"
	"github.com/spf13/cobra"
)

var fixesOptions struct {
	dryRun bool
	units  []string
	export string
}

func loadKnownFixes() (*curation.KnownFixes, error) {
	if options.KnownFixesPath == "" {
		return curation.DefaultKnownFixes(), nil
	}

	return curation.LoadKnownFixes(options.KnownFixesPath)
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the known fixes to the places they name",
	Long: `Applies the fixes of the known fixes file (or the built-in list) to every
place with the same name. Fixes with coordinates are applied as is, fixes with
an address are geocoded first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		fixes, err := loadKnownFixes()
		if err != nil {
			return err
		}

		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		names, err := s.units(fixesOptions.units)
		if err != nil {
			return err
		}

		report := curation.NewCorrectionReport(curation.ModeKnown, fixesOptions.dryRun)
		report.Summary.KnownFixesAvailable = fixes.Len()

		err = s.process(ctx, names, report, func(ctx context.Context, u *catalog.Unit) (*curation.Outcome, error) {
			return s.pipeline.ApplyKnown(ctx, u, fixes)
		})
		s.logMetrics()

		return finishReport(report, err)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known fixes",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		fixes, err := loadKnownFixes()
		if err != nil {
			return err
		}

		fmt.Printf("%d known fixes:\n", fixes.Len())

		for _, f := range fixes.Fixes {
			if f.Coordinates != nil {
				fmt.Printf("  • %s: %s (%s, %.0f%%)\n", f.Name, f.Coordinates, f.SourceOrDefault(), f.ConfidenceOrDefault()*100)
			} else {
				fmt.Printf("  • %s: to geocode: %s\n", f.Name, f.Address)
			}
		}

		if fixesOptions.export != "" {
			if err := fixes.Save(fixesOptions.export, time.Now().UTC()); err != nil {
				return err
			}

			log.Printf("💾 known fixes exported to %s", fixesOptions.export)
		}

		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&fixesOptions.dryRun, "dry-run", false, "Report the fixes without writing the units")
	applyCmd.Flags().StringSliceVar(&fixesOptions.units, "unit", nil, "Only process these units (file names)")
	listCmd.Flags().StringVar(&fixesOptions.export, "export", "", "Also write the fixes to this file")
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(listCmd)
}

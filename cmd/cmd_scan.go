// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/jcodagnone/geofix/catalog"
	"github.com/jcodagnone/geofix/curation"
	"github.com/spf13/cobra"
)

var scanOptions struct {
	output string
}

type scanReport struct {
	Summary curation.ScanSummary `json:"summary"`
	Units   []*curation.Analysis `json:"units"`
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Report the coordinate problems of the catalog without geocoding",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := catalog.NewStore(options.DataDir, options.BackupDir)

		names, err := store.Units()
		if err != nil {
			return err
		}

		bounds := options.Bounds()
		report := scanReport{Units: []*curation.Analysis{}}

		for _, name := range names {
			u, err := store.Load(name)
			if err != nil {
				log.Printf("❌ %s: %v", name, err)

				continue
			}

			a := curation.Scan(u, bounds)
			report.Units = append(report.Units, a)
			report.Summary.Add(a)
			printAnalysis(a)
		}

		s := report.Summary
		fmt.Println(strings.Repeat("─", 60))
		fmt.Printf("%d units, %d places, %d candidates\n", s.Files, s.Total, s.Candidates)
		fmt.Printf("  missing %d, malformed %d, out of region %d, suspicious %d\n",
			s.Missing, s.Malformed, s.OutOfRegion, s.Suspicious)
		fmt.Printf("  %d duplicate groups, %d on a zone center\n", s.Duplicates, s.ZoneCenters)

		if scanOptions.output != "" {
			if err := curation.WriteJSON(scanOptions.output, report); err != nil {
				return err
			}

			log.Printf("📄 scan written to %s", scanOptions.output)
		}

		return nil
	},
}

func printAnalysis(a *curation.Analysis) {
	fmt.Printf("📍 %s: %d places, %d candidates\n", a.File, a.Total, a.Candidates())

	for _, g := range a.Duplicates {
		marker := ""
		if g.ZoneCenter {
			marker = " (zone center)"
		}

		fmt.Printf("   🔁 [%s]%s shared by %d places\n", g.Key, marker, g.Count)

		for _, p := range g.Places {
			fmt.Printf("      • %s - %s\n", p.Name, p.Category)
		}
	}

	for _, p := range a.Missing {
		fmt.Printf("   ❌ no coordinates: %s (%s)\n", p.Name, p.Address)
	}

	for _, p := range a.Malformed {
		fmt.Printf("   ❌ malformed coordinates: %s\n", p.Name)
	}

	for _, p := range a.OutOfRegion {
		fmt.Printf("   🌍 out of region: %s %s\n", p.Name, p.Coordinates)
	}

	for _, p := range a.Suspicious {
		fmt.Printf("   🚨 suspicious: %s %s\n", p.Name, p.Coordinates)
	}
}

func init() {
	scanCmd.Flags().StringVarP(&scanOptions.output, "output", "o", "", "Also write the analysis as JSON to this file")
	rootCmd.AddCommand(scanCmd)
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/geofix/curation"
	"github.com/jcodagnone/geofix/curation/utils"
	"github.com/spf13/cobra"
)

func loadZones() (*curation.ZoneIndex, error) {
	if options.ZonesPath == "" {
		return curation.ParisZones(), nil
	}

	return curation.LoadZones(options.ZonesPath)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Audit the corrections applied by the last run",
	Long: `Reads the applied fixes of the correction report and checks each of them:
inside the region, displacement, precision, nearest zone and confidence. The
verdicts are written to the validation report. Nothing is modified.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		report, err := curation.ReadCorrectionReport(options.ReportPath)
		if err != nil {
			return err
		}

		zones, err := loadZones()
		if err != nil {
			return err
		}

		validation := curation.NewAuditor(options.Bounds(), zones).Report(report.AppliedFixes, time.Now())

		for i, v := range validation.Validations {
			r := report.AppliedFixes[i]

			fmt.Printf("📍 %s (%s)\n", v.Place, v.File)
			fmt.Printf("   source %s, confidence %.0f%%, %s\n", r.Source, r.Confidence*100, r.NewCoordinates)

			if v.Displacement != nil {
				fmt.Printf("   moved %s\n", utils.FormatMeters(*v.Displacement))
			}

			for _, s := range v.Improvements {
				fmt.Printf("   ✅ %s\n", s)
			}

			for _, issue := range v.Issues {
				fmt.Printf("   ⚠️  %s\n", issue.Message)
			}

			fmt.Printf("   🗺️  %s\n", v.Links.GoogleMaps)
		}

		s := validation.Summary
		fmt.Printf("\n%d corrections, %d valid, %d issues, average confidence %.1f%%, average displacement %s\n",
			s.TotalFixes, s.ValidFixes, s.IssuesCount, s.AverageConfidence*100, utils.FormatMeters(s.AverageDisplacement))

		if err := curation.WriteJSON(options.ValidationReportPath, validation); err != nil {
			return err
		}

		log.Printf("📄 validation report written to %s", options.ValidationReportPath)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var historyOptions struct {
	minPlaces int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarize the correction ledger",
	Long: `Prints the number of corrections recorded in the ledger and the places
where several distinct places were moved to, usually a street or district
centroid returned by a provider.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if options.LedgerPath == "" {
			return errors.New("no ledger configured, use --ledger or GEOFIX_LEDGER")
		}

		if _, err := os.Stat(options.LedgerPath); err != nil {
			return fmt.Errorf("ledger not found: %w", err)
		}

		ctx := cmd.Context()

		ledger, db, err := openLedger(ctx, options.LedgerPath)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := ledger.Count(ctx)
		if err != nil {
			return err
		}

		hotspots, err := ledger.Hotspots(ctx, historyOptions.minPlaces)
		if err != nil {
			return err
		}

		fmt.Printf("%d corrections recorded, %d hotspots\n", n, len(hotspots))

		for _, h := range hotspots {
			fmt.Printf("  🎯 %s %s: %d places\n", h.Cell, h.Center, len(h.Places))
			fmt.Printf("     %s\n", strings.Join(h.Places, ", "))
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyOptions.minPlaces, "min-places", 2, "Minimum number of places in a hotspot")
	rootCmd.AddCommand(historyCmd)
}

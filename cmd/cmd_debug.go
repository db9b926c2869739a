// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jcodagnone/geofix/curation"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugGeocodeCmd = &cobra.Command{
	Use:   "geocode [query...]",
	Short: "Ask every configured provider about a query",
	Long: `Sends each query, from the arguments or one per line on stdin, to the primary
and fallback providers and prints their raw answer. Nothing is cached.

$ echo "Place du Palais-Royal, 75001 Paris" | geofix debug geocode
Place du Palais-Royal, 75001 Paris	Nominatim	{"Point":[48.8631,2.337],"Confidence":0.6,…}
	`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newHTTPClient()

		primary, fallback := options.NewGeocoders(client)
		providers := []curation.Geocoder{primary}

		if fallback != nil {
			providers = append(providers, fallback)
		}

		pacer := curation.NewPacer(options.RequestDelay)
		ask := func(ctx context.Context, query string) error {
			return geocodeAll(ctx, pacer, providers, query)
		}

		if len(args) > 0 {
			return ask(cmd.Context(), strings.Join(args, " "))
		}

		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter the queries to geocode, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}

			if err := ask(cmd.Context(), query); err != nil {
				return err
			}
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func geocodeAll(ctx context.Context, pacer *rate.Limiter, providers []curation.Geocoder, query string) error {
	for _, g := range providers {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}

		r, err := g.Geocode(ctx, query)
		switch {
		case err != nil:
			fmt.Printf("%s\t%s\t%q\n", query, g.Name(), err)
		case r == nil:
			fmt.Printf("%s\t%s\tno result\n", query, g.Name())
		default:
			s, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("marshaling result: %w", err)
			}

			fmt.Printf("%s\t%s\t%s\n", query, g.Name(), s)
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugGeocodeCmd)
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jcodagnone/geofix/curation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const envPrefix = "GEOFIX_"

type cliOptions struct {
	curation.Config
	NoProgress bool
}

var (
	options cliOptions
	envErrs []error
)

func envString(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}

	return def
}

func envFloat(key string, def float64) float64 {
	v := envString(key, "")
	if v == "" {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		envErrs = append(envErrs, fmt.Errorf("%s%s: %w", envPrefix, key, err))

		return def
	}

	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := envString(key, "")
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		envErrs = append(envErrs, fmt.Errorf("%s%s: %w", envPrefix, key, err))

		return def
	}

	return d
}

func envBool(key string, def bool) bool {
	v := envString(key, "")
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		envErrs = append(envErrs, fmt.Errorf("%s%s: %w", envPrefix, key, err))

		return def
	}

	return b
}

func registerConfigFlags(flags *pflag.FlagSet, o *cliOptions) {
	d := curation.DefaultConfig()

	flags.StringVar(&o.DataDir, "data-dir", envString("DATA_DIR", d.DataDir),
		"Directory holding the catalog units (*.json)")
	flags.StringVar(&o.BackupDir, "backup-dir", envString("BACKUP_DIR", d.BackupDir),
		"Directory for the backups made before writing a unit, empty for next to the unit")
	flags.StringVar(&o.ReportPath, "report", envString("REPORT", d.ReportPath),
		"Correction report path")
	flags.StringVar(&o.ValidationReportPath, "validation-report", envString("VALIDATION_REPORT", d.ValidationReportPath),
		"Validation report path")
	flags.StringVar(&o.KnownFixesPath, "known-fixes", envString("KNOWN_FIXES", d.KnownFixesPath),
		"Known fixes file, empty for the built-in list")
	flags.StringVar(&o.ZonesPath, "zones", envString("ZONES", d.ZonesPath),
		"GeoJSON file with the zone centers, empty for the Paris arrondissements")
	flags.StringVar(&o.LedgerPath, "ledger", envString("LEDGER", d.LedgerPath),
		"DuckDB file recording every persisted correction, empty to disable")

	flags.StringVar(&o.Primary, "primary", envString("PRIMARY", d.Primary),
		"Primary provider: nominatim or google")
	flags.StringVar(&o.NominatimURL, "nominatim-url", envString("NOMINATIM_URL", d.NominatimURL),
		"Nominatim search endpoint")
	flags.StringVar(&o.NominatimSuffix, "nominatim-suffix", envString("NOMINATIM_SUFFIX", d.NominatimSuffix),
		"Locality appended to the primary provider queries")
	flags.StringVar(&o.PhotonURL, "photon-url", envString("PHOTON_URL", d.PhotonURL),
		"Photon search endpoint, empty to disable the fallback")
	flags.StringVar(&o.PhotonSuffix, "photon-suffix", envString("PHOTON_SUFFIX", d.PhotonSuffix),
		"Locality appended to the Photon queries")
	flags.StringVar(&o.GoogleURL, "google-url", envString("GOOGLE_URL", d.GoogleURL),
		"Google Maps geocoding endpoint")
	flags.StringVar(&o.GoogleAPIKey, "google-api-key", envString("GOOGLE_API_KEY", d.GoogleAPIKey),
		"Google Maps API key")
	flags.StringVar(&o.CountryCode, "country", envString("COUNTRY", d.CountryCode),
		"ISO 3166-1 alpha-2 country hint")
	flags.StringVar(&o.UserAgent, "user-agent", envString("USER_AGENT", ""),
		"User-Agent sent to the providers")
	flags.StringVar(&o.City, "city", envString("CITY", d.City),
		"City used in the name only query variant")

	flags.Float64Var(&o.North, "north", envFloat("NORTH", d.North), "Northern edge of the region")
	flags.Float64Var(&o.South, "south", envFloat("SOUTH", d.South), "Southern edge of the region")
	flags.Float64Var(&o.East, "east", envFloat("EAST", d.East), "Eastern edge of the region")
	flags.Float64Var(&o.West, "west", envFloat("WEST", d.West), "Western edge of the region")

	flags.Float64Var(&o.Threshold, "threshold", envFloat("THRESHOLD", d.Threshold),
		"Primary provider answers need a confidence above this value")
	flags.DurationVar(&o.RequestDelay, "delay", envDuration("DELAY", d.RequestDelay),
		"Minimum delay between two provider requests")
	flags.DurationVar(&o.Timeout, "timeout", envDuration("TIMEOUT", d.Timeout),
		"Timeout of a provider request")

	flags.BoolVar(&o.TraceHTTP, "trace-http", envBool("TRACE_HTTP", false),
		"Log every provider request and response")
	flags.BoolVar(&o.TraceHTTPBody, "trace-http-body", envBool("TRACE_HTTP_BODY", false),
		"Include bodies when tracing")
	flags.BoolVar(&o.NoProgress, "no-progress", envBool("NO_PROGRESS", false),
		"Log every candidate instead of showing a progress bar")
}

func checkOptions(_ *cobra.Command, _ []string) error {
	if len(envErrs) > 0 {
		return fmt.Errorf("%w: %w", curation.ErrInvalidConfig, errors.Join(envErrs...))
	}

	if options.UserAgent == "" {
		options.UserAgent = fmt.Sprintf("geofix/%s (+https://github.com/jcodagnone/geofix)", Version)
	}

	return options.Validate()
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jcodagnone/geofix/spatial"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Primary provider names.
const (
	PrimaryNominatim = "nominatim"
	PrimaryGoogle    = "google"
)

// Config holds everything needed to run the pipeline.
type Config struct {
	DataDir              string `json:"data_dir" validate:"required"`
	BackupDir            string `json:"backup_dir"`
	ReportPath           string `json:"report" validate:"required"`
	ValidationReportPath string `json:"validation_report" validate:"required"`
	KnownFixesPath       string `json:"known_fixes"`
	ZonesPath            string `json:"zones"`
	LedgerPath           string `json:"ledger"`

	Primary         string `json:"primary" validate:"oneof=nominatim google"`
	NominatimURL    string `json:"nominatim_url" validate:"required_if=Primary nominatim,omitempty,url"`
	NominatimSuffix string `json:"nominatim_suffix"`
	PhotonURL       string `json:"photon_url" validate:"omitempty,url"` // empty disables the fallback
	PhotonSuffix    string `json:"photon_suffix"`
	GoogleURL       string `json:"google_url" validate:"required_if=Primary google,omitempty,url"`
	GoogleAPIKey    string `json:"google_api_key" validate:"required_if=Primary google"`
	CountryCode     string `json:"country_code" validate:"omitempty,len=2,alpha"`
	UserAgent       string `json:"user_agent" validate:"required"`
	City            string `json:"city" validate:"required"`

	North float64 `json:"north" validate:"gtfield=South,lte=90"`
	South float64 `json:"south" validate:"gte=-90"`
	East  float64 `json:"east" validate:"gtfield=West,lte=180"`
	West  float64 `json:"west" validate:"gte=-180"`

	Threshold    float64       `json:"threshold" validate:"gt=0,lte=1"`
	RequestDelay time.Duration `json:"request_delay" validate:"gte=0"`
	Timeout      time.Duration `json:"timeout" validate:"gt=0"`

	TraceHTTP     bool `json:"trace_http"`
	TraceHTTPBody bool `json:"trace_http_body"`
}

// DefaultConfig returns the configuration for Paris.
func DefaultConfig() Config {
	return Config{
		DataDir:              "data/arrondissements",
		BackupDir:            "data/backups",
		ReportPath:           "coordinate-fixes-report.json",
		ValidationReportPath: "validation-report.json",
		Primary:              PrimaryNominatim,
		NominatimURL:         DefaultNominatimURL,
		NominatimSuffix:      ", Paris, France",
		PhotonURL:            DefaultPhotonURL,
		PhotonSuffix:         ", Paris",
		GoogleURL:            DefaultGoogleMapsURL,
		CountryCode:          "fr",
		UserAgent:            "geofix/1.0 (coordinate curation)",
		City:                 "Paris",
		North:                spatial.Paris.North(),
		South:                spatial.Paris.South(),
		East:                 spatial.Paris.East(),
		West:                 spatial.Paris.West(),
		Threshold:            DefaultAcceptThreshold,
		RequestDelay:         DefaultRequestDelay,
		Timeout:              10 * time.Second,
	}
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	return v
}()

// Validate checks the configuration. Nothing should touch the network
// before it passes.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	errs := []error{ErrInvalidConfig}
	for _, e := range validationErrs {
		errs = append(errs, fmt.Errorf("%s %s", e.Field(), friendlyMessage(e)))
	}

	return errors.Join(errs...)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + e.Param()
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gtfield":
		return "must be greater than " + strings.ToLower(e.Param())
	default:
		return "is invalid"
	}
}

// Bounds returns the region envelope.
func (c *Config) Bounds() spatial.Bounds {
	return spatial.NewBounds(c.North, c.South, c.East, c.West)
}

// NewGeocoders builds the primary and fallback providers. fallback is nil
// when no Photon endpoint is configured.
func (c *Config) NewGeocoders(client *http.Client) (primary, fallback Geocoder) {
	bounds := c.Bounds()

	switch c.Primary {
	case PrimaryGoogle:
		primary = NewGoogleMapsGeocoder(client, GoogleMapsOptions{
			APIKey:  c.GoogleAPIKey,
			BaseURL: c.GoogleURL,
			Suffix:  c.NominatimSuffix,
			Region:  c.CountryCode,
			Bounds:  bounds,
		})
	default:
		primary = NewNominatimGeocoder(client, NominatimOptions{
			BaseURL:     c.NominatimURL,
			Suffix:      c.NominatimSuffix,
			CountryCode: c.CountryCode,
			Bounds:      bounds,
		})
	}

	if c.PhotonURL != "" {
		fallback = NewPhotonGeocoder(client, PhotonOptions{
			BaseURL: c.PhotonURL,
			Suffix:  c.PhotonSuffix,
			Bounds:  bounds,
		})
	}

	return primary, fallback
}

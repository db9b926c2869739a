// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jcodagnone/geofix/spatial"
)

const (
	// GoogleMapsName is the source recorded for Google Maps answers.
	GoogleMapsName = "google_maps"
	// DefaultGoogleMapsURL is the Google Maps Geocoding API endpoint.
	DefaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	baseURL    string
	suffix     string
	region     string
	bounds     spatial.Bounds
	httpClient *http.Client
}

// GoogleMapsOptions configures a GoogleMapsGeocoder.
type GoogleMapsOptions struct {
	APIKey  string
	BaseURL string
	Suffix  string
	Region  string // ccTLD bias, e.g. "fr"
	Bounds  spatial.Bounds
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(client *http.Client, opts GoogleMapsOptions) *GoogleMapsGeocoder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGoogleMapsURL
	}

	return &GoogleMapsGeocoder{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		suffix:     opts.Suffix,
		region:     opts.Region,
		bounds:     opts.Bounds,
		httpClient: client,
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string   `json:"formatted_address"`
		Types            []string `json:"types"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

var googleConfidence = map[string]float64{
	"ROOFTOP":            0.9,
	"RANGE_INTERPOLATED": 0.8,
	"GEOMETRIC_CENTER":   0.6,
	"APPROXIMATE":        0.3,
}

// Name implements Geocoder.
func (g *GoogleMapsGeocoder) Name() string {
	return GoogleMapsName
}

func (g *GoogleMapsGeocoder) requestURL(query string) string {
	params := url.Values{}
	params.Set("address", query+g.suffix)
	params.Set("key", g.apiKey)
	params.Set("bounds", fmt.Sprintf("%s,%s|%s,%s",
		spatial.FormatDegrees(g.bounds.South()), spatial.FormatDegrees(g.bounds.West()),
		spatial.FormatDegrees(g.bounds.North()), spatial.FormatDegrees(g.bounds.East())))

	if g.region != "" {
		params.Set("region", g.region)
	}

	return g.baseURL + "?" + params.Encode()
}

// Geocode implements Geocoder.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	body, err := getJSON(ctx, g.httpClient, g.requestURL(query), GoogleMapsName)
	if err != nil {
		return nil, err
	}

	var gmResp googleMapsResponse
	if err := json.Unmarshal(body, &gmResp); err != nil {
		return nil, malformedResponse(GoogleMapsName, err)
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return nil, &GeocodingError{Type: ErrorTypeQuotaExceeded, Provider: GoogleMapsName, Message: gmResp.Status}
	case "REQUEST_DENIED", "INVALID_REQUEST":
		return nil, &GeocodingError{
			Type:     ErrorTypeInvalidRequest,
			Provider: GoogleMapsName,
			Message:  gmResp.Status + " " + gmResp.ErrorMessage,
		}
	default:
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Provider: GoogleMapsName, Message: "status " + gmResp.Status}
	}

	if len(gmResp.Results) == 0 {
		return nil, nil
	}

	result := gmResp.Results[0]
	p := spatial.Point{Lat: result.Geometry.Location.Lat, Lng: result.Geometry.Location.Lng}

	if !g.bounds.ContainsPoint(p) {
		return nil, nil
	}

	var kind string
	if len(result.Types) > 0 {
		kind = result.Types[0]
	}

	confidence, ok := googleConfidence[result.Geometry.LocationType]
	if !ok {
		confidence = googleConfidence["APPROXIMATE"]
	}

	return &GeocodingResult{
		Point:       p,
		Confidence:  confidence,
		Provider:    GoogleMapsName,
		DisplayName: result.FormattedAddress,
		Type:        kind,
	}, nil
}

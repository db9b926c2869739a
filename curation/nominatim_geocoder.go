// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jcodagnone/geofix/spatial"
	"github.com/jcodagnone/geofix/utils/httputils"
	"github.com/tidwall/gjson"
)

const (
	// NominatimName is the source recorded for Nominatim answers.
	NominatimName = "Nominatim"
	// DefaultNominatimURL is the public OpenStreetMap instance.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

	nominatimDefaultConfidence = 0.5
)

// NominatimGeocoder queries an OpenStreetMap Nominatim instance. Usage
// policy: one request per second and an identifying User-Agent, both
// provided by the caller.
type NominatimGeocoder struct {
	baseURL     string
	suffix      string
	countryCode string
	bounds      spatial.Bounds
	httpClient  *http.Client
}

// NominatimOptions configures a NominatimGeocoder.
type NominatimOptions struct {
	BaseURL     string
	Suffix      string // locality hint appended to queries, e.g. ", Paris, France"
	CountryCode string
	Bounds      spatial.Bounds
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(client *http.Client, opts NominatimOptions) *NominatimGeocoder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}

	return &NominatimGeocoder{
		baseURL:     opts.BaseURL,
		suffix:      opts.Suffix,
		countryCode: opts.CountryCode,
		bounds:      opts.Bounds,
		httpClient:  client,
	}
}

// Name implements Geocoder.
func (g *NominatimGeocoder) Name() string {
	return NominatimName
}

func (g *NominatimGeocoder) requestURL(query string) string {
	params := url.Values{}
	params.Set("q", query+g.suffix)
	params.Set("format", "json")
	params.Set("limit", "3")
	params.Set("bounded", "1")
	params.Set("viewbox", g.bounds.Viewbox())

	if g.countryCode != "" {
		params.Set("countrycodes", g.countryCode)
	}

	return g.baseURL + "?" + params.Encode()
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	body, err := getJSON(ctx, g.httpClient, g.requestURL(query), NominatimName)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, malformedResponse(NominatimName, errors.New("invalid JSON"))
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		// errors come back as {"error": {...}}
		if msg := doc.Get("error.message"); msg.Exists() {
			return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Provider: NominatimName, Message: msg.String()}
		}

		return nil, malformedResponse(NominatimName, errors.New("expected a JSON array"))
	}

	candidates := doc.Array()
	if len(candidates) == 0 {
		return nil, nil
	}

	first := candidates[0]
	lat, lon := first.Get("lat"), first.Get("lon")

	if !lat.Exists() || !lon.Exists() {
		return nil, malformedResponse(NominatimName, errors.New("candidate without lat/lon"))
	}

	p := spatial.Point{Lat: lat.Float(), Lng: lon.Float()}
	if !p.IsFinite() || !g.bounds.ContainsPoint(p) {
		return nil, nil
	}

	confidence := nominatimDefaultConfidence
	if importance := first.Get("importance"); importance.Exists() && importance.Type == gjson.Number {
		confidence = clamp01(importance.Float())
	}

	return &GeocodingResult{
		Point:       p,
		Confidence:  confidence,
		Provider:    NominatimName,
		DisplayName: first.Get("display_name").String(),
		Type:        first.Get("type").String(),
	}, nil
}

// getJSON issues a GET and returns the body of a 200 response. Anything else
// is a *GeocodingError.
func getJSON(ctx context.Context, client *http.Client, reqURL, provider string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Provider: provider, Message: "building request", Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		// *url.Error carries the request URL, API key included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = httputils.RedactSecrets(urlErr.URL)
		}

		return nil, classifyTransportError(err, provider)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, provider)
	}

	const maxBody = 4 << 20

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, classifyTransportError(fmt.Errorf("reading body: %w", err), provider)
	}

	return body, nil
}

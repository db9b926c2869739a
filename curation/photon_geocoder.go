// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/geofix/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	// PhotonName is the source recorded for Photon answers.
	PhotonName = "Photon"
	// DefaultPhotonURL is the public komoot instance.
	DefaultPhotonURL = "https://photon.komoot.io/api/"

	// Photon does not score its matches.
	photonConfidence = 0.7
)

// PhotonGeocoder queries a Photon instance. Answers are GeoJSON feature
// collections.
type PhotonGeocoder struct {
	baseURL    string
	suffix     string
	lang       string
	bounds     spatial.Bounds
	httpClient *http.Client
}

// PhotonOptions configures a PhotonGeocoder.
type PhotonOptions struct {
	BaseURL string
	Suffix  string // locality hint appended to queries, e.g. ", Paris"
	Lang    string
	Bounds  spatial.Bounds
}

// NewPhotonGeocoder creates a new Photon geocoder.
func NewPhotonGeocoder(client *http.Client, opts PhotonOptions) *PhotonGeocoder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultPhotonURL
	}

	return &PhotonGeocoder{
		baseURL:    opts.BaseURL,
		suffix:     opts.Suffix,
		lang:       opts.Lang,
		bounds:     opts.Bounds,
		httpClient: client,
	}
}

// Name implements Geocoder.
func (g *PhotonGeocoder) Name() string {
	return PhotonName
}

func (g *PhotonGeocoder) requestURL(query string) string {
	params := url.Values{}
	params.Set("q", query+g.suffix)
	params.Set("limit", "3")
	params.Set("bbox", g.bounds.BBox())

	if g.lang != "" {
		params.Set("lang", g.lang)
	}

	return g.baseURL + "?" + params.Encode()
}

// Geocode implements Geocoder.
func (g *PhotonGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	body, err := getJSON(ctx, g.httpClient, g.requestURL(query), PhotonName)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, malformedResponse(PhotonName, err)
	}

	if len(fc.Features) == 0 {
		return nil, nil
	}

	first := fc.Features[0]

	pt, ok := first.Geometry.(orb.Point)
	if !ok {
		return nil, malformedResponse(PhotonName, errors.New("first feature is not a point"))
	}

	// GeoJSON positions are [lng, lat]
	p := spatial.Point{Lat: pt.Lat(), Lng: pt.Lon()}
	if !p.IsFinite() || !g.bounds.ContainsPoint(p) {
		return nil, nil
	}

	return &GeocodingResult{
		Point:       p,
		Confidence:  photonConfidence,
		Provider:    PhotonName,
		DisplayName: photonDisplayName(first.Properties),
		Type:        first.Properties.MustString("osm_value", ""),
	}, nil
}

func photonDisplayName(props geojson.Properties) string {
	var parts []string

	street := props.MustString("street", "")
	if n := props.MustString("housenumber", ""); n != "" && street != "" {
		street = n + " " + street
	}

	for _, s := range []string{
		props.MustString("name", ""),
		street,
		props.MustString("postcode", ""),
		props.MustString("city", ""),
	} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, ", ")
}

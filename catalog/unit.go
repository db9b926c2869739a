// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog reads and writes catalog units: JSON documents holding the
// places of one administrative zone grouped by category.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jcodagnone/geofix/spatial"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ErrMalformedUnit is returned when a catalog unit can't be understood.
var ErrMalformedUnit = errors.New("malformed catalog unit")

var zoneDigits = regexp.MustCompile(`(\d+)`)

// Geocoding is the provenance block attached to a corrected place.
type Geocoding struct {
	Source         string         `json:"source"`
	Confidence     float64        `json:"confidence"`
	CorrectedAt    time.Time      `json:"corrected_at"`
	OldCoordinates *spatial.Point `json:"old_coordinates"`
}

// Place is a single point of interest of a catalog unit.
type Place struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Category string `json:"category"`
	// Index is the position of the place within its category list.
	Index       int            `json:"-"`
	Coordinates *spatial.Point `json:"coordinates"`
	// Malformed is set when coordinates are present but aren't a pair of
	// finite numbers. Coordinates is nil in that case.
	Malformed bool       `json:"malformed,omitempty"`
	Geocoding *Geocoding `json:"geocoding,omitempty"`
}

// Key identifies the place within its category.
func (p *Place) Key() string {
	if p.ID != "" {
		return p.ID
	}

	return p.Name
}

// Category groups the places of a unit sharing a category key.
type Category struct {
	Key    string
	Places []Place
}

// Unit is a parsed catalog unit. Units are never modified in place, see
// WithChanges.
type Unit struct {
	// Name is the file name of the unit.
	Name string
	// Zone is the declared zone (arrondissement) id.
	Zone string
	// Center is the declared zone center, if any.
	Center     *spatial.Point
	Categories []Category

	root string // gjson path of the object holding "categories"
	raw  []byte
}

// Change describes the correction of a single place.
type Change struct {
	Category    string
	Index       int
	Coordinates spatial.Point
	Geocoding   *Geocoding
}

// Parse builds a Unit from its JSON document. The document order of
// categories and places is preserved.
func Parse(name string, data []byte) (*Unit, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", ErrMalformedUnit, name)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: %s: document is not an object", ErrMalformedUnit, name)
	}

	u := &Unit{
		Name: name,
		raw:  bytes.Clone(data),
	}

	zone := doc
	if a := doc.Get("arrondissement"); a.IsObject() {
		zone = a
		u.root = "arrondissement."
	}

	categories := zone.Get("categories")
	if !categories.IsObject() {
		return nil, fmt.Errorf("%w: %s: missing categories object", ErrMalformedUnit, name)
	}

	u.Zone = zone.Get("id").String()
	if u.Zone == "" {
		u.Zone = zoneDigits.FindString(name)
	}

	if center, ok := parsePoint(zone.Get("center")); ok {
		u.Center = center
	}

	var err error

	categories.ForEach(func(key, value gjson.Result) bool {
		category := Category{Key: key.String()}

		places := value.Get("places")
		if places.Exists() && !places.IsArray() {
			err = fmt.Errorf("%w: %s: places of %q is not a list", ErrMalformedUnit, name, category.Key)

			return false
		}

		for i, p := range places.Array() {
			if !p.IsObject() {
				err = fmt.Errorf("%w: %s: place %d of %q is not an object", ErrMalformedUnit, name, i, category.Key)

				return false
			}

			category.Places = append(category.Places, parsePlace(category.Key, i, p))
		}

		u.Categories = append(u.Categories, category)

		return true
	})

	if err != nil {
		return nil, err
	}

	return u, nil
}

func parsePlace(category string, index int, v gjson.Result) Place {
	place := Place{
		ID:       v.Get("id").String(),
		Name:     v.Get("name").String(),
		Address:  v.Get("address").String(),
		Category: category,
		Index:    index,
	}

	coords := v.Get("coordinates")
	switch {
	case !coords.Exists() || coords.Type == gjson.Null:
	case coords.IsArray() && len(coords.Array()) == 0:
	default:
		if p, ok := parsePoint(coords); ok {
			place.Coordinates = p
		} else {
			place.Malformed = true
		}
	}

	if g := v.Get("geocoding"); g.IsObject() {
		var geocoding Geocoding
		if json.Unmarshal([]byte(g.Raw), &geocoding) == nil {
			place.Geocoding = &geocoding
		}
	}

	return place
}

func parsePoint(v gjson.Result) (*spatial.Point, bool) {
	if !v.IsArray() {
		return nil, false
	}

	values := v.Array()
	if len(values) != 2 || values[0].Type != gjson.Number || values[1].Type != gjson.Number {
		return nil, false
	}

	p := &spatial.Point{Lat: values[0].Float(), Lng: values[1].Float()}
	if !p.IsFinite() {
		return nil, false
	}

	return p, true
}

// Places returns every place of the unit in catalog order: category, then
// list order.
func (u *Unit) Places() []Place {
	var ret []Place
	for _, c := range u.Categories {
		ret = append(ret, c.Places...)
	}

	return ret
}

// Raw returns a copy of the JSON document.
func (u *Unit) Raw() []byte {
	return bytes.Clone(u.raw)
}

func (u *Unit) placePath(category string, index int) string {
	return u.root + "categories." + gjson.Escape(category) + ".places." + strconv.Itoa(index)
}

// WithChanges returns a new unit with the changes applied. Every other field
// of the document is preserved as is.
func (u *Unit) WithChanges(changes []Change) (*Unit, error) {
	if len(changes) == 0 {
		return u, nil
	}

	raw := u.Raw()

	for _, c := range changes {
		path := u.placePath(c.Category, c.Index)
		if !gjson.GetBytes(raw, path).IsObject() {
			return nil, fmt.Errorf("no place %d in category %q of %s", c.Index, c.Category, u.Name)
		}

		var err error
		if raw, err = sjson.SetBytes(raw, path+".coordinates", c.Coordinates); err != nil {
			return nil, fmt.Errorf("setting coordinates of %s: %w", path, err)
		}

		if c.Geocoding != nil {
			if raw, err = sjson.SetBytes(raw, path+".geocoding", c.Geocoding); err != nil {
				return nil, fmt.Errorf("setting geocoding of %s: %w", path, err)
			}
		}
	}

	raw = pretty.PrettyOptions(raw, &pretty.Options{Width: 80, Indent: "  "})

	return Parse(u.Name, raw)
}

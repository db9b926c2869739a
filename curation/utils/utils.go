// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// "17 ", "17bis ", "5 ter, ", "3B ", "12-14 "
	streetNumber = regexp.MustCompile(`(?i)^\s*\d+(\s*-\s*\d+)?(\s*(bis|ter|quater|[a-d]))?\b[\s,]*`)
	digits       = regexp.MustCompile(`\d+`)
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// NormalizeQuery trims a geocoding query and collapses internal whitespace.
// Case and accents are kept: providers care about them.
func NormalizeQuery(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripStreetNumber removes the leading street number of an address.
func StripStreetNumber(address string) string {
	return strings.TrimSpace(streetNumber.ReplaceAllString(address, ""))
}

// ZoneNumber extracts the zone number of a zone id, label or file name
// ("1", "1er", "arrondissement-16.json"). It returns 0 if there is none.
func ZoneNumber(s string) int {
	m := digits.FindString(s)
	if m == "" {
		return 0
	}

	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}

	return n
}

// ZoneLabel is the French ordinal label of an arrondissement: "1er", "2ème".
func ZoneLabel(n int) string {
	if n == 1 {
		return "1er"
	}

	return strconv.Itoa(n) + "ème"
}

// SameZone reports whether two zone designations name the same zone. Numbers
// are compared first, then the folded labels.
func SameZone(a, b string) bool {
	if na, nb := ZoneNumber(a), ZoneNumber(b); na != 0 || nb != 0 {
		return na == nb
	}

	return LowerASCIIFolding(a) == LowerASCIIFolding(b)
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}

// FormatMeters prints a distance rounded to the meter, or in km above 1000 m.
func FormatMeters(m float64) string {
	if m >= 1000 {
		return strconv.FormatFloat(m/1000, 'f', 2, 64) + " km"
	}

	return FormatInt(int64(m+0.5)) + " m"
}

// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerAsciiFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Áéíóú", "aeiou"},
		{"1er Arrondissement", "1er arrondissement"},
		{"Crème Brûlée", "creme brulee"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Louvre", "Louvre"},
		{"  Tour Eiffel,   Champ de Mars ", "Tour Eiffel, Champ de Mars"},
		{"Café\tde\nFlore", "Café de Flore"},
		{"   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeQuery(tc.input))
		})
	}
}

func TestStripStreetNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"17 Rue de Beaujolais, 75001 Paris", "Rue de Beaujolais, 75001 Paris"},
		{"17bis Rue de Beaujolais", "Rue de Beaujolais"},
		{"5 ter, Rue Villedo", "Rue Villedo"},
		{"3B Rue X", "Rue X"},
		{"12-14 Rue de la Paix", "Rue de la Paix"},
		{"3 Allée des Cygnes", "Allée des Cygnes"},
		{"Place du Palais-Royal, 75001 Paris", "Place du Palais-Royal, 75001 Paris"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripStreetNumber(tc.input))
		})
	}
}

func TestZones(t *testing.T) {
	assert.Equal(t, 16, ZoneNumber("arrondissement-16.json"))
	assert.Equal(t, 1, ZoneNumber("1er"))
	assert.Equal(t, 0, ZoneNumber("Marais"))

	assert.Equal(t, "1er", ZoneLabel(1))
	assert.Equal(t, "7ème", ZoneLabel(7))

	assert.True(t, SameZone("7", "7ème"))
	assert.True(t, SameZone("1er", "arrondissement-1.json"))
	assert.False(t, SameZone("1", "11"))
	assert.False(t, SameZone("Marais", "8"))
	assert.True(t, SameZone("Le Marais", "le marais"))
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{12, "12"},
		{123, "123"},
		{1234, "1,234"},
		{12345, "12,345"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1, "-1"},
		{-12, "-12"},
		{-123, "-123"},
		{-1234, "-1,234"},
		{-12345, "-12,345"},
		{-123456, "-123,456"},
		{-1234567, "-1,234,567"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatInt(tc.input))
		})
	}
}

func TestFormatMeters(t *testing.T) {
	assert.Equal(t, "0 m", FormatMeters(0))
	assert.Equal(t, "473 m", FormatMeters(472.6))
	assert.Equal(t, "3.07 km", FormatMeters(3068))
}

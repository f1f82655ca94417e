// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// apostrophes folds apostrophe look-alikes to a straight apostrophe.
var apostrophes = strings.NewReplacer(
	"’", "'", // right single quotation mark
	"‘", "'", // left single quotation mark
	"´", "'", // acute accent
	"ʼ", "'", // modifier letter apostrophe
	"`", "'",
)

// canonicalCities maps normalized keys to the display spelling the
// directory uses. Keys must already be in NormalizeCity form.
var canonicalCities = map[string]string{
	"coeur d'alene":  "Coeur d'Alene",
	"coeur dalene":   "Coeur d'Alene",
	"coeur d' alene": "Coeur d'Alene",
	"spokane":        "Spokane",
	"spokane valley": "Spokane Valley",
	"post falls":     "Post Falls",
	"liberty lake":   "Liberty Lake",
	"mt. spokane":    "Mt. Spokane",
	"mount spokane":  "Mt. Spokane",
	"airway heights": "Airway Heights",
	"deer park":      "Deer Park",
}

// NormalizeCity returns the lookup key for a city name. The key is never
// shown to users. NormalizeCity is idempotent.
func NormalizeCity(city string) string {
	key := strings.ToLower(city)
	key = apostrophes.Replace(key)
	key = norm.NFC.String(key)
	return strings.TrimSpace(key)
}

// CanonicalCity returns the canonical spelling of city when one is known,
// otherwise the trimmed input.
func CanonicalCity(city string) string {
	if canonical, ok := canonicalCities[NormalizeCity(city)]; ok {
		return canonical
	}
	return strings.TrimSpace(city)
}

// DedupeCities collapses spelling variants to one display string per
// city. Nil and blank entries are skipped, the first spelling of an
// unknown city wins, and the result is sorted.
func DedupeCities(cities []*string) []string {
	seen := make(map[string]struct{}, len(cities))
	out := make([]string, 0, len(cities))

	for _, c := range cities {
		if c == nil {
			continue
		}
		raw := strings.TrimSpace(*c)
		if raw == "" {
			continue
		}

		key := NormalizeCity(raw)
		display, ok := canonicalCities[key]
		if ok {
			// Aliases of one canonical city share a key.
			key = NormalizeCity(display)
		} else {
			display = raw
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, display)
	}

	slices.Sort(out)
	return out
}

// Package places canonicalizes free-text place names.
//
// A small alias table maps spellings such as "nyc", "Manhattan" or "new york"
// to one canonical city name. Lookups never fail: text that matches no alias
// comes back trimmed and otherwise unchanged.
package places

import (
	"regexp"
	"strings"
)

// City is one canonical city with its known aliases and a reference point.
type City struct {
	Name    string
	Aliases []string
	Lat     float64
	Lng     float64
}

// cities is checked in order; the first city with a matching alias wins.
var cities = []City{
	{Name: "New York City", Aliases: []string{"nyc", "new york", "manhattan", "new york city"}, Lat: 40.7128, Lng: -74.0060},
	{Name: "Los Angeles", Aliases: []string{"la", "los angeles"}, Lat: 34.0522, Lng: -118.2437},
	{Name: "San Francisco", Aliases: []string{"sf", "san francisco"}, Lat: 37.7749, Lng: -122.4194},
	{Name: "Copenhagen", Aliases: []string{"copenhagen", "kobenhavn"}, Lat: 55.6761, Lng: 12.5683},
	{Name: "Washington, DC", Aliases: []string{"dc", "washington", "washington dc", "washington, dc"}, Lat: 38.9072, Lng: -77.0369},
	{Name: "London", Aliases: []string{"london"}, Lat: 51.5074, Lng: -0.1278},
	{Name: "Paris", Aliases: []string{"paris"}, Lat: 48.8566, Lng: 2.3522},
}

// aliasPatterns holds one word-bounded pattern per city, in table order.
var aliasPatterns = buildAliasPatterns()

func buildAliasPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(cities))
	for i, c := range cities {
		quoted := make([]string, len(c.Aliases))
		for j, a := range c.Aliases {
			quoted[j] = regexp.QuoteMeta(a)
		}
		out[i] = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return out
}

// Normalize returns the canonical city whose alias occurs anywhere in text,
// compared case-insensitively. Without a match the trimmed input is returned.
func Normalize(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, c := range cities {
		for _, alias := range c.Aliases {
			if strings.Contains(lower, alias) {
				return c.Name
			}
		}
	}
	return trimmed
}

// Known reports whether text contains any city alias, including a canonical
// name written exactly.
func Known(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	for _, c := range cities {
		for _, alias := range c.Aliases {
			if strings.Contains(lower, alias) {
				return true
			}
		}
	}
	return false
}

// Match searches a whole line for a city alias standing as its own word and
// returns the canonical city together with the matched text as written.
func Match(line string) (city, matched string, ok bool) {
	for i, re := range aliasPatterns {
		if m := re.FindString(line); m != "" {
			return cities[i].Name, m, true
		}
	}
	return "", "", false
}

// Lookup returns the reference coordinates of a city name or alias.
func Lookup(text string) (lat, lng float64, ok bool) {
	name := Normalize(text)
	for _, c := range cities {
		if c.Name == name {
			return c.Lat, c.Lng, true
		}
	}
	return 0, 0, false
}

// Cities returns a copy of the canonical city table.
func Cities() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// GeoLabel picks the city a contact is associated with: an explicit city
// first, then tags or a place label when they name a known city.
func GeoLabel(city, tags, placeLabel string) string {
	if strings.TrimSpace(city) != "" {
		return Normalize(city)
	}
	for _, s := range []string{tags, placeLabel} {
		if Known(s) {
			return Normalize(s)
		}
	}
	return ""
}

package relevance

import (
	"sort"

	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// MaxPresenceCities caps the cities returned by CityPresence.
const MaxPresenceCities = 8

// CityPresence is how strongly a city features in the network, in
// [0.35, 1].
type CityPresence struct {
	City      string  `json:"city" yaml:"city"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

// CityPresence weighs each person's city as 1, each note as 0.5 and each trip
// as 1.5, and returns the strongest cities first.
func (s *Scorer) CityPresence(persons []people.Person, trips []people.Trip, notes []people.NoteWithPerson) []CityPresence {
	cities := newCityTally()
	for _, p := range persons {
		cities.add(firstNonEmpty(p.City, p.PlaceLabel), 1)
	}
	for _, item := range notes {
		cities.add(noteCity(item), 0.5)
	}
	for _, t := range trips {
		cities.add(t.City, 1.5)
	}

	maxCount := max(1, cities.max())
	out := make([]CityPresence, 0, len(cities.order))
	for _, c := range cities.order {
		out = append(out, CityPresence{City: c, Intensity: 0.35 + cities.counts[c]/maxCount*0.65})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Intensity > out[j].Intensity })
	if len(out) > MaxPresenceCities {
		out = out[:MaxPresenceCities]
	}
	return out
}

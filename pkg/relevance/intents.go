package relevance

import (
	"fmt"
	"sort"

	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/places"
)

// MaxIntentCards caps the cards returned by IntentCards.
const MaxIntentCards = 5

// Intent reasons, highest priority first.
const (
	ReasonTripSoon    = "You will be in %s soon"
	ReasonRecent      = "You met them recently"
	ReasonStrongQuiet = "Strong connection, quiet lately"
	ReasonLongQuiet   = "You have not logged anything in a while"
	ReasonOneOff      = "A one-off worth remembering"
)

// IntentCard is one suggested reason to get in touch.
type IntentCard struct {
	ID       string  `json:"id" yaml:"id"`
	PersonID string  `json:"person_id" yaml:"person_id"`
	Name     string  `json:"name" yaml:"name"`
	Reason   string  `json:"reason" yaml:"reason"`
	Context  string  `json:"context,omitempty" yaml:"context,omitempty"`
	Score    float64 `json:"score" yaml:"score"`
}

// IntentCards gives each person at most one reason, the first rule that
// matches, and returns the best MaxIntentCards. Equal scores keep the order
// of persons. trip may be nil.
func (s *Scorer) IntentCards(persons []people.Person, notes []people.NoteWithPerson, trip *people.Trip) []IntentCard {
	now := s.clock.Now()
	st := collectNoteStats(notes)

	var tripCity string
	if trip != nil && trip.City != "" {
		tripCity = places.Normalize(trip.City)
	}

	var cards []IntentCard
	for _, p := range persons {
		days := daysSince(now, st.lastRelevant(p))
		count := st.count[p.ID]

		var reason string
		var score float64
		switch {
		case tripCity != "" && p.City != "" && places.Normalize(p.City) == tripCity:
			reason, score = fmt.Sprintf(ReasonTripSoon, trip.City), 5
		case days <= 7:
			reason, score = ReasonRecent, 4
		case count >= 4 && days >= 30:
			reason, score = ReasonStrongQuiet, 3.8
		case days >= 60:
			reason, score = ReasonLongQuiet, 3.4
		case count == 1 && days >= 45:
			reason, score = ReasonOneOff, 3.1
		default:
			continue
		}

		var latestLabel string
		if n, ok := st.latest[p.ID]; ok {
			latestLabel = n.Note.PlaceLabel
		}
		cards = append(cards, IntentCard{
			ID:       p.ID + "-" + reason,
			PersonID: p.ID,
			Name:     p.Name,
			Reason:   reason,
			Context:  firstNonEmpty(p.City, p.PlaceLabel, latestLabel),
			Score:    score,
		})
	}

	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Score > cards[j].Score })
	if len(cards) > MaxIntentCards {
		cards = cards[:MaxIntentCards]
	}
	return cards
}

package relevance

import (
	"fmt"

	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// DriftingAfterDays is how long without contact counts as drifting.
const DriftingAfterDays = 45

// Nudge texts.
const (
	NudgeExpanding = "You have been expanding in %s lately."
	NudgeDrifting  = "Someone you met recently is drifting."
	NudgeFamiliar  = "A place you visit often keeps showing up."
)

// Nudge returns one line of encouragement, or false when there is nothing to
// say. Showing it at most once a day is up to the caller.
func (s *Scorer) Nudge(persons []people.Person, notes []people.NoteWithPerson) (string, bool) {
	cities := newCityTally()
	for _, item := range notes {
		cities.add(noteCity(item), 1)
	}
	topCity, topCount := cities.top()
	if topCity != "" && topCount >= 2 {
		return fmt.Sprintf(NudgeExpanding, topCity), true
	}

	now := s.clock.Now()
	for _, p := range persons {
		last := p.CreatedAt
		if p.LastInteractionAt != nil {
			last = *p.LastInteractionAt
		}
		if daysSince(now, last) >= DriftingAfterDays {
			return NudgeDrifting, true
		}
	}

	if topCity != "" {
		return NudgeFamiliar, true
	}
	return "", false
}

// Package relevance ranks contacts worth resurfacing. Everything here is a
// pure function of a people and notes snapshot and the scorer's clock.
package relevance

import (
	"math"
	"time"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/places"
)

// Scorer computes rankings relative to its clock.
type Scorer struct {
	clock clock.Clock
}

// NewScorer creates a Scorer. A nil clock uses the system clock.
func NewScorer(c clock.Clock) *Scorer {
	if c == nil {
		c = clock.System{}
	}
	return &Scorer{clock: c}
}

// daysSince returns whole days elapsed from t to now, rounded down.
func daysSince(now, t time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// noteStats aggregates notes per person.
type noteStats struct {
	count      map[string]int
	contextual map[string]int
	latest     map[string]people.NoteWithPerson
}

func collectNoteStats(notes []people.NoteWithPerson) noteStats {
	st := noteStats{
		count:      make(map[string]int),
		contextual: make(map[string]int),
		latest:     make(map[string]people.NoteWithPerson),
	}
	for _, item := range notes {
		id := item.Person.ID
		st.count[id]++
		if prev, ok := st.latest[id]; !ok || item.Note.CreatedAt.After(prev.Note.CreatedAt) {
			st.latest[id] = item
		}
		if isContextual(item.Note) {
			st.contextual[id]++
		}
	}
	return st
}

// lastRelevant is the latest of the newest note, the last interaction and
// the creation time.
func (st noteStats) lastRelevant(p people.Person) time.Time {
	last := p.CreatedAt
	if p.LastInteractionAt != nil && p.LastInteractionAt.After(last) {
		last = *p.LastInteractionAt
	}
	if n, ok := st.latest[p.ID]; ok && n.Note.CreatedAt.After(last) {
		last = n.Note.CreatedAt
	}
	return last
}

// cityTally counts weighted mentions per normalized city, remembering the
// order cities were first seen so ties resolve the same way every time.
type cityTally struct {
	order  []string
	counts map[string]float64
}

func newCityTally() *cityTally {
	return &cityTally{counts: make(map[string]float64)}
}

func (t *cityTally) add(label string, amount float64) {
	if label == "" {
		return
	}
	city := places.Normalize(label)
	if _, seen := t.counts[city]; !seen {
		t.order = append(t.order, city)
	}
	t.counts[city] += amount
}

func (t *cityTally) countFor(label string) float64 {
	return t.counts[places.Normalize(label)]
}

func (t *cityTally) max() float64 {
	m := 0.0
	for _, v := range t.counts {
		m = math.Max(m, v)
	}
	return m
}

// top returns the first city with the highest count.
func (t *cityTally) top() (string, float64) {
	var city string
	best := 0.0
	for _, c := range t.order {
		if t.counts[c] > best {
			city, best = c, t.counts[c]
		}
	}
	return city, best
}

// noteCity is the place a note is attributed to: the owner's city, then the
// owner's place label, then the note's own label.
func noteCity(item people.NoteWithPerson) string {
	return firstNonEmpty(item.Person.City, item.Person.PlaceLabel, item.Note.PlaceLabel)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

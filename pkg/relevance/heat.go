package relevance

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// Heat weights and limits.
const (
	RecencyWeight   = 0.5
	FrequencyWeight = 0.3
	ContextWeight   = 0.1
	GeoWeight       = 0.1

	MaxHeatNodes   = 30
	MinRankedNodes = 10
	PaddedNodes    = 12
)

// Node colors.
const (
	WarmColor = "#E2C4A4"
	CoolColor = "#B9C7D6"
)

var contextKeywords = []string{
	"met", "coffee", "dinner", "lunch", "breakfast", "hotel",
	"restaurant", "bar", "lounge", "cafe", "trip",
}

// HeatNode is one positioned marker. X and Y are fractions of the canvas.
// Filler nodes pad sparse layouts and carry no person or score.
type HeatNode struct {
	ID       string  `json:"id" yaml:"id"`
	PersonID string  `json:"person_id,omitempty" yaml:"person_id,omitempty"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Score    float64 `json:"score" yaml:"score"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Size     float64 `json:"size" yaml:"size"`
	Opacity  float64 `json:"opacity" yaml:"opacity"`
	Color    string  `json:"color" yaml:"color"`
	Filler   bool    `json:"filler,omitempty" yaml:"filler,omitempty"`
}

func isContextual(n people.Note) bool {
	if n.PlaceLabel != "" {
		return true
	}
	content := strings.ToLower(n.Content)
	for _, kw := range contextKeywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

// NetworkHeat scores every person and returns the top nodes, highest score
// first. Positions depend only on seedKey and the person ID, so the same day
// key always yields the same layout. Fewer than MinRankedNodes scored nodes
// are padded with filler up to PaddedNodes.
func (s *Scorer) NetworkHeat(persons []people.Person, notes []people.NoteWithPerson, seedKey string) []HeatNode {
	now := s.clock.Now()
	st := collectNoteStats(notes)

	cities := newCityTally()
	for _, item := range notes {
		cities.add(noteCity(item), 1)
	}
	maxCity := max(1, cities.max())

	nodes := make([]HeatNode, 0, len(persons))
	for _, p := range persons {
		recency := clamp01(1 - float64(daysSince(now, st.lastRelevant(p)))/60)
		frequency := clamp01(float64(st.count[p.ID]) / 5)
		context := clamp01(float64(st.contextual[p.ID]) / 3)
		geo := 0.0
		if label := firstNonEmpty(p.City, p.PlaceLabel); label != "" {
			geo = clamp01(cities.countFor(label) / maxCity)
		}
		score := RecencyWeight*recency + FrequencyWeight*frequency + ContextWeight*context + GeoWeight*geo
		nodes = append(nodes, HeatNode{ID: p.ID, PersonID: p.ID, Name: p.Name, Score: score})
	}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Score > nodes[j].Score })
	if len(nodes) > MaxHeatNodes {
		nodes = nodes[:MaxHeatNodes]
	}

	for i := range nodes {
		n := &nodes[i]
		r := seededRand(seedKey, n.PersonID)
		n.X = 0.08 + r.Float64()*0.84
		n.Y = 0.12 + r.Float64()*0.76
		n.Size = 6 + n.Score*14
		n.Opacity = 0.06 + n.Score*0.18
		n.Color = CoolColor
		if n.Score > 0.5 {
			n.Color = WarmColor
		}
	}

	if len(nodes) >= MinRankedNodes {
		return nodes
	}
	for i := 0; len(nodes) < PaddedNodes; i++ {
		r := seededRand(seedKey, "filler", strconv.Itoa(i))
		nodes = append(nodes, HeatNode{
			ID:      "filler-" + strconv.Itoa(i),
			X:       0.1 + r.Float64()*0.8,
			Y:       0.15 + r.Float64()*0.7,
			Size:    float64(6 + r.IntN(6)),
			Opacity: 0.05 + float64(r.IntN(10))/200,
			Color:   CoolColor,
			Filler:  true,
		})
	}
	return nodes
}

// seededRand returns a generator seeded from a stable hash of parts.
func seededRand(parts ...string) *rand.Rand {
	seed := xxhash.Sum64String(strings.Join(parts, "\x00"))
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

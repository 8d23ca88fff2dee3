package lineparse

import "time"

// Name confidence tiers, highest first.
const (
	ConfidenceNamed  = 0.9
	ConfidenceMet    = 0.75
	ConfidenceBigram = 0.6
	ConfidenceComma  = 0.55
	ConfidenceNone   = 0.2
)

// Candidate is the structured guess extracted from one line. Empty strings and
// a zero Age mean the field was not found.
type Candidate struct {
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	NameRule       string   `json:"name_rule,omitempty" yaml:"name_rule,omitempty"`
	Age            int      `json:"age,omitempty" yaml:"age,omitempty"`
	City           string   `json:"city,omitempty" yaml:"city,omitempty"`
	Venue          string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	PlaceCandidate string   `json:"place_candidate,omitempty" yaml:"place_candidate,omitempty"`
	Company        string   `json:"company,omitempty" yaml:"company,omitempty"`
	Occupation     string   `json:"occupation,omitempty" yaml:"occupation,omitempty"`
	Notes          string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Confidence     float64  `json:"confidence" yaml:"confidence"`
	FollowUp       FollowUp `json:"follow_up" yaml:"follow_up"`
}

// FollowUp records a request in the line to get back to the person.
type FollowUp struct {
	Needed bool       `json:"needed" yaml:"needed"`
	At     *time.Time `json:"at,omitempty" yaml:"at,omitempty"`
	// Phrase is the date expression that set At, if any.
	Phrase string `json:"phrase,omitempty" yaml:"phrase,omitempty"`
}

// HasName reports whether a name was extracted.
func (c Candidate) HasName() bool { return c.Name != "" }

// TypedGeo reports whether the line itself named a place or city.
func (c Candidate) TypedGeo() bool { return c.PlaceCandidate != "" || c.City != "" }

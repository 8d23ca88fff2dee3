// Package people holds the contact data model and the name-based resolver
// that finds or creates a Person and merges incoming fields into it.
package people

import (
	"strings"
	"time"
)

// Importance bounds and default.
const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// Coordinates is a latitude/longitude pair. Both values are always set together.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Person represents one contact.
type Person struct {
	ID                string       `json:"id" yaml:"id"`
	Name              string       `json:"name" yaml:"name"`
	City              string       `json:"city,omitempty" yaml:"city,omitempty"`
	Tags              string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Importance        int          `json:"importance" yaml:"importance"`
	LastInteractionAt *time.Time   `json:"last_interaction_at,omitempty" yaml:"last_interaction_at,omitempty"`
	PlaceLabel        string       `json:"place_label,omitempty" yaml:"place_label,omitempty"`
	Coords            *Coordinates `json:"coords,omitempty" yaml:"coords,omitempty"`
	PhoneContactID    string       `json:"phone_contact_id,omitempty" yaml:"phone_contact_id,omitempty"`
	PhoneNumber       string       `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	PreferredChannel  string       `json:"preferred_channel,omitempty" yaml:"preferred_channel,omitempty"`
	Age               int          `json:"age,omitempty" yaml:"age,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Note is a dated remark about a person.
type Note struct {
	ID            string       `json:"id" yaml:"id"`
	PersonID      string       `json:"person_id" yaml:"person_id"`
	Content       string       `json:"content" yaml:"content"`
	NeedsFollowUp bool         `json:"needs_follow_up" yaml:"needs_follow_up"`
	FollowUpAt    *time.Time   `json:"follow_up_at,omitempty" yaml:"follow_up_at,omitempty"`
	Coords        *Coordinates `json:"coords,omitempty" yaml:"coords,omitempty"`
	PlaceLabel    string       `json:"place_label,omitempty" yaml:"place_label,omitempty"`
	CreatedAt     time.Time    `json:"created_at" yaml:"created_at"`
}

// PersonSummary is the slice of a Person joined onto notes.
type PersonSummary struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	PlaceLabel string `json:"place_label,omitempty" yaml:"place_label,omitempty"`
}

// NoteWithPerson pairs a note with its owner's summary.
type NoteWithPerson struct {
	Note   Note          `json:"note" yaml:"note"`
	Person PersonSummary `json:"person" yaml:"person"`
}

// Trip is a planned visit to a city.
type Trip struct {
	ID        string     `json:"id" yaml:"id"`
	City      string     `json:"city" yaml:"city"`
	StartDate time.Time  `json:"start_date" yaml:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
}

// ReachoutStatus tracks whether a person was contacted ahead of a trip.
type ReachoutStatus string

const (
	ReachoutPending ReachoutStatus = "pending"
	ReachoutDone    ReachoutStatus = "done"
)

// TripReachout records the reach-out state for one person on one trip.
type TripReachout struct {
	ID        string         `json:"id" yaml:"id"`
	TripID    string         `json:"trip_id" yaml:"trip_id"`
	PersonID  string         `json:"person_id" yaml:"person_id"`
	Status    ReachoutStatus `json:"status" yaml:"status"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// ResolutionResult contains the outcome of an upsert.
type ResolutionResult struct {
	Person *Person `json:"person" yaml:"person"`
	IsNew  bool    `json:"is_new" yaml:"is_new"`
}

// Summary returns the joined view of p.
func (p *Person) Summary() PersonSummary {
	return PersonSummary{ID: p.ID, Name: p.Name, City: p.City, PlaceLabel: p.PlaceLabel}
}

// LastTouched is the most recent of LastInteractionAt and CreatedAt.
func (p *Person) LastTouched() time.Time {
	if p.LastInteractionAt != nil && p.LastInteractionAt.After(p.CreatedAt) {
		return *p.LastInteractionAt
	}
	return p.CreatedAt
}

// MentionsCity reports whether p's city, tags or place label contains city,
// ignoring case. Case folding covers non-ASCII letters.
func (p *Person) MentionsCity(city string) bool {
	q := strings.ToLower(city)
	return strings.Contains(strings.ToLower(p.City), q) ||
		strings.Contains(strings.ToLower(p.Tags), q) ||
		strings.Contains(strings.ToLower(p.PlaceLabel), q)
}

// NameKey is the case-insensitive lookup key for a name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

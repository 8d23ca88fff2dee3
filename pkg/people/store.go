package people

import (
	"context"
	"time"
)

// PersonStore persists people.
type PersonStore interface {
	// FindPersonByName returns the person whose name matches case-insensitively,
	// or nil when there is none.
	FindPersonByName(ctx context.Context, name string) (*Person, error)
	// GetPerson returns ErrNotFound for unknown IDs.
	GetPerson(ctx context.Context, id string) (*Person, error)
	CreatePerson(ctx context.Context, p *Person) error
	// UpdatePerson returns ErrNotFound for unknown IDs.
	UpdatePerson(ctx context.Context, p *Person) error
	// ListPeople returns everyone, most recently updated first.
	ListPeople(ctx context.Context) ([]Person, error)
	// ListPeopleForCity matches city, tags or place label containing city.
	ListPeopleForCity(ctx context.Context, city string) ([]Person, error)
}

// NoteStore persists notes.
type NoteStore interface {
	CreateNote(ctx context.Context, n *Note) error
	// ListRecentNotes returns up to limit notes, newest first.
	ListRecentNotes(ctx context.Context, limit int) ([]NoteWithPerson, error)
	ListNotesForPerson(ctx context.Context, personID string) ([]Note, error)
	// ListFollowUpsDue returns open follow-ups due at or before now, soonest first.
	ListFollowUpsDue(ctx context.Context, now time.Time) ([]NoteWithPerson, error)
	// MarkFollowUpDone returns ErrNotFound for unknown IDs.
	MarkFollowUpDone(ctx context.Context, noteID string) error
}

// TripStore persists trips and their reach-out state.
type TripStore interface {
	CreateTrip(ctx context.Context, t *Trip) error
	ListTrips(ctx context.Context) ([]Trip, error)
	// ListUpcomingTrips returns trips starting at or after now, soonest first.
	ListUpcomingTrips(ctx context.Context, now time.Time) ([]Trip, error)
	SetTripReachout(ctx context.Context, r *TripReachout) error
	ListTripReachouts(ctx context.Context, tripID string) ([]TripReachout, error)
}

// Store is the full persistence contract.
type Store interface {
	PersonStore
	NoteStore
	TripStore
	Close() error
}

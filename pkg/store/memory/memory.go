// Package memory is an in-process people.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// Store keeps everything in maps guarded by one lock. Records are copied on
// the way in and out.
type Store struct {
	mu        sync.RWMutex
	people    map[string]people.Person
	peopleSeq []string
	notes     map[string]people.Note
	notesSeq  []string
	trips     map[string]people.Trip
	tripsSeq  []string
	reachouts map[string]people.TripReachout
}

var _ people.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		people:    make(map[string]people.Person),
		notes:     make(map[string]people.Note),
		trips:     make(map[string]people.Trip),
		reachouts: make(map[string]people.TripReachout),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) FindPersonByName(_ context.Context, name string) (*people.Person, error) {
	key := people.NameKey(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.peopleSeq {
		p := s.people[id]
		if people.NameKey(p.Name) == key {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) GetPerson(_ context.Context, id string) (*people.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[id]
	if !ok {
		return nil, fmt.Errorf("person %s: %w", id, nnerrors.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) CreatePerson(_ context.Context, p *people.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[p.ID]; ok {
		return fmt.Errorf("person %s already exists", p.ID)
	}
	s.people[p.ID] = *p
	s.peopleSeq = append(s.peopleSeq, p.ID)
	return nil
}

func (s *Store) UpdatePerson(_ context.Context, p *people.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[p.ID]; !ok {
		return fmt.Errorf("person %s: %w", p.ID, nnerrors.ErrNotFound)
	}
	s.people[p.ID] = *p
	return nil
}

func (s *Store) ListPeople(_ context.Context) ([]people.Person, error) {
	s.mu.RLock()
	out := make([]people.Person, 0, len(s.peopleSeq))
	for _, id := range s.peopleSeq {
		out = append(out, s.people[id])
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) ListPeopleForCity(ctx context.Context, city string) ([]people.Person, error) {
	all, err := s.ListPeople(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.MentionsCity(city) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) CreateNote(_ context.Context, n *people.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[n.PersonID]; !ok {
		return fmt.Errorf("note owner %s: %w", n.PersonID, nnerrors.ErrNotFound)
	}
	s.notes[n.ID] = *n
	s.notesSeq = append(s.notesSeq, n.ID)
	return nil
}

func (s *Store) ListRecentNotes(_ context.Context, limit int) ([]people.NoteWithPerson, error) {
	s.mu.RLock()
	out := s.joinNotes(func(people.Note) bool { return true })
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Note.CreatedAt.After(out[j].Note.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListNotesForPerson(_ context.Context, personID string) ([]people.Note, error) {
	s.mu.RLock()
	var out []people.Note
	for _, id := range s.notesSeq {
		if n := s.notes[id]; n.PersonID == personID {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListFollowUpsDue(_ context.Context, now time.Time) ([]people.NoteWithPerson, error) {
	s.mu.RLock()
	out := s.joinNotes(func(n people.Note) bool {
		return n.NeedsFollowUp && n.FollowUpAt != nil && !n.FollowUpAt.After(now)
	})
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Note.FollowUpAt.Before(*out[j].Note.FollowUpAt)
	})
	return out, nil
}

func (s *Store) MarkFollowUpDone(_ context.Context, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok {
		return fmt.Errorf("note %s: %w", noteID, nnerrors.ErrNotFound)
	}
	n.NeedsFollowUp = false
	n.FollowUpAt = nil
	s.notes[noteID] = n
	return nil
}

// joinNotes must be called with the read lock held.
func (s *Store) joinNotes(keep func(people.Note) bool) []people.NoteWithPerson {
	var out []people.NoteWithPerson
	for _, id := range s.notesSeq {
		n := s.notes[id]
		if !keep(n) {
			continue
		}
		p, ok := s.people[n.PersonID]
		if !ok {
			continue
		}
		out = append(out, people.NoteWithPerson{Note: n, Person: p.Summary()})
	}
	return out
}

func (s *Store) CreateTrip(_ context.Context, t *people.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[t.ID] = *t
	s.tripsSeq = append(s.tripsSeq, t.ID)
	return nil
}

func (s *Store) ListTrips(_ context.Context) ([]people.Trip, error) {
	return s.tripsWhere(func(people.Trip) bool { return true }), nil
}

func (s *Store) ListUpcomingTrips(_ context.Context, now time.Time) ([]people.Trip, error) {
	return s.tripsWhere(func(t people.Trip) bool { return !t.StartDate.Before(now) }), nil
}

func (s *Store) tripsWhere(keep func(people.Trip) bool) []people.Trip {
	s.mu.RLock()
	var out []people.Trip
	for _, id := range s.tripsSeq {
		if t := s.trips[id]; keep(t) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

func (s *Store) SetTripReachout(_ context.Context, r *people.TripReachout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[r.TripID]; !ok {
		return fmt.Errorf("trip %s: %w", r.TripID, nnerrors.ErrNotFound)
	}
	key := r.TripID + "/" + r.PersonID
	if prev, ok := s.reachouts[key]; ok {
		r.ID = prev.ID
	}
	s.reachouts[key] = *r
	return nil
}

func (s *Store) ListTripReachouts(_ context.Context, tripID string) ([]people.TripReachout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []people.TripReachout
	for _, r := range s.reachouts {
		if r.TripID == tripID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

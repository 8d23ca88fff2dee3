// Package storetest is a conformance suite shared by the people.Store
// implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) people.Store

var base = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// Run runs every conformance test against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s people.Store)
	}{
		{"PersonRoundTrip", testPersonRoundTrip},
		{"FindByNameIgnoresCase", testFindByNameIgnoresCase},
		{"GetMissingPerson", testGetMissingPerson},
		{"UpdateMissingPerson", testUpdateMissingPerson},
		{"ListPeopleNewestFirst", testListPeopleNewestFirst},
		{"ListPeopleForCity", testListPeopleForCity},
		{"RecentNotesJoinPerson", testRecentNotesJoinPerson},
		{"NotesForPerson", testNotesForPerson},
		{"FollowUps", testFollowUps},
		{"UpcomingTrips", testUpcomingTrips},
		{"TripReachouts", testTripReachouts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func mustPerson(t *testing.T, s people.Store, id, name string, updated time.Time) *people.Person {
	t.Helper()
	p := &people.Person{
		ID:         id,
		Name:       name,
		Importance: people.DefaultImportance,
		CreatedAt:  updated,
		UpdatedAt:  updated,
	}
	require.NoError(t, s.CreatePerson(context.Background(), p))
	return p
}

func mustNote(t *testing.T, s people.Store, n people.Note) {
	t.Helper()
	require.NoError(t, s.CreateNote(context.Background(), &n))
}

func testPersonRoundTrip(t *testing.T, s people.Store) {
	ctx := context.Background()
	in := &people.Person{
		ID:                "p1",
		Name:              "Alex Kim",
		City:              "Los Angeles",
		Tags:              "design, la",
		Importance:        4,
		LastInteractionAt: ptr(base.Add(time.Hour)),
		PlaceLabel:        "Polo Lounge",
		Coords:            &people.Coordinates{Lat: 34.08, Lng: -118.41},
		PhoneContactID:    "c-9",
		PhoneNumber:       "+15550100",
		PreferredChannel:  "sms",
		Age:               29,
		CreatedAt:         base,
		UpdatedAt:         base,
	}
	require.NoError(t, s.CreatePerson(ctx, in))

	got, err := s.GetPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.City, got.City)
	assert.Equal(t, in.Tags, got.Tags)
	assert.Equal(t, in.Importance, got.Importance)
	require.NotNil(t, got.LastInteractionAt)
	assert.True(t, in.LastInteractionAt.Equal(*got.LastInteractionAt))
	assert.Equal(t, in.PlaceLabel, got.PlaceLabel)
	require.NotNil(t, got.Coords)
	assert.InDelta(t, 34.08, got.Coords.Lat, 1e-9)
	assert.InDelta(t, -118.41, got.Coords.Lng, 1e-9)
	assert.Equal(t, in.PhoneContactID, got.PhoneContactID)
	assert.Equal(t, in.PhoneNumber, got.PhoneNumber)
	assert.Equal(t, in.PreferredChannel, got.PreferredChannel)
	assert.Equal(t, 29, got.Age)
	assert.True(t, base.Equal(got.CreatedAt))

	got.City = ""
	got.Coords = nil
	got.LastInteractionAt = nil
	got.UpdatedAt = base.Add(2 * time.Hour)
	require.NoError(t, s.UpdatePerson(ctx, got))

	again, err := s.GetPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, again.City)
	assert.Nil(t, again.Coords)
	assert.Nil(t, again.LastInteractionAt)
	assert.True(t, base.Add(2*time.Hour).Equal(again.UpdatedAt))
}

func testFindByNameIgnoresCase(t *testing.T, s people.Store) {
	ctx := context.Background()
	mustPerson(t, s, "p1", "Alex Kim", base)

	got, err := s.FindPersonByName(ctx, "ALEX kim")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p1", got.ID)

	missing, err := s.FindPersonByName(ctx, "Alex")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testGetMissingPerson(t *testing.T, s people.Store) {
	_, err := s.GetPerson(context.Background(), "nope")
	assert.True(t, nnerrors.IsNotFound(err), "got %v", err)
}

func testUpdateMissingPerson(t *testing.T, s people.Store) {
	err := s.UpdatePerson(context.Background(), &people.Person{ID: "nope", Name: "X", Importance: 3})
	assert.True(t, nnerrors.IsNotFound(err), "got %v", err)
}

func testListPeopleNewestFirst(t *testing.T, s people.Store) {
	mustPerson(t, s, "old", "Old", base)
	mustPerson(t, s, "new", "New", base.Add(time.Hour))

	got, err := s.ListPeople(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
}

func testListPeopleForCity(t *testing.T, s people.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreatePerson(ctx, &people.Person{ID: "a", Name: "A", City: "Paris", Importance: 3, CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, s.CreatePerson(ctx, &people.Person{ID: "b", Name: "B", Tags: "paris trip", Importance: 3, CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, s.CreatePerson(ctx, &people.Person{ID: "c", Name: "C", City: "London", Importance: 3, CreatedAt: base, UpdatedAt: base}))

	got, err := s.ListPeopleForCity(ctx, "Paris")
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, s.CreatePerson(ctx, &people.Person{ID: "d", Name: "D", City: "München", Importance: 3, CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, s.CreatePerson(ctx, &people.Person{ID: "e", Name: "E", PlaceLabel: "Café Ölberg", Importance: 3, CreatedAt: base, UpdatedAt: base}))
	for query, want := range map[string]string{"MÜNCHEN": "d", "münchen": "d", "CAFÉ ÖL": "e"} {
		got, err := s.ListPeopleForCity(ctx, query)
		require.NoError(t, err)
		require.Len(t, got, 1, query)
		assert.Equal(t, want, got[0].ID, query)
	}
}

func testRecentNotesJoinPerson(t *testing.T, s people.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreatePerson(ctx, &people.Person{ID: "p1", Name: "Alex", City: "Paris", PlaceLabel: "Cafe Flore", Importance: 3, CreatedAt: base, UpdatedAt: base}))
	for i, content := range []string{"first", "second", "third"} {
		mustNote(t, s, people.Note{
			ID:        content,
			PersonID:  "p1",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	got, err := s.ListRecentNotes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Note.Content)
	assert.Equal(t, "second", got[1].Note.Content)
	assert.Equal(t, people.PersonSummary{ID: "p1", Name: "Alex", City: "Paris", PlaceLabel: "Cafe Flore"}, got[0].Person)
}

func testNotesForPerson(t *testing.T, s people.Store) {
	ctx := context.Background()
	mustPerson(t, s, "p1", "Alex", base)
	mustPerson(t, s, "p2", "Sam", base)
	mustNote(t, s, people.Note{ID: "n1", PersonID: "p1", Content: "a", CreatedAt: base, PlaceLabel: "Ace Hotel", Coords: &people.Coordinates{Lat: 1, Lng: 2}})
	mustNote(t, s, people.Note{ID: "n2", PersonID: "p2", Content: "b", CreatedAt: base})

	got, err := s.ListNotesForPerson(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].ID)
	assert.Equal(t, "Ace Hotel", got[0].PlaceLabel)
	require.NotNil(t, got[0].Coords)
	assert.InDelta(t, 2.0, got[0].Coords.Lng, 1e-9)
}

func testFollowUps(t *testing.T, s people.Store) {
	ctx := context.Background()
	mustPerson(t, s, "p1", "Alex", base)
	mustNote(t, s, people.Note{ID: "late", PersonID: "p1", Content: "x", CreatedAt: base, NeedsFollowUp: true, FollowUpAt: ptr(base.Add(2 * time.Hour))})
	mustNote(t, s, people.Note{ID: "early", PersonID: "p1", Content: "y", CreatedAt: base, NeedsFollowUp: true, FollowUpAt: ptr(base.Add(time.Hour))})
	mustNote(t, s, people.Note{ID: "future", PersonID: "p1", Content: "z", CreatedAt: base, NeedsFollowUp: true, FollowUpAt: ptr(base.Add(48 * time.Hour))})
	mustNote(t, s, people.Note{ID: "plain", PersonID: "p1", Content: "w", CreatedAt: base})

	due, err := s.ListFollowUpsDue(ctx, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "early", due[0].Note.ID)
	assert.Equal(t, "late", due[1].Note.ID)
	assert.Equal(t, "Alex", due[0].Person.Name)

	require.NoError(t, s.MarkFollowUpDone(ctx, "early"))
	due, err = s.ListFollowUpsDue(ctx, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "late", due[0].Note.ID)

	assert.True(t, nnerrors.IsNotFound(s.MarkFollowUpDone(ctx, "missing")))
}

func testUpcomingTrips(t *testing.T, s people.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateTrip(ctx, &people.Trip{ID: "past", City: "London", StartDate: base.Add(-48 * time.Hour), CreatedAt: base}))
	require.NoError(t, s.CreateTrip(ctx, &people.Trip{ID: "later", City: "Paris", StartDate: base.Add(72 * time.Hour), CreatedAt: base}))
	require.NoError(t, s.CreateTrip(ctx, &people.Trip{ID: "soon", City: "NYC", StartDate: base.Add(24 * time.Hour), EndDate: ptr(base.Add(96 * time.Hour)), CreatedAt: base}))

	up, err := s.ListUpcomingTrips(ctx, base)
	require.NoError(t, err)
	require.Len(t, up, 2)
	assert.Equal(t, "soon", up[0].ID)
	require.NotNil(t, up[0].EndDate)
	assert.Equal(t, "later", up[1].ID)

	all, err := s.ListTrips(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "past", all[0].ID)
}

func testTripReachouts(t *testing.T, s people.Store) {
	ctx := context.Background()
	mustPerson(t, s, "p1", "Alex", base)
	require.NoError(t, s.CreateTrip(ctx, &people.Trip{ID: "t1", City: "Paris", StartDate: base, CreatedAt: base}))

	require.NoError(t, s.SetTripReachout(ctx, &people.TripReachout{ID: "r1", TripID: "t1", PersonID: "p1", Status: people.ReachoutPending, UpdatedAt: base}))
	require.NoError(t, s.SetTripReachout(ctx, &people.TripReachout{ID: "r2", TripID: "t1", PersonID: "p1", Status: people.ReachoutDone, UpdatedAt: base.Add(time.Hour)}))

	got, err := s.ListTripReachouts(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, people.ReachoutDone, got[0].Status)
	assert.Equal(t, "p1", got[0].PersonID)
}

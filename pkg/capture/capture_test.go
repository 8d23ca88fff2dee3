package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/location"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/observability"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/places"
	"github.com/otherjamesbrown/netnotes-cli/pkg/store/memory"
)

var t0 = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

// recordingStore counts writes and can be told to fail them.
type recordingStore struct {
	*memory.Store
	writes    int
	personErr error
	noteErr   error
}

func (s *recordingStore) CreatePerson(ctx context.Context, p *people.Person) error {
	s.writes++
	if s.personErr != nil {
		return s.personErr
	}
	return s.Store.CreatePerson(ctx, p)
}

func (s *recordingStore) UpdatePerson(ctx context.Context, p *people.Person) error {
	s.writes++
	if s.personErr != nil {
		return s.personErr
	}
	return s.Store.UpdatePerson(ctx, p)
}

func (s *recordingStore) CreateNote(ctx context.Context, n *people.Note) error {
	s.writes++
	if s.noteErr != nil {
		return s.noteErr
	}
	return s.Store.CreateNote(ctx, n)
}

type fixture struct {
	store    *recordingStore
	capturer *Capturer
	metrics  *observability.CaptureMetrics
}

func newFixture(t *testing.T, loc *location.Resolver) *fixture {
	t.Helper()
	clk := clock.NewFixed(t0)
	store := &recordingStore{Store: memory.New()}
	metrics := observability.NewCaptureMetrics(prometheus.NewRegistry())
	seq := 0
	ids := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	resolver := people.NewResolver(store,
		people.WithClock(clk),
		people.WithIDGenerator(ids),
		people.WithResolverLogger(logging.NewNopLogger()),
	)
	c := New(resolver, store,
		WithClock(clk),
		WithIDGenerator(ids),
		WithLocation(loc),
		WithLogger(logging.NewNopLogger()),
		WithMetrics(metrics),
	)
	return &fixture{store: store, capturer: c, metrics: metrics}
}

func gazetteerOnly() *location.Resolver {
	return location.NewResolver(nil,
		location.WithGeocoder(location.Gazetteer{}),
		location.WithLogger(logging.NewNopLogger()))
}

func deviceAt(label string) *location.Resolver {
	return location.NewResolver(location.Static{
		Coords: &people.Coordinates{Lat: 40.72, Lng: -73.99},
		Place:  location.Place{Name: label},
	}, location.WithLogger(logging.NewNopLogger()))
}

func TestCapture_TypedPlaceConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, gazetteerOnly())

	s, step, err := f.capturer.Start(ctx, "named Alex, 29, met at Polo Lounge LA")
	require.NoError(t, err)
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PromptConfirmPlace, step.Prompt.Kind)
	assert.Equal(t, "Alex", step.Prompt.Name)
	assert.Equal(t, "Polo Lounge LA", step.Prompt.Suggestion)
	assert.Zero(t, f.store.writes)

	step, err = s.Reply(ctx, Yes())
	require.NoError(t, err)
	require.True(t, step.Done())

	p := step.Result.Person
	assert.True(t, step.Result.IsNew)
	assert.Equal(t, "Alex", p.Name)
	assert.Equal(t, 29, p.Age)
	assert.Equal(t, "Los Angeles", p.City)
	assert.Equal(t, "Polo Lounge LA", p.PlaceLabel)
	require.NotNil(t, p.Coords)
	lat, lng, _ := places.Lookup("Los Angeles")
	assert.Equal(t, people.Coordinates{Lat: lat, Lng: lng}, *p.Coords)
	require.NotNil(t, p.LastInteractionAt)
	assert.Equal(t, t0, *p.LastInteractionAt)
	assert.Nil(t, step.Result.Note)

	assert.Equal(t, StateDone, s.State())
	assert.False(t, f.capturer.Busy())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CapturesTotal.WithLabelValues(observability.OutcomeCommitted)))
}

func TestCapture_DeclinedTypedPlaceClearsLabelAndCoords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceAt("Somewhere Else"))

	s, step, err := f.capturer.Start(ctx, "met Jordan Lee at Soho House London, loves jazz")
	require.NoError(t, err)
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PromptConfirmPlace, step.Prompt.Kind)

	step, err = s.Reply(ctx, No())
	require.NoError(t, err)
	require.True(t, step.Done())

	p := step.Result.Person
	assert.Equal(t, "Jordan Lee", p.Name)
	assert.Empty(t, p.PlaceLabel)
	assert.Nil(t, p.Coords)
	assert.Equal(t, "London", p.City)

	require.NotNil(t, step.Result.Note)
	assert.Equal(t, "Loves jazz", step.Result.Note.Content)
	assert.Empty(t, step.Result.Note.PlaceLabel)
	assert.Nil(t, step.Result.Note.Coords)
}

func TestCapture_LowConfidenceAsksNameBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	s, step, err := f.capturer.Start(ctx, "talked about climbing for an hour")
	require.NoError(t, err)
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PromptAskName, step.Prompt.Kind)
	assert.Equal(t, StateAskName, s.State())
	assert.Zero(t, f.store.writes)

	step, err = s.Reply(ctx, Submit("  Dana  "))
	require.NoError(t, err)
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PromptAskWhere, step.Prompt.Kind)
	assert.Equal(t, "Dana", step.Prompt.Name)
	assert.Zero(t, f.store.writes)

	step, err = s.Reply(ctx, Submit("Blue Bottle"))
	require.NoError(t, err)
	require.True(t, step.Done())

	p := step.Result.Person
	assert.Equal(t, "Dana", p.Name)
	assert.Equal(t, "Blue Bottle", p.PlaceLabel)
	assert.Nil(t, p.Coords)
	assert.Empty(t, p.City)
	require.NotNil(t, step.Result.Note)
	assert.Equal(t, "Talked about climbing for an hour", step.Result.Note.Content)
	assert.Equal(t, "Blue Bottle", step.Result.Note.PlaceLabel)
}

func TestCapture_SkipNameUsesPlaceholder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	s, _, err := f.capturer.Start(ctx, "talked about climbing for an hour")
	require.NoError(t, err)

	step, err := s.Reply(ctx, Skip())
	require.NoError(t, err)
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PlaceholderName, step.Prompt.Name)

	step, err = s.Reply(ctx, Submit("somewhere in Paris"))
	require.NoError(t, err)
	require.True(t, step.Done())
	assert.Equal(t, PlaceholderName, step.Result.Person.Name)
	assert.Equal(t, "Paris", step.Result.Person.City)
	assert.Equal(t, "somewhere in Paris", step.Result.Person.PlaceLabel)
}

func TestCapture_DeviceLabelDeclinedThenTyped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceAt("Ace Hotel"))

	s, step, err := f.capturer.Start(ctx, "Priya Shah, loves sailing")
	require.NoError(t, err)
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PromptConfirmPlace, step.Prompt.Kind)
	assert.Equal(t, "Ace Hotel", step.Prompt.Suggestion)

	step, err = s.Reply(ctx, No())
	require.NoError(t, err)
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PromptAskWhere, step.Prompt.Kind)

	step, err = s.Reply(ctx, Submit("Rooftop bar"))
	require.NoError(t, err)
	require.True(t, step.Done())

	p := step.Result.Person
	assert.Equal(t, "Priya Shah", p.Name)
	assert.Equal(t, "Rooftop bar", p.PlaceLabel)
	require.NotNil(t, p.Coords)
	assert.Equal(t, people.Coordinates{Lat: 40.72, Lng: -73.99}, *p.Coords)
	require.NotNil(t, step.Result.Note)
	assert.Equal(t, "Loves sailing", step.Result.Note.Content)
}

func TestCapture_StartAlwaysPrompts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, gazetteerOnly())

	s, step, err := f.capturer.Start(ctx, "named Alex, loves jazz")
	require.NoError(t, err)
	assert.False(t, step.Done())
	require.NotNil(t, step.Prompt)
	assert.Equal(t, PromptAskWhere, step.Prompt.Kind)
	assert.Equal(t, "Alex", step.Prompt.Name)
	assert.Zero(t, f.store.writes)
	assert.True(t, f.capturer.Busy())

	s.Cancel()
	assert.False(t, f.capturer.Busy())
}

func TestCapture_AskWhereSkipDropsCoords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceAt("Ace Hotel"))

	s, _, err := f.capturer.Start(ctx, "Priya Shah, loves sailing")
	require.NoError(t, err)
	_, err = s.Reply(ctx, No())
	require.NoError(t, err)

	step, err := s.Reply(ctx, Skip())
	require.NoError(t, err)
	require.True(t, step.Done())
	assert.Empty(t, step.Result.Person.PlaceLabel)
	assert.Nil(t, step.Result.Person.Coords)
}

func TestCapture_CancelHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, gazetteerOnly())

	s, _, err := f.capturer.Start(ctx, "talked about climbing for an hour")
	require.NoError(t, err)
	assert.True(t, f.capturer.Busy())

	_, err = s.Reply(ctx, Cancel())
	assert.True(t, nnerrors.IsCancelled(err))
	assert.Equal(t, StateCancelled, s.State())
	assert.False(t, f.capturer.Busy())
	assert.Zero(t, f.store.writes)

	_, err = s.Reply(ctx, Submit("Dana"))
	assert.True(t, nnerrors.IsInvalidState(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CapturesTotal.WithLabelValues(observability.OutcomeCancelled)))
}

func TestCapture_OneSessionAtATime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	s, _, err := f.capturer.Start(ctx, "talked about climbing for an hour")
	require.NoError(t, err)

	_, _, err = f.capturer.Start(ctx, "named Sam")
	assert.True(t, nnerrors.IsSessionBusy(err))

	s.Cancel()
	_, _, err = f.capturer.Start(ctx, "named Sam")
	assert.NoError(t, err)
}

func TestCapture_EmptyLine(t *testing.T) {
	f := newFixture(t, nil)
	_, _, err := f.capturer.Start(context.Background(), "   ")
	assert.True(t, nnerrors.IsValidation(err))
	assert.False(t, f.capturer.Busy())
}

func TestCapture_WrongReplyForPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	s, _, err := f.capturer.Start(ctx, "talked about climbing for an hour")
	require.NoError(t, err)

	_, err = s.Reply(ctx, Yes())
	assert.True(t, nnerrors.IsInvalidState(err))
	assert.Equal(t, StateAskName, s.State())

	_, err = s.Retry(ctx)
	assert.True(t, nnerrors.IsInvalidState(err))
}

func TestCapture_UpsertFailureCanBeRetried(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.store.personErr = errors.New("database is locked")

	s, _, err := f.capturer.Start(ctx, "Priya Shah, loves sailing")
	require.NoError(t, err)

	step, err := s.Reply(ctx, Skip())
	require.Error(t, err)
	assert.True(t, nnerrors.IsStorage(err))
	assert.False(t, step.Done())
	assert.Equal(t, StateCommit, s.State())
	assert.True(t, f.capturer.Busy())

	f.store.personErr = nil
	step, err = s.Retry(ctx)
	require.NoError(t, err)
	require.True(t, step.Done())
	assert.Equal(t, "Priya Shah", step.Result.Person.Name)
	assert.False(t, f.capturer.Busy())
}

func TestCapture_NoteFailureKeepsPerson(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.store.noteErr = errors.New("disk full")

	s, _, err := f.capturer.Start(ctx, "Priya Shah, loves sailing")
	require.NoError(t, err)

	step, err := s.Reply(ctx, Skip())
	require.Error(t, err)
	assert.True(t, nnerrors.IsStorage(err))
	require.True(t, step.Done())
	assert.Nil(t, step.Result.Note)
	assert.False(t, f.capturer.Busy())

	saved, err := f.store.FindPersonByName(ctx, "priya shah")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, step.Result.Person.ID, saved.ID)
}

func TestCapture_FollowUpCarriedToNote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	s, _, err := f.capturer.Start(ctx, "Priya Shah, wants to follow up about the role")
	require.NoError(t, err)

	step, err := s.Reply(ctx, Skip())
	require.NoError(t, err)
	require.True(t, step.Done())
	require.NotNil(t, step.Result.Note)
	assert.True(t, step.Result.Note.NeedsFollowUp)
	require.NotNil(t, step.Result.Note.FollowUpAt)
	assert.True(t, step.Result.Note.FollowUpAt.After(t0))
}

func TestCapture_RepeatCaptureMergesPerson(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, gazetteerOnly())

	first, err := Drive(ctx, f.capturer, "named Alex, met at Polo Lounge LA", scripted(Yes()))
	require.NoError(t, err)
	second, err := Drive(ctx, f.capturer, "named alex, met in Paris", scripted(Yes()))
	require.NoError(t, err)

	assert.Equal(t, first.Person.ID, second.Person.ID)
	assert.False(t, second.IsNew)
	assert.Equal(t, "Los Angeles", second.Person.City)
	assert.Equal(t, "Polo Lounge LA", second.Person.PlaceLabel)
}

func scripted(replies ...Reply) Responder {
	return ResponderFunc(func(_ context.Context, p Prompt) (Reply, error) {
		if len(replies) == 0 {
			return Reply{}, fmt.Errorf("unexpected prompt %s", p.Kind)
		}
		r := replies[0]
		replies = replies[1:]
		return r, nil
	})
}

func TestDrive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	res, err := Drive(ctx, f.capturer, "talked about climbing for an hour", scripted(Submit("Dana"), Skip()))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Dana", res.Person.Name)
	assert.Empty(t, res.Person.PlaceLabel)

	_, err = Drive(ctx, f.capturer, "talked about climbing for an hour", scripted(Cancel()))
	assert.True(t, nnerrors.IsCancelled(err))
	assert.False(t, f.capturer.Busy())

	_, err = Drive(ctx, f.capturer, "talked about climbing for an hour", scripted())
	require.Error(t, err)
	assert.False(t, f.capturer.Busy())
}

package people

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/observability"
)

// UpsertInput carries the fields of one capture.
//
// City, PlaceLabel and Age are first-write-wins: they only fill a blank on an
// existing person. The Field values are override-wins: a Set or Clear replaces
// what is stored, an unset Field leaves it alone. Coords replace the stored
// pair when non-nil.
type UpsertInput struct {
	Name       string
	City       string
	PlaceLabel string
	Age        int
	Coords     *Coordinates

	Importance        Field[int]
	Tags              Field[string]
	LastInteractionAt Field[time.Time]
	PhoneContactID    Field[string]
	PhoneNumber       Field[string]
	PreferredChannel  Field[string]
}

// UpdateInput is an explicit edit; every supplied field overrides.
type UpdateInput struct {
	Name              Field[string]
	City              Field[string]
	Tags              Field[string]
	Importance        Field[int]
	PlaceLabel        Field[string]
	Coords            Field[Coordinates]
	Age               Field[int]
	LastInteractionAt Field[time.Time]
	PhoneContactID    Field[string]
	PhoneNumber       Field[string]
	PreferredChannel  Field[string]
}

// Resolver finds or creates people by name.
type Resolver struct {
	store   PersonStore
	clock   clock.Clock
	newID   func() string
	logger  logging.Logger
	tracer  *observability.Tracer
	metrics *observability.CaptureMetrics
}

// ResolverOption configures the resolver.
type ResolverOption func(*Resolver)

// WithClock sets the clock used for timestamps.
func WithClock(c clock.Clock) ResolverOption {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) ResolverOption {
	return func(r *Resolver) {
		r.newID = fn
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger logging.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithTracer sets the tracer.
func WithTracer(t *observability.Tracer) ResolverOption {
	return func(r *Resolver) {
		r.tracer = t
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.CaptureMetrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a new resolver over store.
func NewResolver(store PersonStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		clock:  clock.System{},
		newID:  uuid.NewString,
		logger: logging.MustGlobal(),
		tracer: observability.NewTracer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logging.F("component", "person_resolver"))
	return r
}

// UpsertByName finds the person named in.Name, ignoring case, and merges in
// into it, or creates a new person. The stored name takes the incoming
// spelling. Store failures wrap ErrStorage.
func (r *Resolver) UpsertByName(ctx context.Context, in UpsertInput) (*ResolutionResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("upsert person: empty name: %w", nnerrors.ErrValidation)
	}
	if err := validateImportance(in.Importance); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, observability.SpanUpsertByName)
	defer span.End()

	existing, err := r.store.FindPersonByName(ctx, name)
	if err != nil {
		err = storageErr("find person by name", err)
		observability.RecordError(span, err, string(nnerrors.CodeStorageUnavailable), true)
		return nil, err
	}

	now := r.clock.Now()
	var result *ResolutionResult
	if existing == nil {
		p := r.newPerson(name, in, now)
		if err := r.store.CreatePerson(ctx, p); err != nil {
			err = storageErr("create person", err)
			observability.RecordError(span, err, string(nnerrors.CodeStorageUnavailable), true)
			return nil, err
		}
		r.logger.Info("Created person",
			logging.F("person_id", p.ID),
			logging.F("name", p.Name))
		result = &ResolutionResult{Person: p, IsNew: true}
	} else {
		p := *existing
		mergeInto(&p, name, in, now)
		if err := r.store.UpdatePerson(ctx, &p); err != nil {
			err = storageErr("update person", err)
			observability.RecordError(span, err, string(nnerrors.CodeStorageUnavailable), true)
			return nil, err
		}
		r.logger.Debug("Merged into existing person",
			logging.F("person_id", p.ID),
			logging.F("name", p.Name))
		result = &ResolutionResult{Person: &p}
	}

	span.SetAttributes(
		attribute.String(observability.AttrPersonID, result.Person.ID),
		attribute.Bool(observability.AttrIsNew, result.IsNew),
	)
	observability.RecordSuccess(span)
	r.metrics.PersonResolved(result.IsNew)
	return result, nil
}

func (r *Resolver) newPerson(name string, in UpsertInput, now time.Time) *Person {
	p := &Person{
		ID:         r.newID(),
		Name:       name,
		City:       strings.TrimSpace(in.City),
		PlaceLabel: strings.TrimSpace(in.PlaceLabel),
		Age:        in.Age,
		Importance: DefaultImportance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Coords != nil {
		c := *in.Coords
		p.Coords = &c
	}
	applyOverrides(p, in)
	return p
}

// mergeInto applies in to p using the per-field precedence rules.
func mergeInto(p *Person, name string, in UpsertInput, now time.Time) {
	p.Name = name
	if p.City == "" {
		p.City = strings.TrimSpace(in.City)
	}
	if p.PlaceLabel == "" {
		p.PlaceLabel = strings.TrimSpace(in.PlaceLabel)
	}
	if p.Age == 0 {
		p.Age = in.Age
	}
	if in.Coords != nil {
		c := *in.Coords
		p.Coords = &c
	}
	applyOverrides(p, in)
	p.UpdatedAt = now
}

func applyOverrides(p *Person, in UpsertInput) {
	in.Importance.apply(&p.Importance)
	if p.Importance == 0 {
		p.Importance = DefaultImportance
	}
	in.Tags.apply(&p.Tags)
	in.LastInteractionAt.applyPtr(&p.LastInteractionAt)
	in.PhoneContactID.apply(&p.PhoneContactID)
	in.PhoneNumber.apply(&p.PhoneNumber)
	in.PreferredChannel.apply(&p.PreferredChannel)
}

// Update applies an explicit edit to the person with the given ID.
func (r *Resolver) Update(ctx context.Context, id string, in UpdateInput) (*Person, error) {
	if err := validateImportance(in.Importance); err != nil {
		return nil, err
	}
	if v, ok := in.Name.Get(); in.Name.IsSet() && (!ok || strings.TrimSpace(v) == "") {
		return nil, fmt.Errorf("update person: empty name: %w", nnerrors.ErrValidation)
	}

	p, err := r.store.GetPerson(ctx, id)
	if err != nil {
		if nnerrors.IsNotFound(err) {
			return nil, fmt.Errorf("update person %s: %w", id, err)
		}
		return nil, storageErr("get person", err)
	}

	if v, ok := in.Name.Get(); ok {
		p.Name = strings.TrimSpace(v)
	}
	in.City.apply(&p.City)
	in.Tags.apply(&p.Tags)
	in.Importance.apply(&p.Importance)
	if p.Importance == 0 {
		p.Importance = DefaultImportance
	}
	in.PlaceLabel.apply(&p.PlaceLabel)
	in.Coords.applyPtr(&p.Coords)
	in.Age.apply(&p.Age)
	in.LastInteractionAt.applyPtr(&p.LastInteractionAt)
	in.PhoneContactID.apply(&p.PhoneContactID)
	in.PhoneNumber.apply(&p.PhoneNumber)
	in.PreferredChannel.apply(&p.PreferredChannel)
	p.UpdatedAt = r.clock.Now()

	if err := r.store.UpdatePerson(ctx, p); err != nil {
		return nil, storageErr("update person", err)
	}
	r.logger.Info("Updated person", logging.F("person_id", p.ID))
	return p, nil
}

func validateImportance(f Field[int]) error {
	if v, ok := f.Get(); ok && (v < MinImportance || v > MaxImportance) {
		return fmt.Errorf("importance %d outside [%d,%d]: %w", v, MinImportance, MaxImportance, nnerrors.ErrValidation)
	}
	return nil
}

func storageErr(op string, err error) error {
	if nnerrors.IsStorage(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, nnerrors.ErrStorage, err)
}

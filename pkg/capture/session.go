package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/observability"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/places"
)

// Session is one in-flight capture. Its methods are safe to call from
// multiple goroutines but a session only ever moves forward.
type Session struct {
	id       string
	capturer *Capturer

	mu    sync.Mutex
	state State
	entry pendingEntry
	// committed is set once the person has been saved.
	committed bool
}

// ID returns the session identifier used in logs and spans.
func (s *Session) ID() string { return s.id }

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reply answers the pending prompt and advances the session. ActionCancel is
// accepted at any prompt and returns ErrCancelled. A reply that does not fit
// the current prompt returns ErrInvalidState and leaves the session as is.
func (s *Session) Reply(ctx context.Context, r Reply) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = context.WithValue(ctx, logging.SessionIDKey, s.id)
	if r.Action == ActionCancel {
		return Step{}, s.cancelLocked(ctx)
	}

	text := strings.TrimSpace(r.Text)
	switch s.state {
	case StateAskName:
		switch r.Action {
		case ActionSubmit, ActionSkip:
			s.entry.name = s.entry.candidate.Name
			if r.Action == ActionSubmit && text != "" {
				s.entry.name = text
			}
			if s.entry.name == "" {
				s.entry.name = PlaceholderName
			}
			s.state = StateLocationResolve
			return s.advance(ctx)
		}

	case StateConfirmPlace:
		switch r.Action {
		case ActionYes:
			s.state = StateCommit
			return s.advance(ctx)
		case ActionNo:
			if s.entry.typedGeo {
				s.entry.label = ""
				s.entry.coords = nil
				s.state = StateCommit
				return s.advance(ctx)
			}
			return s.prompt(PromptAskWhere, ""), nil
		}

	case StateAskWhere:
		switch r.Action {
		case ActionSubmit, ActionSkip:
			if r.Action == ActionSubmit && text != "" {
				s.entry.label = text
			} else {
				s.entry.label = ""
				s.entry.coords = nil
			}
			s.state = StateCommit
			return s.advance(ctx)
		}
	}

	return Step{}, fmt.Errorf("reply %s in state %s: %w", r.Action, s.state, nnerrors.ErrInvalidState)
}

// Cancel discards the session. It is a no-op once the session has finished.
// Cancelling after a failed commit is allowed since nothing was saved.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.cancelLocked(context.Background())
}

// Retry re-runs the commit after a storage failure.
func (s *Session) Retry(ctx context.Context) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCommit || s.committed {
		return Step{}, fmt.Errorf("retry in state %s: %w", s.state, nnerrors.ErrInvalidState)
	}
	ctx = context.WithValue(ctx, logging.SessionIDKey, s.id)
	return s.advance(ctx)
}

func (s *Session) cancelLocked(ctx context.Context) error {
	switch s.state {
	case StateDone, StateCancelled:
		return fmt.Errorf("cancel in state %s: %w", s.state, nnerrors.ErrInvalidState)
	}
	c := s.capturer
	c.logger.WithContext(ctx).Debug("Capture cancelled", logging.F("state", string(s.state)))
	s.state = StateCancelled
	s.entry = pendingEntry{}
	c.metrics.CaptureFinished(observability.OutcomeCancelled)
	c.release(s)
	return nnerrors.ErrCancelled
}

// advance runs the automatic transitions until the session needs input or
// finishes. Callers hold s.mu.
func (s *Session) advance(ctx context.Context) (Step, error) {
	for {
		switch s.state {
		case StateNameCheck:
			cand := s.entry.candidate
			if !cand.HasName() || cand.Confidence < MinNameConfidence {
				return s.prompt(PromptAskName, cand.Name), nil
			}
			s.entry.name = cand.Name
			s.state = StateLocationResolve

		case StateLocationResolve:
			s.resolveLocation(ctx)
			if s.entry.label == "" {
				return s.prompt(PromptAskWhere, ""), nil
			}
			return s.prompt(PromptConfirmPlace, s.entry.label), nil

		case StateCommit:
			return s.commit(ctx)

		default:
			return Step{}, fmt.Errorf("advance from %s: %w", s.state, nnerrors.ErrInvalidState)
		}
	}
}

func (s *Session) prompt(kind PromptKind, suggestion string) Step {
	switch kind {
	case PromptAskName:
		s.state = StateAskName
	case PromptConfirmPlace:
		s.state = StateConfirmPlace
	case PromptAskWhere:
		s.state = StateAskWhere
	}
	s.capturer.metrics.PromptShown(string(kind))
	return Step{Prompt: &Prompt{
		Kind:       kind,
		Name:       s.entry.name,
		Suggestion: suggestion,
		Candidate:  s.entry.candidate,
	}}
}

// resolveLocation fills the label and coordinates. The typed place wins over
// the device label; a typed place without a device fix is geocoded.
func (s *Session) resolveLocation(ctx context.Context) {
	c := s.capturer
	ctx, span := c.tracer.Start(ctx, observability.SpanLocationResolve,
		attribute.Bool(observability.AttrTypedGeo, s.entry.typedGeo))
	defer span.End()

	cand := s.entry.candidate
	fix := c.location.Current(ctx)

	s.entry.label = cand.PlaceCandidate
	if s.entry.label == "" {
		s.entry.label = cand.City
	}
	if fix != nil {
		coords := fix.Coords
		s.entry.coords = &coords
		if s.entry.label == "" {
			s.entry.label = fix.Label
		}
	}

	if s.entry.typedGeo && fix == nil {
		query := cand.City
		if query == "" {
			query = cand.PlaceCandidate
		}
		s.entry.coords = c.location.Geocode(ctx, query)
	}
}

func (s *Session) commit(ctx context.Context) (Step, error) {
	c := s.capturer
	ctx, span := c.tracer.Start(ctx, observability.SpanCaptureCommit,
		attribute.String(observability.AttrSessionID, s.id))
	defer span.End()
	log := c.logger.WithContext(ctx)

	e := s.entry
	label := strings.TrimSpace(e.label)
	var coords *people.Coordinates
	if label != "" {
		coords = e.coords
	}
	city := e.candidate.City
	if city == "" && label != "" && places.Known(label) {
		city = places.Normalize(label)
	}

	now := c.clock.Now()
	res, err := c.resolver.UpsertByName(ctx, people.UpsertInput{
		Name:              e.name,
		City:              city,
		PlaceLabel:        label,
		Age:               e.candidate.Age,
		Coords:            coords,
		LastInteractionAt: people.Set(now),
	})
	if err != nil {
		ce := nnerrors.ClassifyError(err, "commit person")
		observability.RecordError(span, err, string(ce.Code), nnerrors.IsRetryable(ce.Code))
		log.Warn("Saving person failed", logging.F("code", string(ce.Code)), logging.Err(err))
		return Step{}, fmt.Errorf("capture %q: %w", e.name, err)
	}
	s.committed = true
	result := &Result{Person: res.Person, IsNew: res.IsNew}
	span.SetAttributes(
		attribute.String(observability.AttrPersonID, res.Person.ID),
		attribute.Bool(observability.AttrIsNew, res.IsNew),
	)

	var noteErr error
	if content := noteContent(e.candidate.Occupation, e.candidate.Notes); content != "" {
		note := &people.Note{
			ID:            c.newID(),
			PersonID:      res.Person.ID,
			Content:       content,
			NeedsFollowUp: e.candidate.FollowUp.Needed,
			Coords:        coords,
			PlaceLabel:    label,
			CreatedAt:     now,
		}
		if note.NeedsFollowUp {
			note.FollowUpAt = e.candidate.FollowUp.At
		}
		if err := c.notes.CreateNote(ctx, note); err != nil {
			noteErr = fmt.Errorf("save note for %q: %w: %w", res.Person.Name, nnerrors.ErrStorage, err)
			ce := nnerrors.ClassifyError(noteErr, "commit note")
			observability.RecordError(span, noteErr, string(ce.Code), false)
			log.Warn("Person saved but note was lost",
				logging.F("person_id", res.Person.ID),
				logging.Err(err))
		} else {
			result.Note = note
			c.metrics.NoteCreated()
		}
	}

	s.state = StateDone
	s.entry = pendingEntry{}
	c.release(s)

	if noteErr != nil {
		c.metrics.CaptureFinished(observability.OutcomeFailed)
		return Step{Result: result}, noteErr
	}
	observability.RecordSuccess(span)
	c.metrics.CaptureFinished(observability.OutcomeCommitted)
	log.Info("Captured person",
		logging.F("person_id", res.Person.ID),
		logging.F("is_new", res.IsNew),
		logging.F("with_note", result.Note != nil))
	return Step{Result: result}, nil
}

func noteContent(occupation, notes string) string {
	var parts []string
	for _, p := range []string{occupation, notes} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ". ")
}

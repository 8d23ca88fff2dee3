// Package capture turns one typed line about a person into a saved contact.
//
// A Capturer runs at most one Session at a time. A Session is an explicit
// state machine: Start parses the line and returns the first Prompt, and
// each Reply advances it to the next Prompt or to a final Result. Every
// session asks at least about the place. Nothing is written until the Commit state, so a session
// cancelled at any prompt leaves no trace.
package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/lineparse"
	"github.com/otherjamesbrown/netnotes-cli/pkg/location"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/observability"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// Capturer creates capture sessions.
type Capturer struct {
	parser   *lineparse.Parser
	resolver *people.Resolver
	notes    people.NoteStore
	location *location.Resolver
	clock    clock.Clock
	newID    func() string
	logger   logging.Logger
	tracer   *observability.Tracer
	metrics  *observability.CaptureMetrics

	mu     sync.Mutex
	active *Session
}

// Option configures a Capturer.
type Option func(*Capturer)

func WithParser(p *lineparse.Parser) Option {
	return func(c *Capturer) {
		c.parser = p
	}
}

// WithLocation sets the device location resolver. Without one, captures
// carry only typed places.
func WithLocation(r *location.Resolver) Option {
	return func(c *Capturer) {
		c.location = r
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *Capturer) {
		c.clock = clk
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Capturer) {
		c.newID = fn
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Capturer) {
		c.logger = l
	}
}

func WithTracer(t *observability.Tracer) Option {
	return func(c *Capturer) {
		c.tracer = t
	}
}

func WithMetrics(m *observability.CaptureMetrics) Option {
	return func(c *Capturer) {
		c.metrics = m
	}
}

// New creates a Capturer that saves people through resolver and notes
// through notes.
func New(resolver *people.Resolver, notes people.NoteStore, opts ...Option) *Capturer {
	c := &Capturer{
		resolver: resolver,
		notes:    notes,
		clock:    clock.System{},
		newID:    uuid.NewString,
		logger:   logging.MustGlobal(),
		tracer:   observability.NewTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.parser == nil {
		c.parser = lineparse.New(lineparse.WithClock(c.clock))
	}
	c.logger = c.logger.With(logging.F("component", "capture"))
	return c
}

// Start parses text and opens a session. The returned Step is always a
// prompt: AskName for a missing or weak name, otherwise ConfirmPlace or
// AskWhere.
//
// Start fails with ErrSessionBusy while another session is open and with
// ErrValidation for a blank line.
func (c *Capturer) Start(ctx context.Context, text string) (*Session, Step, error) {
	if strings.TrimSpace(text) == "" {
		return nil, Step{}, fmt.Errorf("start capture: empty line: %w", nnerrors.ErrValidation)
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return nil, Step{}, fmt.Errorf("start capture: %w", nnerrors.ErrSessionBusy)
	}
	s := &Session{
		id:       c.newID(),
		capturer: c,
		state:    StateNameCheck,
	}
	c.active = s
	c.mu.Unlock()

	ctx = context.WithValue(ctx, logging.SessionIDKey, s.id)
	ctx, span := c.tracer.Start(ctx, observability.SpanCaptureStart,
		attribute.String(observability.AttrSessionID, s.id))
	defer span.End()

	cand := c.parser.Parse(text)
	c.metrics.LineParsed(cand.NameRule, cand.Confidence)
	span.SetAttributes(
		attribute.String(observability.AttrNameRule, cand.NameRule),
		attribute.Float64(observability.AttrConfidence, cand.Confidence),
		attribute.Bool(observability.AttrTypedGeo, cand.TypedGeo()),
	)
	s.entry = pendingEntry{candidate: cand, typedGeo: cand.TypedGeo()}

	c.logger.WithContext(ctx).Debug("Capture started",
		logging.F("name", cand.Name),
		logging.F("confidence", cand.Confidence))

	s.mu.Lock()
	defer s.mu.Unlock()
	step, err := s.advance(ctx)
	return s, step, err
}

// Busy reports whether a session is open.
func (c *Capturer) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

func (c *Capturer) release(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == s {
		c.active = nil
	}
}

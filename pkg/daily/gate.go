// Package daily keeps small bits of state that reset every calendar day:
// whether something was already shown today, and which option was picked
// for today.
package daily

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
)

// Store records one value per key. Keys already include the day.
type Store interface {
	// PutIfAbsent stores value unless key is set, and returns the value now
	// stored and whether this call wrote it.
	PutIfAbsent(ctx context.Context, key, value string) (stored string, created bool, err error)
}

// Gate answers day-scoped questions.
type Gate struct {
	store  Store
	clock  clock.Clock
	pick   func(n int) int
	logger logging.Logger
}

// Option configures a Gate.
type Option func(*Gate)

func WithClock(c clock.Clock) Option {
	return func(g *Gate) {
		g.clock = c
	}
}

// WithPicker replaces the random choice used by Pick. fn returns an index
// in [0, n).
func WithPicker(fn func(n int) int) Option {
	return func(g *Gate) {
		g.pick = fn
	}
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

// NewGate creates a Gate over store.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		clock:  clock.System{},
		pick:   rand.IntN,
		logger: logging.MustGlobal(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logging.F("component", "daily_gate"))
	return g
}

// Key returns the store key for name on the gate's current day.
func (g *Gate) Key(name string) string {
	return name + ":" + clock.DayKey(g.clock.Now())
}

// Once reports true the first time it is called for name on a given day.
func (g *Gate) Once(ctx context.Context, name string) (bool, error) {
	key := g.Key(name)
	_, created, err := g.store.PutIfAbsent(ctx, key, "1")
	if err != nil {
		return false, fmt.Errorf("daily once %s: %w", key, err)
	}
	if created {
		g.logger.Debug("First use today", logging.F("key", key))
	}
	return created, nil
}

// Pick chooses one of options for name and returns the same choice for the
// rest of the day. A stored choice no longer in options is still returned.
func (g *Gate) Pick(ctx context.Context, name string, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	key := g.Key(name)
	choice := options[g.pick(len(options))]
	stored, _, err := g.store.PutIfAbsent(ctx, key, choice)
	if err != nil {
		return "", fmt.Errorf("daily pick %s: %w", key, err)
	}
	return stored, nil
}

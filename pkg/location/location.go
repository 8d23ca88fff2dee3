// Package location resolves where a capture happened. Every lookup is best
// effort: failures, refusals and timeouts come back as "no answer" so a
// capture never waits on a slow or unavailable device.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/observability"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/places"
)

// DefaultTimeout bounds each provider or geocoder call.
const DefaultTimeout = 3 * time.Second

// Place is a reverse-geocoded address.
type Place struct {
	Name   string
	Street string
	City   string
	Region string
}

// Provider reports the device position.
type Provider interface {
	// CurrentPosition returns ErrPermissionDenied when access is refused.
	CurrentPosition(ctx context.Context) (*people.Coordinates, error)
	ReverseGeocode(ctx context.Context, c people.Coordinates) (*Place, error)
}

// Geocoder turns typed place text into coordinates.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, text string) (*people.Coordinates, error)
}

// Fix is a resolved device position with an optional label.
type Fix struct {
	Coords people.Coordinates
	Label  string
}

// FormatLabel renders a place as its name, else street and city, else region.
func FormatLabel(p Place) string {
	if p.Name != "" {
		return p.Name
	}
	var parts []string
	for _, s := range []string{p.Street, p.City} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return p.Region
}

// Resolver wraps a Provider and Geocoder with timeouts.
type Resolver struct {
	provider Provider
	geocoder Geocoder
	timeout  time.Duration
	logger   logging.Logger
	metrics  *observability.CaptureMetrics
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithGeocoder(g Geocoder) Option {
	return func(r *Resolver) {
		r.geocoder = g
	}
}

func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

func WithMetrics(m *observability.CaptureMetrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a Resolver. A nil provider always yields no fix.
func NewResolver(p Provider, opts ...Option) *Resolver {
	r := &Resolver{
		provider: p,
		timeout:  DefaultTimeout,
		logger:   logging.MustGlobal(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logging.F("component", "location"))
	return r
}

// Current returns the device fix, or nil when none is available in time.
// The label is empty when reverse geocoding fails.
func (r *Resolver) Current(ctx context.Context) *Fix {
	if r == nil || r.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	coords, err := r.provider.CurrentPosition(ctx)
	if err != nil || coords == nil {
		r.recordFailure("current position", err)
		return nil
	}
	r.metrics.LocationLookup(observability.LocationFix)

	fix := &Fix{Coords: *coords}
	place, err := r.provider.ReverseGeocode(ctx, *coords)
	if err != nil {
		r.logger.Debug("Reverse geocode failed", logging.Err(err))
		return fix
	}
	if place != nil {
		fix.Label = FormatLabel(*place)
	}
	return fix
}

// Geocode looks up coordinates for typed place text, or nil.
func (r *Resolver) Geocode(ctx context.Context, text string) *people.Coordinates {
	if r == nil || r.geocoder == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	coords, err := r.geocoder.ForwardGeocode(ctx, text)
	if err != nil || coords == nil {
		r.recordFailure("forward geocode", err)
		return nil
	}
	r.metrics.LocationLookup(observability.LocationGeocoded)
	return coords
}

func (r *Resolver) recordFailure(op string, err error) {
	result := observability.LocationUnavailable
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result = observability.LocationTimeout
	case nnerrors.IsPermissionDenied(err):
		result = observability.LocationDenied
	}
	r.metrics.LocationLookup(result)
	r.logger.Debug("Location lookup gave no answer",
		logging.F("op", op),
		logging.F("result", result),
		logging.Err(err))
}

// Static is a Provider with a fixed, configured position.
type Static struct {
	Coords *people.Coordinates
	Place  Place
}

func (s Static) CurrentPosition(ctx context.Context) (*people.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Coords == nil {
		return nil, fmt.Errorf("no configured position: %w", nnerrors.ErrPermissionDenied)
	}
	c := *s.Coords
	return &c, nil
}

func (s Static) ReverseGeocode(ctx context.Context, _ people.Coordinates) (*Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := s.Place
	return &p, nil
}

// Gazetteer geocodes the cities known to the places table.
type Gazetteer struct{}

func (Gazetteer) ForwardGeocode(ctx context.Context, text string) (*people.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lat, lng, ok := places.Lookup(text)
	if !ok {
		return nil, fmt.Errorf("geocode %q: %w", text, nnerrors.ErrGeocodeUnavailable)
	}
	return &people.Coordinates{Lat: lat, Lng: lng}, nil
}

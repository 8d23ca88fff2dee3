// Package observability holds the Prometheus metrics and OpenTelemetry spans
// emitted while capturing and resolving contacts.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Capture outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Resolution actions.
const (
	ActionCreated = "created"
	ActionMerged  = "merged"
)

// Location lookup results.
const (
	LocationFix         = "fix"
	LocationDenied      = "denied"
	LocationTimeout     = "timeout"
	LocationUnavailable = "unavailable"
	LocationGeocoded    = "geocoded"
)

// CaptureMetrics holds all Prometheus metrics for the capture workflow.
// A nil *CaptureMetrics is valid and records nothing.
type CaptureMetrics struct {
	CapturesTotal     *prometheus.CounterVec
	PromptsTotal      *prometheus.CounterVec
	ParseConfidence   *prometheus.HistogramVec
	ResolutionsTotal  *prometheus.CounterVec
	NotesCreatedTotal prometheus.Counter
	LocationLookups   *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *CaptureMetrics
)

// DefaultCaptureMetrics returns the metrics registered on the default
// registerer. They are registered on first use.
func DefaultCaptureMetrics() *CaptureMetrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewCaptureMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewCaptureMetrics creates a new set of capture metrics on reg.
func NewCaptureMetrics(reg prometheus.Registerer) *CaptureMetrics {
	factory := promauto.With(reg)

	return &CaptureMetrics{
		CapturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnotes_captures_total",
				Help: "Capture sessions by final outcome",
			},
			[]string{"outcome"},
		),
		PromptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnotes_capture_prompts_total",
				Help: "Questions asked during capture",
			},
			[]string{"kind"},
		),
		ParseConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "netnotes_parse_confidence",
				Help:    "Name confidence of parsed lines",
				Buckets: []float64{0.1, 0.2, 0.4, 0.55, 0.6, 0.75, 0.9, 1},
			},
			[]string{"rule"},
		),
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnotes_person_resolutions_total",
				Help: "Upserts by whether the person was created or merged",
			},
			[]string{"action"},
		),
		NotesCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "netnotes_notes_created_total",
				Help: "Notes written by capture",
			},
		),
		LocationLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnotes_location_lookups_total",
				Help: "Device and geocoder lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *CaptureMetrics) CaptureFinished(outcome string) {
	if m == nil {
		return
	}
	m.CapturesTotal.WithLabelValues(outcome).Inc()
}

func (m *CaptureMetrics) PromptShown(kind string) {
	if m == nil {
		return
	}
	m.PromptsTotal.WithLabelValues(kind).Inc()
}

func (m *CaptureMetrics) LineParsed(rule string, confidence float64) {
	if m == nil {
		return
	}
	if rule == "" {
		rule = "none"
	}
	m.ParseConfidence.WithLabelValues(rule).Observe(confidence)
}

func (m *CaptureMetrics) PersonResolved(isNew bool) {
	if m == nil {
		return
	}
	action := ActionMerged
	if isNew {
		action = ActionCreated
	}
	m.ResolutionsTotal.WithLabelValues(action).Inc()
}

func (m *CaptureMetrics) NoteCreated() {
	if m == nil {
		return
	}
	m.NotesCreatedTotal.Inc()
}

func (m *CaptureMetrics) LocationLookup(result string) {
	if m == nil {
		return
	}
	m.LocationLookups.WithLabelValues(result).Inc()
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/netnotes-cli/pkg/clock"
	"github.com/otherjamesbrown/netnotes-cli/pkg/daily"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/relevance"
)

// RecentNotesLimit is how many notes feed the overview.
const RecentNotesLimit = 300

// Daily state keys.
const (
	nudgeKey       = "nudge"
	placeholderKey = "placeholder"
)

// Placeholders are the capture prompts rotated once per day.
var Placeholders = []string{
	"Type a person... (e.g. alex, 22, Polo Lounge LA)",
	"Who did you meet today?",
	"Anyone worth remembering?",
	"Where were you tonight?",
}

// TodayOutput is the daily overview.
type TodayOutput struct {
	Date        string                   `json:"date" yaml:"date"`
	Placeholder string                   `json:"placeholder" yaml:"placeholder"`
	Nudge       string                   `json:"nudge,omitempty" yaml:"nudge,omitempty"`
	NextTrip    *people.Trip             `json:"next_trip,omitempty" yaml:"next_trip,omitempty"`
	Intents     []relevance.IntentCard   `json:"intents" yaml:"intents"`
	Cities      []relevance.CityPresence `json:"cities" yaml:"cities"`
	Heat        []relevance.HeatNode     `json:"heat" yaml:"heat"`
}

// NewTodayCommand creates the today command.
func NewTodayCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)
	var heatLimit int

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show who is worth reaching out to today",
		Long: `Show the daily overview of your network.

Lists suggested people to get in touch with, the cities your network is
strongest in, and the warmest contacts. A one-line nudge is shown the first
time the overview is opened each day.

Examples:
  netnotes today
  netnotes today --heat 20
  netnotes today --output json`,
		Aliases: []string{"overview"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToday(cmd.Context(), deps, cmd.OutOrStdout(), heatLimit)
		},
	}

	cmd.Flags().IntVar(&heatLimit, "heat", 10, "Number of warmest contacts to list in text output")

	return cmd
}

func runToday(ctx context.Context, deps *CommandDeps, out io.Writer, heatLimit int) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	gate, err := deps.gate(ctx, cfg)
	if err != nil {
		return err
	}

	overview, err := buildToday(ctx, deps, store, gate)
	if err != nil {
		return err
	}
	if ok, err := writeStructured(out, outputFormat(cfg), overview); ok {
		return err
	}
	return outputTodayText(out, overview, heatLimit)
}

func buildToday(ctx context.Context, deps *CommandDeps, store people.Store, gate *daily.Gate) (*TodayOutput, error) {
	now := deps.clk().Now()

	persons, err := store.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	notes, err := store.ListRecentNotes(ctx, RecentNotesLimit)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	trips, err := store.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	upcoming, err := store.ListUpcomingTrips(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing upcoming trips: %w", err)
	}

	var next *people.Trip
	if len(upcoming) > 0 {
		next = &upcoming[0]
	}

	day := clock.DayKey(now)
	scorer := deps.scorer()
	overview := &TodayOutput{
		Date:        day,
		Placeholder: dailyPlaceholder(ctx, deps, gate),
		NextTrip:    next,
		Intents:     scorer.IntentCards(persons, notes, next),
		Cities:      scorer.CityPresence(persons, trips, notes),
		Heat:        scorer.NetworkHeat(persons, notes, day),
	}

	if nudge, ok := scorer.Nudge(persons, notes); ok {
		first, err := gate.Once(ctx, nudgeKey)
		if err != nil {
			deps.logger().Warn("Nudge state unavailable", logging.Err(err))
		}
		if first {
			overview.Nudge = nudge
		}
	}
	return overview, nil
}

// dailyPlaceholder picks today's prompt, falling back to the first one when
// the daily state cannot be read.
func dailyPlaceholder(ctx context.Context, deps *CommandDeps, gate *daily.Gate) string {
	p, err := gate.Pick(ctx, placeholderKey, Placeholders)
	if err != nil || p == "" {
		if err != nil {
			deps.logger().Warn("Placeholder state unavailable", logging.Err(err))
		}
		return Placeholders[0]
	}
	return p
}

func outputTodayText(out io.Writer, o *TodayOutput, heatLimit int) error {
	fmt.Fprintf(out, "%s  %s\n", headerColor.Sprint(o.Date), dimColor.Sprint(o.Placeholder))
	if o.Nudge != "" {
		fmt.Fprintf(out, "\n%s\n", warnColor.Sprint(o.Nudge))
	}
	if o.NextTrip != nil {
		fmt.Fprintf(out, "\nNext trip: %s on %s\n", nameColor.Sprint(o.NextTrip.City), formatDate(o.NextTrip.StartDate))
	}

	fmt.Fprintf(out, "\n%s\n", headerColor.Sprint("Reach out"))
	if len(o.Intents) == 0 {
		fmt.Fprintln(out, dimColor.Sprint("  Nobody in particular today."))
	}
	for _, c := range o.Intents {
		line := fmt.Sprintf("  %-24s %s", nameColor.Sprint(truncate(c.Name, 24)), c.Reason)
		if c.Context != "" {
			line += dimColor.Sprintf(" (%s)", c.Context)
		}
		fmt.Fprintln(out, line)
	}

	if len(o.Cities) > 0 {
		fmt.Fprintf(out, "\n%s\n", headerColor.Sprint("Cities"))
		for _, c := range o.Cities {
			fmt.Fprintf(out, "  %-16s %s\n", truncate(c.City, 16), bar(c.Intensity, 20))
		}
	}

	shown := 0
	for _, n := range o.Heat {
		if n.Filler || shown >= heatLimit {
			continue
		}
		if shown == 0 {
			fmt.Fprintf(out, "\n%s\n", headerColor.Sprint("Warmest"))
		}
		fmt.Fprintf(out, "  %-24s %s %.2f\n", truncate(n.Name, 24), bar(n.Score, 20), n.Score)
		shown++
	}
	return nil
}

// bar renders a value in [0, 1] as a fixed-width bar.
func bar(v float64, width int) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v*float64(width) + 0.5)
	return okColor.Sprint(strings.Repeat("#", filled)) + dimColor.Sprint(strings.Repeat(".", width-filled))
}

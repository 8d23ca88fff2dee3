package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/relevance"
)

// SummaryOutput is the daily summary with its trip reminders.
type SummaryOutput struct {
	Text             string                   `json:"text" yaml:"text"`
	FollowUpsToday   int                      `json:"follow_ups_today" yaml:"follow_ups_today"`
	NextTrip         *people.Trip             `json:"next_trip,omitempty" yaml:"next_trip,omitempty"`
	PendingReachouts int                      `json:"pending_reachouts" yaml:"pending_reachouts"`
	Reminders        []relevance.TripReminder `json:"reminders" yaml:"reminders"`
}

// NewFollowUpsCommand creates the followups command with all subcommands.
func NewFollowUpsCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)

	cmd := &cobra.Command{
		Use:   "followups",
		Short: "Follow-ups that are due and the daily summary",
		Long: `Work through follow-ups and see the daily summary.

A follow-up is created when a captured line asks for one, for example
"follow up next friday" or "remind me in 3 days".

Examples:
  netnotes followups list
  netnotes followups list --ahead 7
  netnotes followups done <note-id>
  netnotes followups summary`,
		Aliases: []string{"followup", "fu"},
	}

	cmd.AddCommand(newFollowUpsListCommand(deps))
	cmd.AddCommand(newFollowUpsDoneCommand(deps))
	cmd.AddCommand(newFollowUpsSummaryCommand(deps))

	return cmd
}

func newFollowUpsListCommand(deps *CommandDeps) *cobra.Command {
	var ahead int

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List open follow-ups that are due",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFollowUpsList(cmd.Context(), deps, cmd.OutOrStdout(), ahead)
		},
	}
	cmd.Flags().IntVar(&ahead, "ahead", 0, "Also include follow-ups due in the next N days")

	return cmd
}

func runFollowUpsList(ctx context.Context, deps *CommandDeps, out io.Writer, ahead int) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	until := deps.clk().Now()
	if ahead > 0 {
		until = until.AddDate(0, 0, ahead)
	}
	due, err := store.ListFollowUpsDue(ctx, until)
	if err != nil {
		return fmt.Errorf("listing follow-ups: %w", err)
	}
	if due == nil {
		due = []people.NoteWithPerson{}
	}

	if ok, err := writeStructured(out, outputFormat(cfg), due); ok {
		return err
	}
	if len(due) == 0 {
		fmt.Fprintln(out, "Nothing to follow up on.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DUE\tPERSON\tNOTE\tID")
	for _, item := range due {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			formatOptionalTime(item.Note.FollowUpAt),
			truncate(item.Person.Name, 24),
			truncate(item.Note.Content, 48),
			item.Note.ID)
	}
	return w.Flush()
}

func newFollowUpsDoneCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "done <note-id>...",
		Short: "Mark follow-ups as done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFollowUpsDone(cmd.Context(), deps, cmd.OutOrStdout(), args)
		},
	}
}

func runFollowUpsDone(ctx context.Context, deps *CommandDeps, out io.Writer, ids []string) error {
	store, _, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range ids {
		if err := store.MarkFollowUpDone(ctx, id); err != nil {
			return withHint(fmt.Errorf("note %s: %w", id, err), "followups")
		}
		fmt.Fprintf(out, "%s %s\n", okColor.Sprint("Done"), id)
	}
	return nil
}

func newFollowUpsSummaryCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the daily summary line and upcoming trip reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFollowUpsSummary(cmd.Context(), deps, cmd.OutOrStdout())
		},
	}
}

func runFollowUpsSummary(ctx context.Context, deps *CommandDeps, out io.Writer) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := buildSummary(ctx, deps, store)
	if err != nil {
		return err
	}
	if ok, err := writeStructured(out, outputFormat(cfg), summary); ok {
		return err
	}
	fmt.Fprintln(out, summary.Text)
	for _, r := range summary.Reminders {
		fmt.Fprintf(out, "  %s  %s\n", dimColor.Sprint(r.At.Local().Format("2006-01-02 15:04")), r.Text)
	}
	return nil
}

func buildSummary(ctx context.Context, deps *CommandDeps, store people.Store) (*SummaryOutput, error) {
	scorer := deps.scorer()
	now := deps.clk().Now()

	// Everything due before tomorrow; the scorer keeps only today's.
	endOfDay := startOfDay(now).AddDate(0, 0, 1).Add(-1)
	due, err := store.ListFollowUpsDue(ctx, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("listing follow-ups: %w", err)
	}
	out := &SummaryOutput{
		FollowUpsToday: scorer.FollowUpsDueToday(due),
		Reminders:      []relevance.TripReminder{},
	}

	upcoming, err := store.ListUpcomingTrips(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing upcoming trips: %w", err)
	}
	if len(upcoming) > 0 {
		trip := upcoming[0]
		detail, err := tripDetail(ctx, store, trip)
		if err != nil {
			return nil, err
		}
		out.NextTrip = &trip
		out.PendingReachouts = detail.Pending
		out.Reminders = append(out.Reminders, scorer.TripReminders(trip, detail.Pending)...)
	}

	out.Text = relevance.DailySummary(out.FollowUpsToday, out.NextTrip, out.PendingReachouts)
	return out, nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/relevance"
)

// TripDetail is a trip with the people tied to its city.
type TripDetail struct {
	Trip     people.Trip   `json:"trip" yaml:"trip"`
	Contacts []TripContact `json:"contacts" yaml:"contacts"`
	Pending  int           `json:"pending" yaml:"pending"`
}

// TripContact is one person to reach out to before a trip.
type TripContact struct {
	PersonID string                `json:"person_id" yaml:"person_id"`
	Name     string                `json:"name" yaml:"name"`
	Status   people.ReachoutStatus `json:"status" yaml:"status"`
}

// NewTripCommand creates the trip command with all subcommands.
func NewTripCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)

	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Plan trips and track who to reach out to",
		Long: `Plan trips and track who to reach out to before you go.

People whose city, tags or place mention the trip city are listed as
contacts for the trip. Mark them reached once you have been in touch.

Examples:
  netnotes trip add London --start 2026-11-02 --end 2026-11-06
  netnotes trip list
  netnotes trip show <trip-id>
  netnotes trip reached <trip-id> "Alex Kim"`,
		Aliases: []string{"trips"},
	}

	cmd.AddCommand(newTripAddCommand(deps))
	cmd.AddCommand(newTripListCommand(deps))
	cmd.AddCommand(newTripShowCommand(deps))
	cmd.AddCommand(newTripReachedCommand(deps))

	return cmd
}

func newTripAddCommand(deps *CommandDeps) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "add <city>",
		Short: "Add a planned trip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTripAdd(cmd.Context(), deps, cmd.OutOrStdout(), strings.Join(args, " "), start, end)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day of the trip (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the trip (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func runTripAdd(ctx context.Context, deps *CommandDeps, out io.Writer, city, start, end string) error {
	now := deps.clk().Now()
	trip := people.Trip{
		ID:        uuid.NewString(),
		City:      strings.TrimSpace(city),
		CreatedAt: now,
	}
	if trip.City == "" {
		return fmt.Errorf("trip city is empty: %w", nnerrors.ErrValidation)
	}

	startAt, err := parseDay(start, now)
	if err != nil {
		return err
	}
	trip.StartDate = startAt
	if end != "" {
		endAt, err := parseDay(end, now)
		if err != nil {
			return err
		}
		if endAt.Before(startAt) {
			return fmt.Errorf("trip ends before it starts: %w", nnerrors.ErrValidation)
		}
		trip.EndDate = &endAt
	}

	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateTrip(ctx, &trip); err != nil {
		return fmt.Errorf("saving trip: %w", err)
	}
	if ok, err := writeStructured(out, outputFormat(cfg), trip); ok {
		return err
	}
	fmt.Fprintf(out, "%s trip to %s on %s %s\n",
		okColor.Sprint("Added"), nameColor.Sprint(trip.City), formatDate(trip.StartDate), dimColor.Sprint(trip.ID))
	return nil
}

func newTripListCommand(deps *CommandDeps) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List upcoming trips",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTripList(cmd.Context(), deps, cmd.OutOrStdout(), all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include past trips")

	return cmd
}

func runTripList(ctx context.Context, deps *CommandDeps, out io.Writer, all bool) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var trips []people.Trip
	if all {
		trips, err = store.ListTrips(ctx)
	} else {
		trips, err = store.ListUpcomingTrips(ctx, startOfDay(deps.clk().Now()))
	}
	if err != nil {
		return fmt.Errorf("listing trips: %w", err)
	}
	if trips == nil {
		trips = []people.Trip{}
	}

	if ok, err := writeStructured(out, outputFormat(cfg), trips); ok {
		return err
	}
	if len(trips) == 0 {
		fmt.Fprintln(out, "No trips planned.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CITY\tSTART\tEND\tID")
	for _, t := range trips {
		endDay := "-"
		if t.EndDate != nil {
			endDay = formatDate(*t.EndDate)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.City, formatDate(t.StartDate), endDay, t.ID)
	}
	return w.Flush()
}

func newTripShowCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trip-id>",
		Short: "Show a trip and who to reach out to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTripShow(cmd.Context(), deps, cmd.OutOrStdout(), args[0])
		},
	}
}

func runTripShow(ctx context.Context, deps *CommandDeps, out io.Writer, tripID string) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	trip, err := findTrip(ctx, store, tripID)
	if err != nil {
		return withHint(err, "trip")
	}
	detail, err := tripDetail(ctx, store, *trip)
	if err != nil {
		return err
	}

	if ok, err := writeStructured(out, outputFormat(cfg), detail); ok {
		return err
	}
	fmt.Fprintf(out, "%s from %s %s\n", nameColor.Sprint(trip.City), formatDate(trip.StartDate), dimColor.Sprint(trip.ID))
	if len(detail.Contacts) == 0 {
		fmt.Fprintln(out, dimColor.Sprint("  Nobody you know there yet."))
		return nil
	}
	for _, c := range detail.Contacts {
		mark := warnColor.Sprint("[ ]")
		if c.Status == people.ReachoutDone {
			mark = okColor.Sprint("[x]")
		}
		fmt.Fprintf(out, "  %s %s\n", mark, c.Name)
	}
	fmt.Fprintf(out, "\n%d still to reach\n", detail.Pending)
	return nil
}

// findTrip looks a trip up by ID.
func findTrip(ctx context.Context, store people.TripStore, id string) (*people.Trip, error) {
	trips, err := store.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	for i := range trips {
		if trips[i].ID == id {
			return &trips[i], nil
		}
	}
	return nil, fmt.Errorf("trip %s: %w", id, nnerrors.ErrNotFound)
}

func tripDetail(ctx context.Context, store people.Store, trip people.Trip) (*TripDetail, error) {
	cityPeople, err := store.ListPeopleForCity(ctx, trip.City)
	if err != nil {
		return nil, fmt.Errorf("listing people in %s: %w", trip.City, err)
	}
	reachouts, err := store.ListTripReachouts(ctx, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("listing reach-outs: %w", err)
	}

	status := make(map[string]people.ReachoutStatus, len(reachouts))
	for _, r := range reachouts {
		status[r.PersonID] = r.Status
	}
	detail := &TripDetail{
		Trip:     trip,
		Contacts: []TripContact{},
		Pending:  relevance.PendingReachouts(cityPeople, reachouts),
	}
	for _, p := range cityPeople {
		s, ok := status[p.ID]
		if !ok {
			s = people.ReachoutPending
		}
		detail.Contacts = append(detail.Contacts, TripContact{PersonID: p.ID, Name: p.Name, Status: s})
	}
	return detail, nil
}

func newTripReachedCommand(deps *CommandDeps) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "reached <trip-id> <name-or-id>",
		Short: "Mark a person as reached out to for a trip",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := people.ReachoutDone
			if undo {
				status = people.ReachoutPending
			}
			return runTripReached(cmd.Context(), deps, cmd.OutOrStdout(), args[0], strings.Join(args[1:], " "), status)
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Mark as pending again")

	return cmd
}

func runTripReached(ctx context.Context, deps *CommandDeps, out io.Writer, tripID, ref string, status people.ReachoutStatus) error {
	store, _, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	trip, err := findTrip(ctx, store, tripID)
	if err != nil {
		return withHint(err, "trip")
	}
	p, err := findPerson(ctx, store, ref)
	if err != nil {
		return withHint(err, "trip")
	}
	r := &people.TripReachout{
		ID:        uuid.NewString(),
		TripID:    trip.ID,
		PersonID:  p.ID,
		Status:    status,
		UpdatedAt: deps.clk().Now(),
	}
	if err := store.SetTripReachout(ctx, r); err != nil {
		return fmt.Errorf("saving reach-out: %w", err)
	}
	fmt.Fprintf(out, "%s %s for %s\n", nameColor.Sprint(p.Name), status, trip.City)
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

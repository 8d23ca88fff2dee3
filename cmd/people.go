package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// PersonDetail is a person with their notes.
type PersonDetail struct {
	Person *people.Person `json:"person" yaml:"person"`
	Notes  []people.Note  `json:"notes" yaml:"notes"`
}

// NewPeopleCommand creates the people command with all subcommands.
func NewPeopleCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)

	cmd := &cobra.Command{
		Use:   "people",
		Short: "List, inspect and edit contacts",
		Long: `List, inspect and edit the people you have captured.

People are addressed by ID or by name (case-insensitive).

Examples:
  netnotes people list
  netnotes people list --city london
  netnotes people show "Alex Kim"
  netnotes people edit "Alex Kim" --importance 5 --tags "climbing,design"`,
		Aliases: []string{"person", "p"},
	}

	cmd.AddCommand(newPeopleListCommand(deps))
	cmd.AddCommand(newPeopleShowCommand(deps))
	cmd.AddCommand(newPeopleEditCommand(deps))

	return cmd
}

func newPeopleListCommand(deps *CommandDeps) *cobra.Command {
	var city string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List people, most recently updated first",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeopleList(cmd.Context(), deps, cmd.OutOrStdout(), city)
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "Only people whose city, tags or place mention this text")

	return cmd
}

func runPeopleList(ctx context.Context, deps *CommandDeps, out io.Writer, city string) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var list []people.Person
	if strings.TrimSpace(city) != "" {
		list, err = store.ListPeopleForCity(ctx, strings.TrimSpace(city))
	} else {
		list, err = store.ListPeople(ctx)
	}
	if err != nil {
		return fmt.Errorf("listing people: %w", err)
	}
	if list == nil {
		list = []people.Person{}
	}

	if ok, err := writeStructured(out, outputFormat(cfg), list); ok {
		return err
	}
	return outputPeopleTable(out, list)
}

func outputPeopleTable(out io.Writer, list []people.Person) error {
	if len(list) == 0 {
		fmt.Fprintln(out, "No people yet. Add one with: netnotes capture \"<line>\"")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCITY\tPLACE\tIMP\tLAST TOUCHED\tID")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncate(p.Name, 28),
			valueOrDash(p.City),
			truncate(valueOrDash(p.PlaceLabel), 24),
			p.Importance,
			formatDate(p.LastTouched()),
			p.ID)
	}
	return w.Flush()
}

func newPeopleShowCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name-or-id>",
		Short: "Show a person and their notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeopleShow(cmd.Context(), deps, cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func runPeopleShow(ctx context.Context, deps *CommandDeps, out io.Writer, ref string) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := findPerson(ctx, store, ref)
	if err != nil {
		return withHint(err, "show")
	}
	notes, err := store.ListNotesForPerson(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("listing notes: %w", err)
	}
	if notes == nil {
		notes = []people.Note{}
	}

	detail := PersonDetail{Person: p, Notes: notes}
	if ok, err := writeStructured(out, outputFormat(cfg), detail); ok {
		return err
	}
	return outputPersonText(out, detail)
}

func outputPersonText(out io.Writer, d PersonDetail) error {
	p := d.Person
	row := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(out, "  %-14s %s\n", label+":", value)
		}
	}

	fmt.Fprintf(out, "%s %s\n", nameColor.Sprint(p.Name), dimColor.Sprint(p.ID))
	row("City", p.City)
	row("Place", p.PlaceLabel)
	if p.Coords != nil {
		row("Coordinates", fmt.Sprintf("%.5f, %.5f", p.Coords.Lat, p.Coords.Lng))
	}
	if p.Age > 0 {
		row("Age", fmt.Sprint(p.Age))
	}
	row("Tags", p.Tags)
	row("Importance", fmt.Sprintf("%d/%d", p.Importance, people.MaxImportance))
	row("Phone", p.PhoneNumber)
	row("Channel", p.PreferredChannel)
	if p.LastInteractionAt != nil {
		row("Last met", formatDate(*p.LastInteractionAt))
	}
	row("Added", formatDate(p.CreatedAt))

	if len(d.Notes) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\n%s\n", headerColor.Sprint("Notes"))
	for _, n := range d.Notes {
		line := fmt.Sprintf("  %s  %s", dimColor.Sprint(formatDate(n.CreatedAt)), n.Content)
		if n.NeedsFollowUp {
			line += " " + warnColor.Sprintf("[follow up %s]", formatOptionalTime(n.FollowUpAt))
		}
		if n.PlaceLabel != "" {
			line += dimColor.Sprintf(" @ %s", n.PlaceLabel)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// findPerson resolves an ID, falling back to a name lookup.
func findPerson(ctx context.Context, store people.PersonStore, ref string) (*people.Person, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("person reference is empty: %w", nnerrors.ErrValidation)
	}
	p, err := store.GetPerson(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !nnerrors.IsNotFound(err) {
		return nil, err
	}
	p, err = store.FindPersonByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("person %q: %w", ref, nnerrors.ErrNotFound)
	}
	return p, nil
}

// personEdits collects the edit flags.
type personEdits struct {
	name       string
	city       string
	tags       string
	importance int
	place      string
	age        int
	lat        float64
	lng        float64
	met        string
	phone      string
	channel    string
	contactID  string
	clear      []string
}

// clearableFields are the names accepted by --clear.
var clearableFields = []string{"city", "tags", "importance", "place", "coords", "age", "met", "phone", "channel", "contact"}

func newPeopleEditCommand(deps *CommandDeps) *cobra.Command {
	e := &personEdits{}

	cmd := &cobra.Command{
		Use:   "edit <name-or-id>",
		Short: "Change a person's details",
		Long: `Change a person's details. Only the flags given are changed.

Use --clear to blank fields: ` + strings.Join(clearableFields, ", ") + `.
Clearing importance resets it to the default.

Examples:
  netnotes people edit "Alex Kim" --city Paris --importance 4
  netnotes people edit "Alex Kim" --met today
  netnotes people edit 6f1c... --clear tags,phone`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := e.toInput(cmd, deps.clk().Now())
			if err != nil {
				return err
			}
			return runPeopleEdit(cmd.Context(), deps, cmd.OutOrStdout(), strings.Join(args, " "), in)
		},
	}

	e.bind(cmd)

	return cmd
}

// bind registers the edit flags on cmd.
func (e *personEdits) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&e.name, "name", "", "New name")
	f.StringVar(&e.city, "city", "", "City")
	f.StringVar(&e.tags, "tags", "", "Comma-separated tags")
	f.IntVar(&e.importance, "importance", people.DefaultImportance, "Importance from 1 to 5")
	f.StringVar(&e.place, "place", "", "Where you met")
	f.IntVar(&e.age, "age", 0, "Age")
	f.Float64Var(&e.lat, "lat", 0, "Latitude (with --lng)")
	f.Float64Var(&e.lng, "lng", 0, "Longitude (with --lat)")
	f.StringVar(&e.met, "met", "", "Last interaction date (YYYY-MM-DD or today)")
	f.StringVar(&e.phone, "phone", "", "Phone number")
	f.StringVar(&e.channel, "channel", "", "Preferred channel, e.g. sms or whatsapp")
	f.StringVar(&e.contactID, "contact", "", "Phone contact ID")
	f.StringSliceVar(&e.clear, "clear", nil, "Fields to clear")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
}

func (e *personEdits) toInput(cmd *cobra.Command, now time.Time) (people.UpdateInput, error) {
	var in people.UpdateInput
	changed := cmd.Flags().Changed

	if changed("name") {
		in.Name = people.Set(e.name)
	}
	if changed("city") {
		in.City = people.Set(e.city)
	}
	if changed("tags") {
		in.Tags = people.Set(e.tags)
	}
	if changed("importance") {
		in.Importance = people.Set(e.importance)
	}
	if changed("place") {
		in.PlaceLabel = people.Set(e.place)
	}
	if changed("age") {
		in.Age = people.Set(e.age)
	}
	if changed("lat") {
		in.Coords = people.Set(people.Coordinates{Lat: e.lat, Lng: e.lng})
	}
	if changed("met") {
		t, err := parseDay(e.met, now)
		if err != nil {
			return in, err
		}
		in.LastInteractionAt = people.Set(t)
	}
	if changed("phone") {
		in.PhoneNumber = people.Set(e.phone)
	}
	if changed("channel") {
		in.PreferredChannel = people.Set(e.channel)
	}
	if changed("contact") {
		in.PhoneContactID = people.Set(e.contactID)
	}

	for _, field := range e.clear {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "city":
			in.City = people.Clear[string]()
		case "tags":
			in.Tags = people.Clear[string]()
		case "importance":
			in.Importance = people.Clear[int]()
		case "place":
			in.PlaceLabel = people.Clear[string]()
		case "coords":
			in.Coords = people.Clear[people.Coordinates]()
		case "age":
			in.Age = people.Clear[int]()
		case "met":
			in.LastInteractionAt = people.Clear[time.Time]()
		case "phone":
			in.PhoneNumber = people.Clear[string]()
		case "channel":
			in.PreferredChannel = people.Clear[string]()
		case "contact":
			in.PhoneContactID = people.Clear[string]()
		default:
			return in, fmt.Errorf("cannot clear %q (valid: %s): %w",
				field, strings.Join(clearableFields, ", "), nnerrors.ErrValidation)
		}
	}
	return in, nil
}

// parseDay reads YYYY-MM-DD in local time, or "today".
func parseDay(s string, now time.Time) (time.Time, error) {
	if strings.EqualFold(strings.TrimSpace(s), "today") {
		return now, nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, nnerrors.ErrValidation)
	}
	return t, nil
}

func runPeopleEdit(ctx context.Context, deps *CommandDeps, out io.Writer, ref string, in people.UpdateInput) error {
	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := findPerson(ctx, store, ref)
	if err != nil {
		return withHint(err, "edit")
	}
	updated, err := deps.resolver(store).Update(ctx, p.ID, in)
	if err != nil {
		return withHint(err, "edit")
	}

	if ok, err := writeStructured(out, outputFormat(cfg), updated); ok {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", okColor.Sprint("Updated"), nameColor.Sprint(updated.Name))
	return nil
}

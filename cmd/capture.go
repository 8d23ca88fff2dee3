package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/netnotes-cli/config"
	"github.com/otherjamesbrown/netnotes-cli/pkg/capture"
	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// captureAnswers answers prompts from flags when there is no terminal.
type captureAnswers struct {
	name      string
	placeYes  bool
	placeNo   bool
	where     string
	skipWhere bool
}

func (a *captureAnswers) Respond(_ context.Context, p capture.Prompt) (capture.Reply, error) {
	switch p.Kind {
	case capture.PromptAskName:
		if strings.TrimSpace(a.name) != "" {
			return capture.Submit(a.name), nil
		}
		return capture.Skip(), nil
	case capture.PromptConfirmPlace:
		switch {
		case a.placeYes:
			return capture.Yes(), nil
		case a.placeNo:
			return capture.No(), nil
		}
		return capture.Reply{}, fmt.Errorf("confirm place %q: pass --place-yes or --place-no", p.Suggestion)
	case capture.PromptAskWhere:
		switch {
		case strings.TrimSpace(a.where) != "":
			return capture.Submit(a.where), nil
		case a.skipWhere:
			return capture.Skip(), nil
		}
		return capture.Reply{}, fmt.Errorf("place unknown: pass --where or --skip-where")
	}
	return capture.Reply{}, fmt.Errorf("unexpected prompt %s: %w", p.Kind, nnerrors.ErrInvalidState)
}

// formResponder asks each question with a terminal form. Aborting the form
// cancels the capture.
type formResponder struct{}

func (formResponder) Respond(ctx context.Context, p capture.Prompt) (capture.Reply, error) {
	var field huh.Field
	var text string
	var yes bool

	switch p.Kind {
	case capture.PromptAskName:
		text = p.Suggestion
		field = huh.NewInput().
			Title("Who was it?").
			Description("Leave blank to save as " + capture.PlaceholderName).
			Placeholder("e.g. Alex Kim").
			Value(&text)
	case capture.PromptConfirmPlace:
		yes = true
		field = huh.NewConfirm().
			Title(fmt.Sprintf("Met %s at %s?", p.Name, p.Suggestion)).
			Affirmative("Yes").
			Negative("No").
			Value(&yes)
	case capture.PromptAskWhere:
		field = huh.NewInput().
			Title(fmt.Sprintf("Where did you meet %s?", p.Name)).
			Description("Leave blank to skip").
			Placeholder("e.g. Ace Hotel, London").
			Value(&text)
	default:
		return capture.Reply{}, fmt.Errorf("unexpected prompt %s: %w", p.Kind, nnerrors.ErrInvalidState)
	}

	err := runForm(ctx, field)
	if errors.Is(err, huh.ErrUserAborted) {
		return capture.Cancel(), nil
	}
	if err != nil {
		return capture.Reply{}, err
	}

	switch p.Kind {
	case capture.PromptConfirmPlace:
		if yes {
			return capture.Yes(), nil
		}
		return capture.No(), nil
	default:
		if strings.TrimSpace(text) == "" {
			return capture.Skip(), nil
		}
		return capture.Submit(text), nil
	}
}

// CaptureOutput is the structured result of a capture.
type CaptureOutput struct {
	Person *people.Person `json:"person" yaml:"person"`
	Note   *people.Note   `json:"note,omitempty" yaml:"note,omitempty"`
	IsNew  bool           `json:"is_new" yaml:"is_new"`
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)
	answers := &captureAnswers{}

	cmd := &cobra.Command{
		Use:   "capture [line]",
		Short: "Save a person from one line of text",
		Long: `Save a person from one free-text line.

The line is parsed for a name, age, city, venue, occupation and follow-up
request. The contact is matched by name, so capturing the same person twice
updates one record. A note is added when the line carries anything beyond
the name and place.

On a terminal, missing details are asked for. Otherwise answer them with
flags; without an answer the capture is abandoned and nothing is saved.

Examples:
  netnotes capture "Met Alex Kim at Soho House London, designer at Acme"
  netnotes capture "Sam, 34, climber, follow up next friday"
  netnotes capture "guy from the bakery" --name "Tom" --skip-where
  netnotes capture "Jo at the cafe" --place-no --where "Cafe Flore, Paris"`,
		Aliases: []string{"add", "c"},
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.TrimSpace(strings.Join(args, " "))
			return runCapture(cmd.Context(), deps, cmd.OutOrStdout(), line, answers)
		},
	}

	cmd.Flags().StringVar(&answers.name, "name", "", "Name to use when the line does not give one clearly")
	cmd.Flags().BoolVar(&answers.placeYes, "place-yes", false, "Accept the detected place")
	cmd.Flags().BoolVar(&answers.placeNo, "place-no", false, "Reject the detected place")
	cmd.Flags().StringVar(&answers.where, "where", "", "Place to record when none was detected")
	cmd.Flags().BoolVar(&answers.skipWhere, "skip-where", false, "Save without a place when none was detected")
	cmd.MarkFlagsMutuallyExclusive("place-yes", "place-no")
	cmd.MarkFlagsMutuallyExclusive("where", "skip-where")

	return cmd
}

func runCapture(ctx context.Context, deps *CommandDeps, out io.Writer, line string, answers *captureAnswers) error {
	interactive := deps.interactive()
	if line == "" && interactive {
		if err := runForm(ctx, huh.NewInput().
			Title("Who did you meet?").
			Placeholder(capturePlaceholder(ctx, deps)).
			Value(&line)); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
	}
	if line == "" {
		return fmt.Errorf("nothing to capture: %w", nnerrors.ErrValidation)
	}

	store, cfg, err := deps.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var responder capture.Responder = answers
	if interactive {
		responder = formResponder{}
	}

	c := deps.capturer(store, cfg)
	for {
		res, err := capture.Drive(ctx, c, line, responder)
		if err == nil {
			return outputCapture(out, cfg, res)
		}
		if nnerrors.IsCancelled(err) {
			fmt.Fprintln(out, "Capture cancelled. Nothing was saved.")
			return nil
		}
		deps.logger().Debug("Capture failed", logging.Err(err))
		if !interactive || !askRetry(ctx, err) {
			return withHint(err, "capture")
		}
	}
}

// capturePlaceholder returns today's prompt text for an empty capture.
func capturePlaceholder(ctx context.Context, deps *CommandDeps) string {
	cfg, err := deps.cliConfig()
	if err != nil {
		return Placeholders[0]
	}
	gate, err := deps.gate(ctx, cfg)
	if err != nil {
		return Placeholders[0]
	}
	return dailyPlaceholder(ctx, deps, gate)
}

// askRetry offers to run a failed capture again when the failure is transient.
func askRetry(ctx context.Context, err error) bool {
	ce := nnerrors.ClassifyError(err, "capture")
	if !nnerrors.IsRetryable(ce.Code) {
		return false
	}
	retry := true
	confirm := huh.NewConfirm().
		Title(nnerrors.GetDescription(ce.Code) + ". Try again?").
		Affirmative("Retry").
		Negative("Give up").
		Value(&retry)
	if err := runForm(ctx, confirm); err != nil {
		return false
	}
	return retry
}

func runForm(ctx context.Context, fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx)
}

func outputCapture(out io.Writer, cfg *config.CLIConfig, res *capture.Result) error {
	result := CaptureOutput{Person: res.Person, Note: res.Note, IsNew: res.IsNew}
	if ok, err := writeStructured(out, outputFormat(cfg), result); ok {
		return err
	}

	p := res.Person
	status := "updated"
	if res.IsNew {
		status = "new"
	}
	fmt.Fprintf(out, "%s %s %s\n", okColor.Sprint("Saved"), nameColor.Sprint(p.Name), dimColor.Sprintf("(%s)", status))
	if p.PlaceLabel != "" || p.City != "" {
		fmt.Fprintf(out, "  Place: %s\n", joinNonEmpty(" / ", p.PlaceLabel, p.City))
	}
	if p.Age > 0 {
		fmt.Fprintf(out, "  Age:   %d\n", p.Age)
	}
	if n := res.Note; n != nil {
		fmt.Fprintf(out, "  Note:  %s\n", n.Content)
		if n.NeedsFollowUp {
			fmt.Fprintf(out, "  %s %s\n", warnColor.Sprint("Follow up:"), formatOptionalTime(n.FollowUpAt))
		}
	}
	return nil
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/lineparse"
)

// NewParseCommand creates the parse command. It shows what capture would
// extract from a line without saving anything.
func NewParseCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)

	return &cobra.Command{
		Use:   "parse <line>",
		Short: "Show what a line would be parsed into",
		Long: `Parse a line the way capture does and print the result.

Nothing is saved. Use it to check how a name, place or follow-up date will
be read before capturing.

Examples:
  netnotes parse "Met Alex Kim at Soho House London, designer at Acme"
  netnotes parse "Sam, 34, follow up in 3 days" --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), deps, cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func runParse(_ context.Context, deps *CommandDeps, out io.Writer, line string) error {
	if strings.TrimSpace(line) == "" {
		return fmt.Errorf("nothing to parse: %w", nnerrors.ErrValidation)
	}
	cfg, err := deps.cliConfig()
	if err != nil {
		return err
	}

	cand := deps.parser(cfg).Parse(line)
	if ok, err := writeStructured(out, outputFormat(cfg), cand); ok {
		return err
	}
	return outputCandidateText(out, cand)
}

func outputCandidateText(out io.Writer, c lineparse.Candidate) error {
	row := func(label, value string) {
		fmt.Fprintf(out, "  %-12s %s\n", label+":", valueOrDash(value))
	}

	name := c.Name
	if name != "" {
		name = nameColor.Sprint(name)
	}
	fmt.Fprintln(out, headerColor.Sprint("Parsed line"))
	row("Name", name)
	fmt.Fprintf(out, "  %-12s %.2f %s\n", "Confidence:", c.Confidence, dimColor.Sprint(valueOrDash(c.NameRule)))
	if c.Age > 0 {
		row("Age", fmt.Sprint(c.Age))
	} else {
		row("Age", "")
	}
	row("City", c.City)
	row("Venue", c.Venue)
	row("Place", c.PlaceCandidate)
	row("Company", c.Company)
	row("Occupation", c.Occupation)
	row("Notes", c.Notes)
	if c.FollowUp.Needed {
		row("Follow up", warnColor.Sprint(formatOptionalTime(c.FollowUp.At)))
	}
	return nil
}

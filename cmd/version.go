package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/netnotes-cli/pkg/buildinfo"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(deps *CommandDeps) *cobra.Command {
	deps = orDefault(deps)
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build time of the netnotes CLI.

Examples:
  netnotes version
  netnotes version --short
  netnotes version --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(deps, cmd.OutOrStdout(), short)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print the version number only")

	return cmd
}

func runVersion(deps *CommandDeps, out io.Writer, short bool) error {
	info := buildinfo.Get("netnotes")
	if short {
		fmt.Fprintln(out, info.Version)
		return nil
	}

	// Version works without a readable config file.
	if ok, err := writeStructured(out, outputFormat(deps.Config), info); ok {
		return err
	}
	fmt.Fprintf(out, "netnotes version %s\n", info.Version)
	fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
	fmt.Fprintf(out, "  go:         %s %s\n", info.GoVersion, info.Platform)
	return nil
}

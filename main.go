// Package main provides the netnotes CLI entry point.
// netnotes keeps short notes about the people you meet and tells you who is
// worth getting back in touch with.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/netnotes-cli/cmd"
	"github.com/otherjamesbrown/netnotes-cli/config"
	"github.com/otherjamesbrown/netnotes-cli/pkg/logging"
)

// Global flags.
var (
	outputFormat string
	storeBackend string
	metricsFile  string
	debug        bool
)

// newRootCommand builds the netnotes command tree around deps.
func newRootCommand(deps *cmd.CommandDeps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netnotes",
		Short: "Remember the people you meet",
		Long: `netnotes keeps one-line notes about the people you meet.

Type a line the way you would jot it down, "alex, 22, Polo Lounge LA", and
netnotes works out the name, age and place, tags it with where you are, and
keeps it with everything else you know about that person. The overview then
tells you who is worth getting back in touch with.

COMMON WORKFLOWS:
  Capture a note:   netnotes capture "maya from the climbing gym, follow up friday"
  Daily overview:   netnotes today
  Before a trip:    netnotes trip add London --start 2026-11-02  →  netnotes trip show <id>
  Follow-ups:       netnotes followups list  →  netnotes followups done <id>

All commands support --output json and --output yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			// Skip initialization for commands that don't need it.
			switch c.Name() {
			case "version", "help", "completion", "init":
				return nil
			}
			return loadSettings(deps)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "store backend: memory, sqlite, postgres")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddGroup(
		&cobra.Group{ID: "notes", Title: "Notes:"},
		&cobra.Group{ID: "plan", Title: "Planning:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	add := func(group string, c *cobra.Command) {
		c.GroupID = group
		rootCmd.AddCommand(c)
	}
	add("notes", cmd.NewCaptureCommand(deps))
	add("notes", cmd.NewParseCommand(deps))
	add("notes", cmd.NewPeopleCommand(deps))
	add("plan", cmd.NewTodayCommand(deps))
	add("plan", cmd.NewTripCommand(deps))
	add("plan", cmd.NewFollowUpsCommand(deps))
	add("setup", cmd.NewConfigCommand(deps))
	add("setup", cmd.NewDbCommand(deps))
	add("setup", newCompletionCommand(rootCmd))
	add("setup", cmd.NewVersionCommand(deps))

	return rootCmd
}

// loadSettings loads the configuration, applies the global flags and sets up
// logging.
func loadSettings(deps *cmd.CommandDeps) error {
	load := deps.LoadConfig
	if load == nil {
		load = config.LoadConfig
	}
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if outputFormat != "" {
		cfg.OutputFormat = config.OutputFormat(outputFormat)
	}
	if storeBackend != "" {
		cfg.Store.Backend = config.StoreBackend(storeBackend)
	}
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps.Config = cfg
	if deps.Logger == nil {
		deps.Logger = cmd.NewLogger(cfg)
		logging.SetGlobal(deps.Logger)
	}
	return nil
}

func newCompletionCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for netnotes.

Bash:
  $ source <(netnotes completion bash)

Zsh:
  $ netnotes completion zsh > "${fpath[1]}/_netnotes"

Fish:
  $ netnotes completion fish > ~/.config/fish/completions/netnotes.fish

PowerShell:
  PS> netnotes completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(c *cobra.Command, args []string) error {
			out := c.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// execute runs the command tree and then writes the metrics file, also when
// the command failed.
func execute(ctx context.Context, rootCmd *cobra.Command, deps *cmd.CommandDeps) error {
	err := rootCmd.ExecuteContext(ctx)
	if werr := deps.WriteMetrics(metricsFile); werr != nil && err == nil {
		err = werr
	}
	return err
}

func main() {
	// Cancel in-flight work on interrupt; stores are closed by the commands.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := cmd.DefaultDeps()
	rootCmd := newRootCommand(deps)
	if err := execute(ctx, rootCmd, deps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/netnotes-cli/config"
	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
)

var (
	headerColor = color.New(color.Bold)
	nameColor   = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.Faint)
	warnColor   = color.New(color.FgYellow)
	okColor     = color.New(color.FgGreen)
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// outputFormat returns the configured format, defaulting to text.
func outputFormat(cfg *config.CLIConfig) config.OutputFormat {
	if cfg == nil || !cfg.OutputFormat.IsValid() {
		return config.OutputFormatText
	}
	return cfg.OutputFormat
}

// writeStructured writes v as JSON or YAML. It reports false for text so
// the caller renders its own table.
func writeStructured(w io.Writer, format config.OutputFormat, v interface{}) (bool, error) {
	switch format {
	case config.OutputFormatJSON:
		return true, outputJSON(w, v)
	case config.OutputFormatYAML:
		return true, outputYAML(w, v)
	default:
		return false, nil
	}
}

func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// withHint appends the suggested action for err's error code, if it has one.
func withHint(err error, stage string) error {
	ce := nnerrors.ClassifyError(err, stage)
	if ce == nil || ce.Code == nnerrors.CodeUnknown {
		return err
	}
	return fmt.Errorf("%s: %w\n  %s", stage, err, nnerrors.GetSuggestedAction(ce.Code))
}

func formatDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

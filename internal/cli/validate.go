package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provgraph/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool             `json:"valid"`
	Config *config.Config   `json:"config,omitempty"`
	Errors []ValidationItem `json:"errors,omitempty"`
}

// ValidationItem is one problem found in a config file.
type ValidationItem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a daemon config file",
		Long: `Check a CUE config file against the daemon schema and print the
effective configuration, with defaults filled in.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Validating %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		var ce *config.ConfigError
		if !errors.As(err, &ce) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}
		return outputValidationError(formatter, ce)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Config: &cfg})
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ Configuration valid")
	fmt.Fprintf(w, "  window:       %d\n", cfg.Window)
	fmt.Fprintf(w, "  log_path:     %s\n", cfg.LogPath)
	fmt.Fprintf(w, "  database:     %s\n", orNone(cfg.Database))
	fmt.Fprintf(w, "  workers:      %d\n", cfg.Workers)
	fmt.Fprintf(w, "  metrics_addr: %s\n", orNone(cfg.MetricsAddr))
	fmt.Fprintf(w, "  opaque_log:   %t\n", cfg.OpaqueLog)
	return nil
}

// outputValidationError reports a schema violation.
func outputValidationError(formatter *OutputFormatter, ce *config.ConfigError) error {
	item := ValidationItem{
		Field:   ce.Field,
		Message: ce.Message,
		Code:    ErrCodeInvalidConfig,
	}
	if ce.Pos.IsValid() {
		item.Line = ce.Pos.Line()
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: []ValidationItem{item}},
			Error: &CLIError{
				Code:    item.Code,
				Message: item.Message,
			},
		}
		if err := writeIndentedJSON(formatter.Writer, response); err != nil {
			return err
		}
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, "validation failed")
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	if item.Line > 0 {
		fmt.Fprintf(formatter.Writer, "line %d\n", item.Line)
	}
	fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", item.Code, item.Field, item.Message)

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, "validation failed")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

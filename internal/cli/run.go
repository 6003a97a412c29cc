package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/provgraph/internal/capture"
	"github.com/roach88/provgraph/internal/config"
	"github.com/roach88/provgraph/internal/diaglog"
	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/metrics"
	"github.com/roach88/provgraph/internal/service"
	"github.com/roach88/provgraph/internal/store"
)

// RunOptions holds flags for the run command.
// Flags explicitly set on the command line override the config file.
type RunOptions struct {
	*RootOptions
	ConfigPath  string
	LogPath     string
	Database    string
	Window      int
	Workers     int
	MetricsAddr string

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionIDGenerator
}

// RunSummary is printed when the capture source is exhausted.
type RunSummary struct {
	Session  string            `json:"session"`
	LogPath  string            `json:"log_path"`
	Database string            `json:"database,omitempty"`
	Capture  capture.FileStats `json:"capture"`
	Engine   engine.Stats      `json:"engine"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <records.yaml>",
		Short: "Assemble a provenance graph from a record stream",
		Long: `Replay a YAML record stream through the assembler.

The diagnostic log is opened first; failure to open it is fatal. Records are
delivered by --workers capture workers. Resolved edges are written to the
SQLite database when --db (or database in the config file) is set.

Example:
  provgraph run --db ./edges.db ./records.yaml
  provgraph run --config ./daemon.cue --window 10 ./records.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(opts, args[0], cmd)
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to CUE config file")
	cmd.Flags().StringVar(&opts.LogPath, "log", defaults.LogPath, "path to diagnostic log")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for resolved edges")
	cmd.Flags().IntVar(&opts.Window, "window", defaults.Window, "pending edges that trigger a resolution pass")
	cmd.Flags().IntVar(&opts.Workers, "workers", defaults.Workers, "capture worker goroutines")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on host:port")

	return cmd
}

func runDaemon(opts *RunOptions, recordsPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return err
	}

	diag, err := diaglog.Open(cfg.LogPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open diagnostic log", err)
	}
	defer func() {
		if closeErr := diag.Close(); closeErr != nil {
			slog.Error("error closing diagnostic log", "error", closeErr)
		}
	}()
	if err := diag.LogPID(os.Getpid()); err != nil {
		return WrapExitError(ExitCommandError, "failed to write diagnostic log", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sessionGen := opts.SessionGenerator
	if sessionGen == nil {
		sessionGen = engine.UUIDv7Generator{}
	}
	sessionID := sessionGen.Generate()

	engineOpts := []engine.Option{engine.WithWindow(cfg.Window)}

	var sink *store.Sink
	if cfg.Database != "" {
		slog.Info("opening database", "path", cfg.Database)
		st, err := store.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		if _, err := st.CreateSession(ctx, sessionID, cfg.Window); err != nil {
			return WrapExitError(ExitCommandError, "failed to record session", err)
		}
		sink = st.NewSink(ctx, sessionID)
		engineOpts = append(engineOpts, engine.WithResolver(sink), engine.WithObserver(sink))
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		engineOpts = append(engineOpts, engine.WithObserver(metrics.NewObserver(reg)))
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
				slog.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			cancel()
			<-served
		}()
	}

	svc := service.New(diag,
		service.WithOpaqueLog(cfg.OpaqueLog),
		service.WithEngineOptions(engineOpts...),
	)
	src := capture.NewFileSource(recordsPath, capture.WithWorkers(cfg.Workers))

	slog.Info("assembler starting",
		"session", sessionID,
		"records", recordsPath,
		"window", cfg.Window,
		"workers", cfg.Workers)

	runErr := svc.Run(ctx, src)
	stats := svc.Close()

	if runErr != nil {
		if capture.IsRegistrationError(runErr) {
			return WrapExitError(ExitCommandError, "failed to register with capture subsystem", runErr)
		}
		if !errors.Is(runErr, context.Canceled) {
			return WrapExitError(ExitFailure, "capture failed", runErr)
		}
		slog.Info("capture interrupted", "session", sessionID)
	}
	if sink != nil && sink.Err() != nil {
		return WrapExitError(ExitFailure, "failed to persist resolved edges", sink.Err())
	}

	slog.Info("assembler stopped",
		"session", sessionID,
		"resolved", stats.Resolved,
		"pending", stats.Pending)

	summary := RunSummary{
		Session:  sessionID,
		LogPath:  cfg.LogPath,
		Database: cfg.Database,
		Capture:  src.Stats(),
		Engine:   stats,
	}
	if opts.Format == "json" {
		return writeIndentedJSON(cmd.OutOrStdout(), CLIResponse{
			Status:  "ok",
			Data:    summary,
			TraceID: sessionID,
		})
	}
	writeRunSummary(cmd.OutOrStdout(), summary)
	return nil
}

// resolveConfig loads the config file (if any) and applies flag overrides.
func resolveConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log") {
		cfg.LogPath = opts.LogPath
	}
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}
	if flags.Changed("window") {
		cfg.Window = opts.Window
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.MetricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

func writeRunSummary(w io.Writer, s RunSummary) {
	fmt.Fprintf(w, "Session: %s\n", s.Session)
	fmt.Fprintf(w, "Diagnostic log: %s\n", s.LogPath)
	if s.Database != "" {
		fmt.Fprintf(w, "Database: %s\n", s.Database)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Capture ===")
	fmt.Fprintf(w, "  Delivered: %d\n", s.Capture.Delivered)
	fmt.Fprintf(w, "  Skipped:   %d\n", s.Capture.Skipped)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Assembler ===")
	fmt.Fprintf(w, "  Window:   %d\n", s.Engine.Window)
	fmt.Fprintf(w, "  Nodes:    %d\n", s.Engine.Nodes)
	fmt.Fprintf(w, "  Batches:  %d\n", s.Engine.Batches)
	fmt.Fprintf(w, "  Resolved: %d\n", s.Engine.Resolved)
	fmt.Fprintf(w, "  Pending:  %d\n", s.Engine.Pending)
}

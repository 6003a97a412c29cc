package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded assembler sessions",
		Long: `List every assembler session recorded in the database, oldest first,
with the number of edges each one resolved.

Example:
  provgraph sessions --db ./edges.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// SessionSummary is one row of sessions output.
type SessionSummary struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Window        int    `json:"window"`
	EngineVersion string `json:"engine_version"`
	Resolved      int64  `json:"resolved"`
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		n, err := st.CountResolved(ctx, sess.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count resolved edges", err)
		}
		summaries = append(summaries, SessionSummary{
			ID:            sess.ID,
			Seq:           sess.Seq,
			Window:        sess.Window,
			EngineVersion: sess.EngineVersion,
			Resolved:      n,
		})
	}

	if opts.Format == "json" {
		return writeIndentedJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: summaries})
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions recorded")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%3d  %s  window=%d  resolved=%d\n", s.Seq, s.ID, s.Window, s.Resolved)
	}
	return nil
}

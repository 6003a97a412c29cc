package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/provgraph/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - defaults to the latest session
}

// TraceEdge is one resolved edge in trace output.
type TraceEdge struct {
	Seq                int64  `json:"seq"`
	Batch              uint64 `json:"batch"`
	RelationID         uint64 `json:"relation_id"`
	Source             string `json:"source"`
	Destination        string `json:"destination"`
	Payload            string `json:"payload,omitempty"`
	SourcePayload      string `json:"source_payload,omitempty"`
	DestinationPayload string `json:"destination_payload,omitempty"`
	Digest             string `json:"digest"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session store.Session `json:"session"`
	Edges   []TraceEdge   `json:"edges"`
	Stats   TraceStats    `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Resolved int `json:"resolved"`
	Batches  int `json:"batches"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show resolved edges for a session",
		Long: `Show the edges resolved during one assembler session, in the order
they were handed downstream.

Without --session, the most recent session is shown.

Examples:
  provgraph trace --db ./edges.db
  provgraph trace --db ./edges.db --session 0190f0c2-8d7e-7c3a-9a1e-6f1d2b3c4d5e
  provgraph trace --db ./edges.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to trace")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var sess store.Session
	if opts.Session == "" {
		sess, err = st.LatestSession(ctx)
		if errors.Is(err, store.ErrNoSessions) {
			if opts.Format == "json" {
				return writeIndentedJSON(cmd.OutOrStdout(), CLIResponse{
					Status: "ok",
					Data:   TraceResult{Edges: []TraceEdge{}},
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
			return nil
		}
	} else {
		sess, err = st.ReadSession(ctx, opts.Session)
		if errors.Is(err, sql.ErrNoRows) {
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", opts.Session), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	resolved, err := st.ReadResolved(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read resolved edges", err)
	}

	result := buildTrace(sess, resolved)

	if opts.Format == "json" {
		return writeIndentedJSON(cmd.OutOrStdout(), CLIResponse{
			Status:  "ok",
			Data:    result,
			TraceID: sess.ID,
		})
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// openExistingStore opens a database that must already exist.
// store.Open would otherwise create an empty one.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func buildTrace(sess store.Session, resolved []store.ResolvedEdge) TraceResult {
	result := TraceResult{
		Session: sess,
		Edges:   make([]TraceEdge, 0, len(resolved)),
	}
	batches := make(map[uint64]bool)
	for _, re := range resolved {
		result.Edges = append(result.Edges, TraceEdge{
			Seq:                re.Seq,
			Batch:              re.Batch,
			RelationID:         re.Edge.RelationID,
			Source:             re.Edge.Source.String(),
			Destination:        re.Edge.Destination.String(),
			Payload:            string(re.Edge.Payload),
			SourcePayload:      string(re.Source.Payload),
			DestinationPayload: string(re.Destination.Payload),
			Digest:             re.Digest,
		})
		batches[re.Batch] = true
	}
	result.Stats = TraceStats{Resolved: len(resolved), Batches: len(batches)}
	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session.ID)
	fmt.Fprintf(w, "Window: %d\n", result.Session.Window)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Resolved Edges ===")
	if len(result.Edges) == 0 {
		fmt.Fprintln(w, "  (no resolved edges)")
	}
	for _, e := range result.Edges {
		fmt.Fprintf(w, "  [%d] batch %d rel %d: %s -> %s\n",
			e.Seq, e.Batch, e.RelationID, truncateID(e.Source), truncateID(e.Destination))
		if verbose {
			if e.Payload != "" {
				fmt.Fprintf(w, "       Payload: %q\n", e.Payload)
			}
			fmt.Fprintf(w, "       Digest: %s\n", e.Digest)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Resolved: %d\n", result.Stats.Resolved)
	fmt.Fprintf(w, "  Batches:  %d\n", result.Stats.Batches)
	return nil
}

// truncateID shortens an identifier for display.
func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dobble/internal/engine"
	"github.com/roach88/dobble/internal/journal"
	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string        `json:"session_id"`
	Events        int           `json:"events"`
	LastSeq       int64         `json:"last_seq"`
	ViewSeq       int64         `json:"view_seq"`
	Digest        string        `json:"digest,omitempty"`
	Deterministic bool          `json:"deterministic"`
	Error         string        `json:"error,omitempty"`
	View          *session.View `json:"view,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a session journal and verify determinism",
		Long: `Replay journaled sessions from the empty state and verify determinism.

Each session's events are re-reduced twice in seq order. The two final
views must have the same canonical digest. The view reported is the one
the live client last published.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed, or a journal entry could not be replayed
  2 - Command error (journal not found, etc.)

Examples:
  dobble replay --db ./session.db
  dobble replay --db ./session.db --session 0190c6e2-...
  dobble replay --db ./session.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	// journal.Open would create a missing file.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	dec, err := wire.NewDecoder()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load notice schema", err)
	}

	summaries, err := j.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	if opts.Session != "" {
		summaries = filterSessions(summaries, opts.Session)
		if len(summaries) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("session %s not found", opts.Session))
		}
	}

	if len(summaries) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{
				Sessions:         []ReplaySessionResult{},
				AllDeterministic: true,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in journal.")
		return nil
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(summaries)),
		TotalSessions:    len(summaries),
		AllDeterministic: true,
	}

	for _, s := range summaries {
		entries, err := j.ReadSession(ctx, s.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read session %s", s.ID), err)
		}

		sr := ReplaySessionResult{SessionID: s.ID, Events: s.Events, LastSeq: s.LastSeq}
		view, digest, err := engine.VerifyReplay(dec, s.ID, entries)
		if err != nil {
			sr.Error = err.Error()
			result.AllDeterministic = false
		} else {
			sr.Deterministic = true
			sr.ViewSeq = view.Seq
			sr.Digest = digest
			if opts.Verbose {
				sr.View = &view
			}
		}
		result.Sessions = append(result.Sessions, sr)
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

func filterSessions(summaries []journal.SessionSummary, id string) []journal.SessionSummary {
	for _, s := range summaries {
		if s.ID == id {
			return []journal.SessionSummary{s}
		}
	}
	return nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s\n", status, s.SessionID)
		fmt.Fprintf(w, "  Events: %d (last seq %d)\n", s.Events, s.LastSeq)

		if s.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", s.Error)
			fmt.Fprintln(w)
			continue
		}

		fmt.Fprintf(w, "  View seq: %d\n", s.ViewSeq)
		if verbose {
			fmt.Fprintf(w, "  Digest: %s\n", s.Digest)
			if s.View != nil {
				fmt.Fprint(w, indent(renderView(*s.View)))
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}

func indent(s string) string {
	lines := strings.SplitAfter(strings.TrimSuffix(s, "\n"), "\n")
	return "  " + strings.Join(lines, "  ") + "\n"
}

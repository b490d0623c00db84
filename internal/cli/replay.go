package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/noderegistry/internal/engine"
	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/registry"
	"github.com/roach88/noderegistry/internal/store"
)

// ReplayResult holds the outcome of replay.
type ReplayResult struct {
	Verified bool   `json:"verified"`
	Events   int    `json:"events"`
	HeadSeq  int64  `json:"head_seq,omitempty"`
	HeadHash string `json:"head_hash,omitempty"`
	Approved int    `json:"approved"`
	Pending  int    `json:"pending"`
	Managers int    `json:"managers"`

	// Stage and Error describe the first failed check.
	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay event log and verify determinism",
		Long: `Replay the event log to verify it.

This command re-reads all events in order, checks the hash chain, replays
the log twice into independent registries and compares the results with
each other and with the registry loaded at start.

Exit codes:
  0 - Log verified
  1 - Verification failed (broken chain, inconsistent or non-deterministic log)
  2 - Command error (database not found, empty log, etc.)

Examples:
  noderegistry replay --db ./registry.db
  noderegistry replay --db ./registry.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), rootOpts, rootOpts.formatter(cmd))
		},
	}
}

func runReplay(ctx context.Context, opts *RootOptions, out *OutputFormatter) error {
	// Open database
	st, err := store.Open(opts.Config.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	count, err := st.CountEvents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}
	if count == 0 {
		return NewExitError(ExitCommandError, "event log is empty")
	}

	out.VerboseLog("replaying %d event(s) from %s", count, opts.Config.Database)

	eng, err := engine.Open(ctx, st, engine.WithLogger(opts.Logger))
	if err != nil {
		return outputReplay(out, ReplayResult{Events: int(count), Stage: openStage(err), Error: err.Error()})
	}

	report, err := eng.Verify(ctx)
	if err != nil {
		var re *engine.ReplayError
		if !errors.As(err, &re) {
			return WrapExitError(ExitCommandError, "failed to verify", err)
		}
		return outputReplay(out, ReplayResult{Events: int(count), Stage: re.Stage, Error: err.Error()})
	}

	return outputReplay(out, ReplayResult{
		Verified: true,
		Events:   report.Events,
		HeadSeq:  report.HeadSeq,
		HeadHash: report.HeadHash,
		Approved: len(report.Snapshot.Approved),
		Pending:  len(report.Snapshot.Pending),
		Managers: len(report.Snapshot.Managers),
	})
}

// openStage names the check engine.Open failed on.
func openStage(err error) string {
	var ce *event.ChainError
	switch {
	case errors.As(err, &ce):
		return "chain"
	case errors.Is(err, registry.ErrInconsistentLog):
		return "restore"
	default:
		return "open"
	}
}

// outputReplay writes the result and maps a failed verification to
// ExitFailure.
func outputReplay(out *OutputFormatter, result ReplayResult) error {
	if out.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.Verified {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_REPLAY",
				Message: "replay verification failed",
				Details: map[string]string{"stage": result.Stage},
			}
		}
		if err := out.encode(response); err != nil {
			return err
		}
	} else {
		outputReplayText(out.Writer, result)
	}

	if !result.Verified {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

func outputReplayText(w io.Writer, result ReplayResult) {
	fmt.Fprintf(w, "Replay Summary: %d event(s)\n", result.Events)
	fmt.Fprintln(w)

	if !result.Verified {
		fmt.Fprintf(w, "✗ Verification failed at stage %s\n", result.Stage)
		fmt.Fprintf(w, "  %s\n", result.Error)
		return
	}

	fmt.Fprintf(w, "  Head: seq %d %s\n", result.HeadSeq, result.HeadHash)
	fmt.Fprintf(w, "  Nodes: %d approved, %d pending\n", result.Approved, result.Pending)
	fmt.Fprintf(w, "  Managers: %d\n", result.Managers)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✓ Log verified deterministic")
}

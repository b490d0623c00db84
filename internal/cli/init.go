package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/noderegistry/internal/engine"
	"github.com/roach88/noderegistry/internal/registry"
)

// InitResult is the outcome of init.
type InitResult struct {
	Owner string `json:"owner"`
	Seq   int64  `json:"seq"`
	Hash  string `json:"hash"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init <owner>",
		Short: "Create the registry",
		Long: `Create the registry in an empty database with the given owner.

The owner is also the first manager. Fails if the database already holds a
registry.

Examples:
  noderegistry init alice --db ./registry.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				return runInit(ctx, s, rootOpts.formatter(cmd), registry.Principal(args[0]))
			})
		},
	}
}

func runInit(ctx context.Context, s *session, out *OutputFormatter, owner registry.Principal) error {
	if err := s.engine.Bootstrap(ctx, owner); err != nil {
		if errors.Is(err, engine.ErrAlreadyInitialized) {
			return WrapExitError(ExitCommandError, "cannot init", err)
		}
		return out.Rejected(err)
	}

	seq, hash := s.engine.Head()
	result := InitResult{Owner: string(owner), Seq: seq, Hash: hash}
	return out.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "Registry created. Owner: %s\n", owner)
	})
}

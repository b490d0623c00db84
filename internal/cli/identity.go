package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/noderegistry/internal/registry"
)

// RosterResult lists the owner and the explicit managers.
type RosterResult struct {
	Owner    string   `json:"owner"`
	Managers []string `json:"managers"`
}

// ManagerCheckResult is the outcome of manager check.
type ManagerCheckResult struct {
	Principal string `json:"principal"`
	Manager   bool   `json:"manager"`
}

// NewOwnerCommand creates the owner command group.
func NewOwnerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Show or transfer ownership",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				reg, err := s.registry()
				if err != nil {
					return err
				}
				owner := string(reg.Owner())
				return rootOpts.formatter(cmd).Emit(map[string]string{"owner": owner}, func(w io.Writer) {
					fmt.Fprintln(w, owner)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "transfer <principal>",
		Short: "Hand ownership to another principal (owner only)",
		Long: `Hand ownership to another principal. Only the current owner may do this.

The previous owner loses owner capability immediately. It stays a manager
only if it is an explicit member of the manager roster.

Examples:
  noderegistry owner transfer bob --as alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newOwner := registry.Principal(args[0])
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				out := rootOpts.formatter(cmd)
				err := s.mutate(ctx, func(reg *registry.Registry, caller registry.Principal) error {
					return reg.TransferOwnership(ctx, caller, newOwner)
				})
				if err != nil {
					return out.Rejected(err)
				}
				return out.Emit(map[string]string{"owner": string(newOwner)}, func(w io.Writer) {
					fmt.Fprintf(w, "Ownership transferred to %s\n", newOwner)
				})
			})
		},
	})

	return cmd
}

// NewManagerCommand creates the manager command group.
func NewManagerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manager",
		Short: "Manage the manager roster",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <principal>",
		Short: "Grant manager capability (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRosterChange(cmd, rootOpts, registry.Principal(args[0]), true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <principal>",
		Short: "Revoke manager capability (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRosterChange(cmd, rootOpts, registry.Principal(args[0]), false)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <principal>",
		Short: "Report whether a principal may approve and remove nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := registry.Principal(args[0])
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				reg, err := s.registry()
				if err != nil {
					return err
				}
				result := ManagerCheckResult{Principal: string(p), Manager: reg.IsManager(p)}
				return rootOpts.formatter(cmd).Emit(result, func(w io.Writer) {
					fmt.Fprintln(w, result.Manager)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the owner and the explicit managers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				reg, err := s.registry()
				if err != nil {
					return err
				}
				result := RosterResult{Owner: string(reg.Owner())}
				for _, m := range reg.Managers() {
					result.Managers = append(result.Managers, string(m))
				}
				if result.Managers == nil {
					result.Managers = []string{}
				}
				return rootOpts.formatter(cmd).Emit(result, func(w io.Writer) {
					fmt.Fprintf(w, "owner: %s\n", result.Owner)
					for _, m := range result.Managers {
						fmt.Fprintf(w, "manager: %s\n", m)
					}
				})
			})
		},
	})

	return cmd
}

func runRosterChange(cmd *cobra.Command, rootOpts *RootOptions, p registry.Principal, add bool) error {
	return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
		out := rootOpts.formatter(cmd)
		err := s.mutate(ctx, func(reg *registry.Registry, caller registry.Principal) error {
			if add {
				return reg.AddManager(ctx, caller, p)
			}
			return reg.RemoveManager(ctx, caller, p)
		})
		if err != nil {
			return out.Rejected(err)
		}

		verb := "removed"
		if add {
			verb = "added"
		}
		return out.Emit(map[string]string{"principal": string(p), "change": verb}, func(w io.Writer) {
			fmt.Fprintf(w, "Manager %s: %s\n", verb, p)
		})
	})
}

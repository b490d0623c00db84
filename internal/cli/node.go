package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/noderegistry/internal/registry"
)

// NodeAddResult is the outcome of node add.
type NodeAddResult struct {
	URL      string `json:"url"`
	Approved bool   `json:"approved"`
}

// NodeBatchResult lists the urls an approve or remove call changed.
type NodeBatchResult struct {
	Requested []string `json:"requested"`
	Applied   []string `json:"applied"`
}

// NodeListResult holds the directory lists. A list that was not asked
// for is null.
type NodeListResult struct {
	Approved []string `json:"approved"`
	Pending  []string `json:"pending"`
}

// NodeListOptions holds flags for node list.
type NodeListOptions struct {
	*RootOptions
	Approved bool
	Pending  bool
}

// NewNodeCommand creates the node command group.
func NewNodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Submit, approve, remove and list node urls",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <url>",
		Short: "Submit a node url",
		Long: `Submit a node url. Anyone may submit; the url is approved at once when
the caller is a manager and pending otherwise.

Examples:
  noderegistry node add https://node-1.example --as carol`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeAdd(cmd, rootOpts, args[0])
		},
	})

	var approveBatch bool
	approve := &cobra.Command{
		Use:   "approve <url>...",
		Short: "Approve pending urls (manager only)",
		Long: `Approve pending urls. With one url the call fails if the url is unknown
or already approved. With several urls, or with --batch, those cases are
skipped and the urls actually approved are reported.

Examples:
  noderegistry node approve https://node-1.example --as alice
  noderegistry node approve https://a https://b https://c --as alice
  noderegistry node approve https://maybe-gone --batch --as alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeBatch(cmd, rootOpts, args, approveBatch, "approved",
				func(ctx context.Context, reg *registry.Registry, caller registry.Principal, url string) error {
					return reg.ApproveNode(ctx, caller, url)
				},
				func(ctx context.Context, reg *registry.Registry, caller registry.Principal, urls []string) ([]string, error) {
					return reg.ApproveNodes(ctx, caller, urls)
				})
		},
	}
	approve.Flags().BoolVar(&approveBatch, "batch", false, "skip unknown or approved urls even when only one is given")
	cmd.AddCommand(approve)

	var removeBatch bool
	remove := &cobra.Command{
		Use:   "remove <url>...",
		Short: "Remove urls from the directory (manager only)",
		Long: `Remove urls from whichever list holds them. With one url the call fails
if the url is unknown. With several urls, or with --batch, unknown ones
are skipped.

Examples:
  noderegistry node remove https://node-1.example --as alice
  noderegistry node remove https://maybe-gone --batch --as alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeBatch(cmd, rootOpts, args, removeBatch, "removed",
				func(ctx context.Context, reg *registry.Registry, caller registry.Principal, url string) error {
					return reg.RemoveNode(ctx, caller, url)
				},
				func(ctx context.Context, reg *registry.Registry, caller registry.Principal, urls []string) ([]string, error) {
					return reg.RemoveNodes(ctx, caller, urls)
				})
		},
	}
	remove.Flags().BoolVar(&removeBatch, "batch", false, "skip unknown urls even when only one is given")
	cmd.AddCommand(remove)

	cmd.AddCommand(&cobra.Command{
		Use:   "info <url>",
		Short: "Show the record of a url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				out := rootOpts.formatter(cmd)
				reg, err := s.registry()
				if err != nil {
					return err
				}
				info, err := reg.GetNodeInfo(args[0])
				if err != nil {
					return out.Rejected(err)
				}
				return out.Emit(info, func(w io.Writer) {
					fmt.Fprintf(w, "url: %s\n", info.URL)
					fmt.Fprintf(w, "approved: %t\n", info.Approved)
					fmt.Fprintf(w, "added_by: %s\n", info.AddedBy)
					fmt.Fprintf(w, "added_at: %s\n", info.AddedAt.Format(time.RFC3339))
				})
			})
		},
	})

	cmd.AddCommand(newNodeListCommand(rootOpts))
	return cmd
}

func newNodeListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NodeListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approved and pending urls",
		Long: `List the directory. Without flags both lists are printed. Lists are
unordered: removals move the last url into the removed slot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			both := !opts.Approved && !opts.Pending
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				reg, err := s.registry()
				if err != nil {
					return err
				}
				var result NodeListResult
				if both || opts.Approved {
					result.Approved = reg.ApprovedNodeURLs()
				}
				if both || opts.Pending {
					result.Pending = reg.PendingNodeURLs()
				}
				return rootOpts.formatter(cmd).Emit(result, func(w io.Writer) {
					if both || opts.Approved {
						printURLs(w, "approved", result.Approved)
					}
					if both || opts.Pending {
						printURLs(w, "pending", result.Pending)
					}
				})
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Approved, "approved", false, "list approved urls only")
	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "list pending urls only")
	cmd.MarkFlagsMutuallyExclusive("approved", "pending")

	return cmd
}

func printURLs(w io.Writer, label string, urls []string) {
	fmt.Fprintf(w, "%s (%d):\n", label, len(urls))
	for _, u := range urls {
		fmt.Fprintf(w, "  %s\n", u)
	}
}

func runNodeAdd(cmd *cobra.Command, rootOpts *RootOptions, url string) error {
	return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
		out := rootOpts.formatter(cmd)
		var approved bool
		err := s.mutate(ctx, func(reg *registry.Registry, caller registry.Principal) error {
			var err error
			approved, err = reg.AddNode(ctx, caller, url)
			return err
		})
		if err != nil {
			return out.Rejected(err)
		}

		status := "pending"
		if approved {
			status = "approved"
		}
		return out.Emit(NodeAddResult{URL: url, Approved: approved}, func(w io.Writer) {
			fmt.Fprintf(w, "Added %s (%s)\n", url, status)
		})
	})
}

type singleFunc func(ctx context.Context, reg *registry.Registry, caller registry.Principal, url string) error
type batchFunc func(ctx context.Context, reg *registry.Registry, caller registry.Principal, urls []string) ([]string, error)

// runNodeBatch calls single for one url and batch for several, so a lone
// url keeps the strict single-url errors unless forceBatch is set.
func runNodeBatch(cmd *cobra.Command, rootOpts *RootOptions, urls []string, forceBatch bool, verb string, single singleFunc, batch batchFunc) error {
	return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
		out := rootOpts.formatter(cmd)
		var applied []string
		err := s.mutate(ctx, func(reg *registry.Registry, caller registry.Principal) error {
			if len(urls) == 1 && !forceBatch {
				if err := single(ctx, reg, caller, urls[0]); err != nil {
					return err
				}
				applied = urls
				return nil
			}
			var err error
			applied, err = batch(ctx, reg, caller, urls)
			return err
		})
		if err != nil {
			return out.Rejected(err)
		}

		out.VerboseLog("%s %d of %d url(s)", verb, len(applied), len(urls))
		return out.Emit(NodeBatchResult{Requested: urls, Applied: applied}, func(w io.Writer) {
			for _, u := range applied {
				fmt.Fprintf(w, "%s %s\n", verb, u)
			}
			if skipped := len(urls) - len(applied); skipped > 0 {
				fmt.Fprintf(w, "skipped %d url(s)\n", skipped)
			}
		})
	})
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/noderegistry/internal/registry"
)

// AppSetOptions holds flags for app set.
type AppSetOptions struct {
	*RootOptions
	Version      string
	DownloadLink string
	Notes        string
}

// NewAppCommand creates the app command group.
func NewAppCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Show or update release metadata",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				reg, err := s.registry()
				if err != nil {
					return err
				}
				return emitAppInfo(rootOpts.formatter(cmd), reg.AppInfo())
			})
		},
	})

	cmd.AddCommand(newAppSetCommand(rootOpts))
	return cmd
}

func newAppSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the release (owner only)",
		Long: `Replace all three release fields at once. Only the owner may do this.
Fields that are not given are set to the empty string.

Examples:
  noderegistry app set --version 1.2.0 --link https://dl.example/1.2.0 --notes "bug fixes" --as alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := registry.AppInfo{
				Version:       opts.Version,
				DownloadLink:  opts.DownloadLink,
				UpdateContent: opts.Notes,
			}
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				out := rootOpts.formatter(cmd)
				err := s.mutate(ctx, func(reg *registry.Registry, caller registry.Principal) error {
					return reg.UpdateAppInfo(ctx, caller, info)
				})
				if err != nil {
					return out.Rejected(err)
				}
				return emitAppInfo(out, info)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "", "release version")
	cmd.Flags().StringVar(&opts.DownloadLink, "link", "", "download link")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "update content")

	return cmd
}

func emitAppInfo(out *OutputFormatter, info registry.AppInfo) error {
	return out.Emit(info, func(w io.Writer) {
		fmt.Fprintf(w, "version: %s\n", info.Version)
		fmt.Fprintf(w, "download_link: %s\n", info.DownloadLink)
		fmt.Fprintf(w, "update_content: %s\n", info.UpdateContent)
	})
}

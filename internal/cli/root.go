package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/noderegistry/internal/config"
)

// RootOptions holds global flags for all commands, and the configuration
// resolved from them before any command runs.
type RootOptions struct {
	ConfigPath string
	Database   string
	As         string
	Verbose    bool
	Format     string // "json" | "text"
	Trace      bool

	// Set by the root command's PersistentPreRunE.
	Config    config.Config
	Logger    *slog.Logger
	errWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the noderegistry CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "noderegistry",
		Short: "Permissioned node registry",
		Long: `Maintain a registry of network node urls with an owner, a manager
roster and release metadata.

Anyone may submit a node url; submissions by managers are approved at once,
others wait in the pending list until a manager approves them. Every change
is appended to a hash-chained SQLite event log that is replayed on start.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite database (default noderegistry.db)")
	flags.StringVar(&opts.As, "as", "", "calling principal for mutations")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.BoolVar(&opts.Trace, "trace", false, "export spans to stderr")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewOwnerCommand(opts))
	cmd.AddCommand(NewManagerCommand(opts))
	cmd.AddCommand(NewAppCommand(opts))
	cmd.AddCommand(NewNodeCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve merges flags, environment and config file into opts.Config and
// builds the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"database":      "db",
		"caller":        "as",
		"trace.enabled": "trace",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return WrapExitError(ExitCommandError, "failed to bind flags", err)
		}
	}

	cfg, err := config.Load(v, o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	o.Config = cfg
	o.errWriter = cmd.ErrOrStderr()
	o.Logger = newLogger(o.errWriter, cfg.Log)
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

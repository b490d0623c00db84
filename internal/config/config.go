// Package config loads noderegistry configuration from an optional YAML
// file, NODEREG_* environment variables and command-line flags, and
// validates the result against an embedded CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NODEREG"

//go:embed schema.cue
var schemaCUE string

// Config holds all configuration options for noderegistry.
type Config struct {
	// Database is the SQLite event log path. ":memory:" keeps the log in
	// memory for the lifetime of the process.
	Database string      `mapstructure:"database" json:"database"`
	Caller   string      `mapstructure:"caller" json:"caller"` // default principal for --as
	Log      LogConfig   `mapstructure:"log" json:"log"`
	Trace    TraceConfig `mapstructure:"trace" json:"trace"`
}

// LogConfig controls the slog handler built by the CLI.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" json:"format"` // text or json
}

// TraceConfig controls span export.
type TraceConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Database: "noderegistry.db",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads configuration into v and decodes it.
//
// Precedence, highest first: values already bound on v (flags), NODEREG_*
// environment variables, the YAML file at path (if non-empty), defaults.
func Load(v *viper.Viper, path string) (Config, error) {
	defaults := Defaults()
	v.SetDefault("database", defaults.Database)
	v.SetDefault("caller", defaults.Caller)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("trace.enabled", defaults.Trace.Enabled)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	unified := def.Unify(ctx.Encode(cfg))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// SlogLevel maps Level to a slog level. Unknown values map to warn.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

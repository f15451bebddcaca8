// Package config holds the settings of the weave command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/aspect-linker/aspect"
	"github.com/wippyai/aspect-linker/linker"
)

// Config holds all weave configuration.
type Config struct {
	Link    LinkConfig    `yaml:"link"`
	Output  OutputConfig  `yaml:"output"`
	Eval    EvalConfig    `yaml:"eval"`
	Logging LoggingConfig `yaml:"logging"`

	// Rules attach linker options to declarations by name pattern.
	Rules []RuleConfig `yaml:"rules"`
}

// LinkConfig configures the linker.
type LinkConfig struct {
	Concurrency int  `yaml:"concurrency"` // 0 = one per CPU
	Flatten     bool `yaml:"flatten"`
}

// OutputConfig configures how results are printed.
type OutputConfig struct {
	Format string `yaml:"format"` // csharp, sexpr
	Color  string `yaml:"color"`  // auto, always, never
}

// EvalConfig configures the interpreter behind weave eval.
type EvalConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// RuleConfig selects declarations and the options they get. Patterns are
// "Type.Member", "Member", "*.Member", "Type.*", "*" or a "Type.Prefix*".
type RuleConfig struct {
	Match               []string `yaml:"match"`
	ForceNotInlineable  bool     `yaml:"force_not_inlineable"`
	ForceNotDiscardable bool     `yaml:"force_not_discardable"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Link: LinkConfig{
			Flatten: true,
		},
		Output: OutputConfig{
			Format: "csharp",
			Color:  "auto",
		},
		Eval: EvalConfig{
			MaxSteps: 1_000_000,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies WEAVE_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("WEAVE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEAVE_CONCURRENCY: %w", err)
		}
		c.Link.Concurrency = n
	}
	if v := os.Getenv("WEAVE_FLATTEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WEAVE_FLATTEN: %w", err)
		}
		c.Link.Flatten = b
	}
	if v := os.Getenv("WEAVE_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WEAVE_MAX_STEPS: %w", err)
		}
		c.Eval.MaxSteps = n
	}
	if v := os.Getenv("WEAVE_FORMAT"); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := os.Getenv("WEAVE_COLOR"); v != "" {
		c.Output.Color = strings.ToLower(v)
	}
	if v := os.Getenv("WEAVE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// Validate checks enumerated settings and rules.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "csharp", "sexpr":
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color: unknown mode %q", c.Output.Color)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Link.Concurrency < 0 {
		return fmt.Errorf("link.concurrency: must not be negative")
	}
	for i, r := range c.Rules {
		if len(r.Match) == 0 {
			return fmt.Errorf("rules[%d]: match is empty", i)
		}
	}
	return nil
}

// OptionSet turns the rules into linker option rules.
func (c *Config) OptionSet() aspect.OptionSet {
	set := make(aspect.OptionSet, 0, len(c.Rules))
	for _, r := range c.Rules {
		set = append(set, aspect.OptionRule{
			Matcher: aspect.NewPatternMatcher(r.Match),
			Options: aspect.Options{
				ForceNotInlineable:  r.ForceNotInlineable,
				ForceNotDiscardable: r.ForceNotDiscardable,
			},
		})
	}
	return set
}

// LinkOptions returns the linker options described by c.
func (c *Config) LinkOptions(log *zap.Logger) linker.Options {
	opts := linker.DefaultOptions()
	if c.Link.Concurrency > 0 {
		opts.Concurrency = c.Link.Concurrency
	}
	opts.KeepBlocks = !c.Link.Flatten
	opts.Rules = c.OptionSet()
	opts.Logger = log
	return opts
}

// Logger builds the zap logger described by c. Terminals get the
// human-readable development encoder.
func (c *Config) Logger(terminal bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Logging.Development || terminal {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

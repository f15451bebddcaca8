package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Link.Flatten)
	assert.Equal(t, "csharp", cfg.Output.Format)
	assert.Equal(t, 1_000_000, cfg.Eval.MaxSteps)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
link:
  concurrency: 2
  flatten: false
output:
  format: sexpr
rules:
  - match: ["Calc.Add_L1", "Shop.Log*"]
    force_not_inlineable: true
  - match: ["Calc.*"]
    force_not_discardable: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Link.Concurrency)
	assert.False(t, cfg.Link.Flatten)
	assert.Equal(t, "sexpr", cfg.Output.Format)
	assert.Equal(t, "auto", cfg.Output.Color, "unset keys keep defaults")
	require.Len(t, cfg.Rules, 2)

	set := cfg.OptionSet()
	add := set.Lookup("Calc", "Add_L1")
	assert.True(t, add.ForceNotInlineable)
	assert.True(t, add.ForceNotDiscardable)
	logger := set.Lookup("Shop", "LogTotal")
	assert.True(t, logger.ForceNotInlineable)
	assert.False(t, logger.ForceNotDiscardable)
	assert.Zero(t, set.Lookup("Shop", "Total"))

	opts := cfg.LinkOptions(zap.NewNop())
	assert.Equal(t, 2, opts.Concurrency)
	assert.True(t, opts.KeepBlocks)
	assert.Len(t, opts.Rules, 2)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WEAVE_CONCURRENCY", "3")
	t.Setenv("WEAVE_FLATTEN", "false")
	t.Setenv("WEAVE_FORMAT", "SEXPR")
	t.Setenv("WEAVE_LOG_LEVEL", "debug")
	t.Setenv("WEAVE_MAX_STEPS", "50")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Link.Concurrency)
	assert.False(t, cfg.Link.Flatten)
	assert.Equal(t, "sexpr", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Eval.MaxSteps)
}

func TestEnvOverridesRejectGarbage(t *testing.T) {
	t.Setenv("WEAVE_CONCURRENCY", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "WEAVE_CONCURRENCY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    string
	}{
		{"format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"color", func(c *Config) { c.Output.Color = "sometimes" }, "output.color"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"concurrency", func(c *Config) { c.Link.Concurrency = -1 }, "link.concurrency"},
		{"empty rule", func(c *Config) { c.Rules = []RuleConfig{{ForceNotInlineable: true}} }, "rules[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "weave.yaml")
	cfg := DefaultConfig()
	cfg.Rules = []RuleConfig{{Match: []string{"A.B"}, ForceNotDiscardable: true}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	log, err := cfg.Logger(false)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

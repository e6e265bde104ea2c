package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoadFileWithSubstitution(t *testing.T) {
	t.Setenv("TEST_SCHEMA_MODE", "legacy")
	path := filepath.Join(t.TempDir(), "hepconv.yaml")
	content := `
log:
  level: debug
convert:
  row_capacity: 0
  schema_mode: ${TEST_SCHEMA_MODE}
  compression: deflate
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, int64(0), cfg.Convert.RowCapacity)
	assert.Equal(t, "legacy", cfg.Convert.SchemaMode)
	assert.Equal(t, "deflate", cfg.Convert.Compression)
	assert.Equal(t, 1024, cfg.Convert.BatchSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hepconv.yaml")
	cfg := NewConfig()
	cfg.Convert.BatchSize = 64
	require.NoError(t, Save(path, cfg))

	t.Setenv("HEPCONV_CONVERT_BATCH_SIZE", "128")
	t.Setenv("HEPCONV_SCAN_PROGRESS_EVERY", "5")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, got.Convert.BatchSize)
	assert.Equal(t, int64(5), got.Scan.ProgressEvery)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("convert: [unterminated"), 0o600))
	_, err = Load(bad)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unbounded capacity", func(c *Config) { c.Convert.RowCapacity = 0 }, true},
		{"negative capacity", func(c *Config) { c.Convert.RowCapacity = -1 }, false},
		{"zero batch", func(c *Config) { c.Convert.BatchSize = 0 }, false},
		{"zero progress", func(c *Config) { c.Convert.ProgressEvery = 0 }, false},
		{"unknown schema mode", func(c *Config) { c.Convert.SchemaMode = "loose" }, false},
		{"unknown codec", func(c *Config) { c.Convert.Compression = "zstd" }, false},
		{"zero scan batch", func(c *Config) { c.Scan.BatchSize = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), "got %v", err)
		})
	}
}

func TestFormatOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.Convert.SchemaMode = "legacy"
	cfg.Convert.RowCapacity = 10

	opts := cfg.FormatOptions(nil)
	assert.Equal(t, core.SchemaLegacy, opts.SchemaMode)
	assert.Equal(t, int64(10), opts.RowCapacity)
	assert.NotNil(t, opts.Logger)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("A_VAR", "x")
	assert.Equal(t, "x-y-", substituteEnvVars("${A_VAR}-y-${MISSING_VAR_FOR_TEST}"))
	assert.Equal(t, "open ${", substituteEnvVars("open ${"))
}

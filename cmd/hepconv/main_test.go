package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/ajitpratap0/hepconv/pkg/config"
	"github.com/ajitpratap0/hepconv/pkg/models"
	"github.com/ajitpratap0/hepconv/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietEnv(t *testing.T) {
	t.Setenv(config.ConfigPathEnv, "")
	t.Setenv("HEPCONV_LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsageFlags(t *testing.T) {
	quietEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"help short", []string{"-h"}},
		{"help long", []string{"--help"}},
		{"version prints usage", []string{"-v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 0, code)
			assert.Contains(t, stdout, "Usage:")
			assert.Contains(t, stdout, "-i, --input")
			assert.Empty(t, stderr)
		})
	}
}

func TestInvalidInvocation(t *testing.T) {
	quietEnv(t)

	tests := []struct {
		name      string
		args      []string
		wantUsage bool
	}{
		{"unknown shorthand", []string{"-x"}, true},
		{"unknown long flag", []string{"--threads", "4"}, true},
		{"missing flag value", []string{"-i"}, true},
		{"positional argument", []string{"events.parquet"}, true},
		{"no inputs", nil, false},
		{"unknown output token", []string{"-i", "run.parquet", "-o", "root"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Error:")
			if tt.wantUsage {
				assert.Contains(t, stderr, "Usage:")
			} else {
				assert.NotContains(t, stderr, "Usage:")
			}
		})
	}
}

func TestFilterScanCommand(t *testing.T) {
	quietEnv(t)
	input := testutil.TempPath(t, "scan.parquet")
	ev := models.Event{}
	ev.Kaons[1].IsMuon = 1
	testutil.WriteTreeFile(t, input, []models.Event{ev})

	code, stdout, _ := runCLI(t, "-r", "-i", input)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "1 events read, 1 events skipped")
}

func TestConvertCommand(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.parquet")
	second := filepath.Join(dir, "b.parquet")
	testutil.WriteTreeFile(t, first, testutil.RandomEvents(51, 2))
	testutil.WriteTreeFile(t, second, testutil.RandomEvents(52, 3))

	code, stdout, stderr := runCLI(t, "-i", first, "-i", second, "-o", "sqlite")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "finished (5 events)")
	assert.FileExists(t, filepath.Join(dir, "a.sqlite"))

	code, stdout, stderr = runCLI(t, "-i", filepath.Join(dir, "a.sqlite"))
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "finished (5 events")
}

func TestConfigFileFromEnvironment(t *testing.T) {
	quietEnv(t)
	input := testutil.TempPath(t, "capped.parquet")
	testutil.WriteTreeFile(t, input, testutil.RandomEvents(53, 3))

	cfgPath := testutil.TempPath(t, "hepconv.yaml")
	cfg := config.NewConfig()
	cfg.Log.Level = "error"
	cfg.Convert.RowCapacity = 1
	require.NoError(t, config.Save(cfgPath, cfg))
	t.Setenv(config.ConfigPathEnv, cfgPath)

	code, _, stderr := runCLI(t, "-i", input, "-o", "avro")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "capacity")

	t.Setenv(config.ConfigPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	code, _, stderr = runCLI(t, "-i", input)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "config")
}

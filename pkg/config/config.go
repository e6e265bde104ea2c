package config

import (
	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/ajitpratap0/hepconv/pkg/formats/core"
	"github.com/ajitpratap0/hepconv/pkg/logger"
	"go.uber.org/zap"
)

// Config is the complete runtime configuration of a hepconv run.
type Config struct {
	// Log controls the global zap logger
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Convert controls readers and writers
	Convert ConvertConfig `yaml:"convert" mapstructure:"convert"`

	// Scan controls the filter scan
	Scan ScanConfig `yaml:"scan" mapstructure:"scan"`

	// Tracing controls the OpenTelemetry tracer provider
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// LogConfig contains logging settings
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level       string `yaml:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// ConvertConfig contains reader and writer settings.
type ConvertConfig struct {
	// RowCapacity bounds the row-binary dataset, 0 for unbounded
	RowCapacity int64 `yaml:"row_capacity" mapstructure:"row_capacity"`
	// BatchSize is rows per Arrow batch on read and per Avro block on write
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// SchemaMode is strict or legacy
	SchemaMode string `yaml:"schema_mode" mapstructure:"schema_mode"`
	// Compression is the Avro block codec
	Compression   string `yaml:"compression" mapstructure:"compression"`
	ProgressEvery int64  `yaml:"progress_every" mapstructure:"progress_every"`
}

// ScanConfig contains filter scan settings
type ScanConfig struct {
	BatchSize     int   `yaml:"batch_size" mapstructure:"batch_size"`
	ProgressEvery int64 `yaml:"progress_every" mapstructure:"progress_every"`
}

// TracingConfig contains tracing settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	PrettyPrint bool   `yaml:"pretty_print" mapstructure:"pretty_print"`
}

// NewConfig returns a configuration populated with production defaults
func NewConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Convert: ConvertConfig{
			RowCapacity:   core.DefaultRowCapacity,
			BatchSize:     1024,
			SchemaMode:    string(core.SchemaStrict),
			Compression:   "null",
			ProgressEvery: 100000,
		},
		Scan: ScanConfig{
			BatchSize:     1024,
			ProgressEvery: 100000,
		},
		Tracing: TracingConfig{
			ServiceName: "hepconv",
		},
	}
}

var compressionCodecs = map[string]bool{
	"null":    true,
	"deflate": true,
	"snappy":  true,
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Convert.RowCapacity < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "convert.row_capacity must be >= 0, got %d", c.Convert.RowCapacity)
	}
	if c.Convert.BatchSize <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "convert.batch_size must be > 0, got %d", c.Convert.BatchSize)
	}
	if c.Convert.ProgressEvery <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "convert.progress_every must be > 0, got %d", c.Convert.ProgressEvery)
	}
	if _, err := core.ParseSchemaMode(c.Convert.SchemaMode); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "convert.schema_mode")
	}
	if !compressionCodecs[c.Convert.Compression] {
		return errors.Newf(errors.ErrorTypeConfig, "convert.compression %q is not one of null, deflate, snappy", c.Convert.Compression)
	}
	if c.Scan.BatchSize <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "scan.batch_size must be > 0, got %d", c.Scan.BatchSize)
	}
	if c.Scan.ProgressEvery <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "scan.progress_every must be > 0, got %d", c.Scan.ProgressEvery)
	}
	return nil
}

// LoggerConfig maps the log section onto logger.Config
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       c.Log.Level,
		Encoding:    c.Log.Encoding,
		Development: c.Log.Development,
	}
}

// FormatOptions maps the convert section onto reader and writer options
func (c *Config) FormatOptions(log *zap.Logger) core.Options {
	mode, err := core.ParseSchemaMode(c.Convert.SchemaMode)
	if err != nil {
		mode = core.SchemaStrict
	}
	return core.Options{
		RowCapacity: c.Convert.RowCapacity,
		BatchSize:   c.Convert.BatchSize,
		SchemaMode:  mode,
		Compression: c.Convert.Compression,
		Logger:      log,
	}.WithDefaults()
}

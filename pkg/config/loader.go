package config

import (
	"strings"

	"github.com/ajitpratap0/hepconv/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// HEPCONV_CONVERT_ROW_CAPACITY for convert.row_capacity
const EnvPrefix = "HEPCONV"

// ConfigPathEnv names the environment variable holding the config file path
const ConfigPathEnv = "HEPCONV_CONFIG"

// Loader layers defaults, an optional YAML file and environment overrides
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load returns the validated configuration. An empty path skips the file.
func (l *Loader) Load(path string) (*Config, error) {
	l.setDefaults()

	if path != "" {
		settings, err := ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load config file").
				WithDetail("path", path)
		}
		if err := l.v.MergeConfigMap(settings); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to merge config file").
				WithDetail("path", path)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults mirrors NewConfig so every key is known to viper
func (l *Loader) setDefaults() {
	d := NewConfig()

	l.v.SetDefault("log.level", d.Log.Level)
	l.v.SetDefault("log.encoding", d.Log.Encoding)
	l.v.SetDefault("log.development", d.Log.Development)

	l.v.SetDefault("convert.row_capacity", d.Convert.RowCapacity)
	l.v.SetDefault("convert.batch_size", d.Convert.BatchSize)
	l.v.SetDefault("convert.schema_mode", d.Convert.SchemaMode)
	l.v.SetDefault("convert.compression", d.Convert.Compression)
	l.v.SetDefault("convert.progress_every", d.Convert.ProgressEvery)

	l.v.SetDefault("scan.batch_size", d.Scan.BatchSize)
	l.v.SetDefault("scan.progress_every", d.Scan.ProgressEvery)

	l.v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	l.v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	l.v.SetDefault("tracing.pretty_print", d.Tracing.PrettyPrint)
}

// Load is a shorthand for NewLoader().Load(path)
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

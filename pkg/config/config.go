// Package config provides the configuration for the fst command surface.
// Settings come from environment variables with the FST_ prefix, an
// optional YAML file, and built-in defaults, in that order of precedence.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/funjongwoo/fst/pkg/fsterrors"
)

// Config holds the user-tunable settings of the fst CLI and engine
// defaults. Block sizes and the on-disk layout are format constants and
// deliberately not configurable.
type Config struct {
	// LogLevel is the zap level: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// LogEncoding selects the log output format: console or json.
	LogEncoding string `mapstructure:"log_encoding"`
	// Compression is the default user compression level in 0..100 applied
	// when the CLI store command gets no --compression flag.
	Compression int `mapstructure:"compression"`
	// JSONOutput makes the CLI print metadata and tables as JSON.
	JSONOutput bool `mapstructure:"json_output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		LogEncoding: "console",
		Compression: 50,
		JSONOutput:  false,
	}
}

// Load reads configuration from the given file (optional; empty path skips
// the file), the FST_* environment and the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "console")
	v.SetDefault("compression", 50)
	v.SetDefault("json_output", false)

	v.SetEnvPrefix("FST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeArgument, "reading config file")
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fsterrors.Wrap(err, fsterrors.ErrorTypeArgument, "parsing configuration")
	}
	if cfg.Compression < 0 || cfg.Compression > 100 {
		return nil, fsterrors.New(fsterrors.ErrorTypeArgument, "compression must be in 0..100")
	}
	return cfg, nil
}

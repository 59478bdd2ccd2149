// Package config loads the CLI harness's configuration surface for
// internal/pipeline.Config, adapted from the teacher's viper-backed
// internal/config package: same loader shape (defaults, TOML/YAML/JSON
// file, env override), re-scoped to the much smaller set of knobs
// spec.md §6 actually exposes.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the on-disk/CLI-flag configuration schema. It carries
// pipeline.Config's numeric and boolean knobs (Budget as a plain int,
// 0 meaning unbounded) plus two logging settings; the CLI harness
// translates one into the other so the library entry point never
// touches viper itself.
type Config struct {
	Budget              int     `mapstructure:"budget"`
	Alpha               float64 `mapstructure:"alpha"`
	Tau                 float64 `mapstructure:"tau"`
	Full                bool    `mapstructure:"full"`
	MaxUniverse         int     `mapstructure:"maxUniverse"`
	OverheadPerFragment int     `mapstructure:"overheadPerFragment"`
	LogFormat           string  `mapstructure:"logFormat"`
	LogLevel            string  `mapstructure:"logLevel"`
}

// DefaultConfig returns spec.md §6's defaults.
func DefaultConfig() *Config {
	return &Config{
		Budget:              0, // 0 means unbounded; translated to a nil *int
		Alpha:               0.60,
		Tau:                 0.08,
		Full:                false,
		MaxUniverse:         5000,
		OverheadPerFragment: 18,
		LogFormat:           "human",
		LogLevel:            "info",
	}
}

// Load reads ctxlens.{toml,yaml,json} from repoRoot, falling back to
// DefaultConfig when no file is present, and lets CTXLENS_* environment
// variables override any field — the teacher's LoadConfig precedence
// order (defaults < file < env), unchanged.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("budget", def.Budget)
	v.SetDefault("alpha", def.Alpha)
	v.SetDefault("tau", def.Tau)
	v.SetDefault("full", def.Full)
	v.SetDefault("maxUniverse", def.MaxUniverse)
	v.SetDefault("overheadPerFragment", def.OverheadPerFragment)
	v.SetDefault("logFormat", def.LogFormat)
	v.SetDefault("logLevel", def.LogLevel)

	v.SetConfigName("ctxlens")
	v.AddConfigPath(repoRoot)
	v.SetEnvPrefix("CTXLENS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigPath returns the path Load searches for a config file with the
// given extension, for diagnostics.
func ConfigPath(repoRoot, ext string) string {
	return filepath.Join(repoRoot, "ctxlens."+ext)
}

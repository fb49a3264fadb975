// Package config binds cyclefind's cobra flags, environment variables, and
// an optional cyclefind.yaml into one typed Config, following the generic
// viper-based loader the rest of the corpus uses for its CLI configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "CYCLEFIND"

// Config holds every knob the CLI exposes.
type Config struct {
	Input       string `mapstructure:"input"`
	Buckets     int    `mapstructure:"buckets"`
	SCCCeiling  int    `mapstructure:"scc-ceiling"`
	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	Diagnostics bool   `mapstructure:"diagnostics"`
	Parallel    int    `mapstructure:"parallel"`
	Compress    bool   `mapstructure:"compress"`
	WorkDir     string `mapstructure:"work-dir"`
}

// Load sets viper up to read cyclefind.yaml (if present), CYCLEFIND_* env
// vars, and the bound cobra flags, then unmarshals into a Config. This
// mirrors the generic loadConfig[T any, PtrT *T] helper the rest of the
// pack's CLI commands use, specialized to the one Config type cyclefind
// needs.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("cyclefind")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

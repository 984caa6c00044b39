// Config loading for the runfixer CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// loadConfig reads the YAML config file with Viper and builds the explicit
// Config object everything downstream receives. Environment variables with
// the RUNFIXER_ prefix override file values (RUNFIXER_DATABASE_PASSWORD and
// friends), so credentials can stay out of the file.
func loadConfig(path string) (types.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".runfixer"))
		}
	}

	v.SetEnvPrefix("RUNFIXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
		// A missing config file is fine; the environment may carry
		// everything needed.
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

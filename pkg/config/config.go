// Package config resolves dermavision settings from flags, environment variables
// and an optional config.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/utils"
)

const EnvPrefix = "DERMAVISION"

// Setting keys. Flags with dashes are bound to the underscore form.
const (
	KeyAPIKey   = "api_key"
	KeyModel    = "model"
	KeyDB       = "db"
	KeyWAL      = "wal"
	KeySync     = "sync"
	KeyLogLevel = "log_level"
	KeyLogFile  = "log_file"
)

type Config struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	DBPath   string `mapstructure:"db"`
	WAL      bool   `mapstructure:"wal"`
	Sync     string `mapstructure:"sync"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// New returns a viper instance with defaults and environment bindings in place.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyModel, analysis.DefaultModel)
	v.SetDefault(KeyDB, "")
	v.SetDefault(KeyWAL, true)
	v.SetDefault(KeySync, "NORMAL")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The credential is also picked up under the names other Gemini tools use.
	_ = v.BindEnv(KeyAPIKey, EnvPrefix+"_API_KEY", "API_KEY", "GEMINI_API_KEY")

	return v
}

// ReadFile loads path, or config.yaml from the default config directory when path
// is empty. A missing default file is not an error; a missing explicit file is.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		expanded, err := utils.ExpandHome(path)
		if err != nil {
			return err
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(utils.DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load reads the effective configuration out of v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	// Unmarshal only sees env values for keys viper already knows about.
	cfg.APIKey = v.GetString(KeyAPIKey)

	cfg.Sync = strings.ToUpper(strings.TrimSpace(cfg.Sync))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.Model == "" {
		cfg.Model = analysis.DefaultModel
	}
	if cfg.DBPath == "" {
		cfg.DBPath = utils.GetDefaultDBPathOnly()
	}
	if cfg.LogFile != "" {
		logFile, err := utils.ExpandHome(cfg.LogFile)
		if err != nil {
			return Config{}, err
		}
		cfg.LogFile = filepath.Clean(logFile)
	}
	return cfg, nil
}

// Package config provides configuration loading and validation for the
// ghtraf CLI. Settings come from a YAML file, GHTRAF_-prefixed
// environment variables, and an optional .env file for the token.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrMissingRepo      = errors.New("repository owner and name are required")
	ErrMissingStateGist = errors.New("state gist id is required")
	ErrInvalidWindow    = errors.New("window days must be positive")
	ErrInvalidRetention = errors.New("retention must cover the window")
	ErrMissingToken     = errors.New("no github token found")
)

// Default configuration values.
const (
	defaultWindowDays = 14
	defaultRetainDays = 31
)

// Token environment variables, in lookup order.
const (
	tokenEnvVar       = "GHTRAF_TOKEN"
	githubTokenEnvVar = "GITHUB_TOKEN"
)

// Config holds all configuration for a ghtraf invocation.
type Config struct {
	Repo    RepoConfig    `mapstructure:"repo"    yaml:"repo"`
	Gists   GistConfig    `mapstructure:"gists"   yaml:"gists"`
	Engine  EngineConfig  `mapstructure:"engine"  yaml:"engine"`
	Backup  BackupConfig  `mapstructure:"backup"  yaml:"backup"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// RepoConfig identifies the tracked repository.
type RepoConfig struct {
	Owner string `mapstructure:"owner" yaml:"owner"`
	Name  string `mapstructure:"name"  yaml:"name"`
}

// FullName returns "owner/name".
func (r RepoConfig) FullName() string {
	return r.Owner + "/" + r.Name
}

// GistConfig holds the gists the tracker reads and writes.
type GistConfig struct {
	// State is the gist holding the reconciled document and badges.
	State string `mapstructure:"state" yaml:"state"`

	// Archive is the gist receiving monthly compressed rollups. Empty
	// disables archiving.
	Archive string `mapstructure:"archive" yaml:"archive"`
}

// EngineConfig tunes the reconciliation engine.
type EngineConfig struct {
	// WindowDays is the nominal span of the upstream rolling window.
	WindowDays int `mapstructure:"window_days" yaml:"window_days"`

	// RetainDays bounds how much daily history the document keeps.
	RetainDays int `mapstructure:"retain_days" yaml:"retain_days"`
}

// BackupConfig controls local snapshots of the persisted state.
type BackupConfig struct {
	// Dir receives a compressed copy of the document after every
	// successful write. Empty disables backups.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration from the given file (or the default search
// paths when empty) and the environment.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("ghtraf")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/ghtraf")
	}

	viperCfg.SetEnvPrefix("GHTRAF")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Token resolves the GitHub token from the environment, consulting an
// optional .env file first. GHTRAF_TOKEN wins over GITHUB_TOKEN.
func Token() (string, error) {
	// Missing .env is the common case outside local development.
	_ = godotenv.Load()

	for _, name := range []string{tokenEnvVar, githubTokenEnvVar} {
		if token := os.Getenv(name); token != "" {
			return token, nil
		}
	}

	return "", fmt.Errorf("%w: set %s or %s", ErrMissingToken, tokenEnvVar, githubTokenEnvVar)
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("engine.window_days", defaultWindowDays)
	viperCfg.SetDefault("engine.retain_days", defaultRetainDays)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
}

func validate(config *Config) error {
	if config.Repo.Owner == "" || config.Repo.Name == "" {
		return ErrMissingRepo
	}

	if config.Gists.State == "" {
		return ErrMissingStateGist
	}

	if config.Engine.WindowDays <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, config.Engine.WindowDays)
	}

	if config.Engine.RetainDays < config.Engine.WindowDays {
		return fmt.Errorf("%w: retain %d < window %d",
			ErrInvalidRetention, config.Engine.RetainDays, config.Engine.WindowDays)
	}

	return nil
}

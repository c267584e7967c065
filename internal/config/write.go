package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Write serializes the configuration to path as YAML. Used by
// onboarding to emit the initial config file; refuses to clobber an
// existing one.
func Write(config *Config, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	payload, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

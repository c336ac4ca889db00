package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrEmptyFile    = errors.New("configuration file is empty")
)

// Load reads a Config from a YAML file, applying documented defaults to
// every field the file leaves unset. Unknown keys in the file are ignored.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Config{}, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

// LoadOrDefaults behaves like Load but returns Defaults() instead of
// ErrFileNotFound when the file is absent, useful for a CLI that's happy
// to run unconfigured.
func LoadOrDefaults(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrFileNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes cfg to path as YAML, using a write-temp-then-rename so a
// crash mid-write never corrupts an existing config file.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

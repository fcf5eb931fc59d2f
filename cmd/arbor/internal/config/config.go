// Package config reads and writes arbor.yaml, the per-project
// configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file.
const FileName = "arbor.yaml"

// Config is the arbor.yaml document.
type Config struct {
	// Name is the project name, used for page titles.
	Name string `yaml:"name,omitempty"`

	// ComponentsDir holds the .arb markup files.
	ComponentsDir string `yaml:"componentsDir,omitempty"`

	// Entry is the component file mounted as the page root.
	Entry string `yaml:"entry,omitempty"`

	// OutDir receives built HTML.
	OutDir string `yaml:"outDir,omitempty"`

	// Preview configures the preview server.
	Preview *PreviewConfig `yaml:"preview,omitempty"`
}

// PreviewConfig configures the watch-and-reload server.
type PreviewConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// StatePath is the bbolt file preview session state persists in.
	// Empty disables persistence.
	StatePath string `yaml:"statePath,omitempty"`
}

// Load reads arbor.yaml from projectPath, falling back to defaults when
// the file does not exist.
func Load(projectPath string) (*Config, error) {
	path := filepath.Join(projectPath, FileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the configuration to projectPath/arbor.yaml.
func Save(cfg *Config, projectPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileName), data, 0o644)
}

// DefaultConfig returns the defaults a bare project gets.
func DefaultConfig() *Config {
	return &Config{
		Name:          "arbor-app",
		ComponentsDir: "components",
		Entry:         "app.arb",
		OutDir:        "dist",
		Preview: &PreviewConfig{
			Host:      "localhost",
			Port:      5173,
			StatePath: ".arbor/sessions.db",
		},
	}
}

// applyDefaults fills in anything the file left out.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.ComponentsDir == "" {
		cfg.ComponentsDir = defaults.ComponentsDir
	}
	if cfg.Entry == "" {
		cfg.Entry = defaults.Entry
	}
	if cfg.OutDir == "" {
		cfg.OutDir = defaults.OutDir
	}
	if cfg.Preview == nil {
		cfg.Preview = defaults.Preview
		return
	}
	if cfg.Preview.Host == "" {
		cfg.Preview.Host = defaults.Preview.Host
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = defaults.Preview.Port
	}
}

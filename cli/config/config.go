// Package config handles CLI configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	// DDNURL and LLMProvider select v1 mode when both are set.
	DDNURL      string `yaml:"ddn_url,omitempty"`
	LLMProvider string `yaml:"llm_provider,omitempty"`

	// BuildID and BuildVersion select a v2 build. At most one may be set;
	// with neither, queries run against the applied build.
	BuildID      string `yaml:"build_id,omitempty"`
	BuildVersion string `yaml:"build_version,omitempty"`

	Timezone string `yaml:"timezone,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`

	// DDNHeaders are forwarded with every DDN request (e.g. auth headers).
	DDNHeaders map[string]string `yaml:"ddn_headers,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.promptql/config.yaml
// - Windows: %USERPROFILE%\.promptql\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".promptql", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

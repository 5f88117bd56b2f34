package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client settings loadable from a YAML file.
type Config struct {
	// ServerURL is the base URL of the analysis server.
	ServerURL string `yaml:"server_url"`

	// ReportsDir is where generated HTML reports are written.
	ReportsDir string `yaml:"reports_dir"`

	// HistoryLimit is the page size for history queries.
	HistoryLimit int `yaml:"history_limit"`

	// RequestTimeout bounds each HTTP request, in seconds. Zero means the
	// default.
	RequestTimeout int `yaml:"request_timeout"`

	// LogFile receives the structured session log. Empty disables logging.
	LogFile string `yaml:"log_file"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "http://localhost:5000",
		ReportsDir:     "reports",
		HistoryLimit:   50,
		RequestTimeout: 30,
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// LoadFromYAML reads a config file, filling unset fields with defaults.
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is required")
	}

	return cfg, nil
}

// SaveToYAML writes the config to the given path.
func SaveToYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

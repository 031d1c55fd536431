package app

import (
	"errors"
	"time"

	"github.com/capitalone/Stratum-Observability/internal/pipeline"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath   string   // hcl application file
	CatalogPaths []string // catalog files in any supported format
	PublishKeys  []string // "key" or "catalogID#key"

	ProductName    string
	ProductVersion string

	LogFormat        string
	LogLevel         string
	Policy           pipeline.Policy
	PublisherTimeout time.Duration
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && len(cfg.CatalogPaths) == 0 {
		return nil, errors.New("a config path or at least one catalog path is required")
	}
	if cfg.PublisherTimeout < 0 {
		return nil, errors.New("publisher timeout must not be negative")
	}
	return &cfg, nil
}

func (c *Config) paths() []string {
	var paths []string
	if c.ConfigPath != "" {
		paths = append(paths, c.ConfigPath)
	}
	return append(paths, c.CatalogPaths...)
}

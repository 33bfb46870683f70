package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models consite.yml.
type Config struct {
	Site struct {
		Name string `yaml:"name"`
	} `yaml:"site"`
	Processes struct {
		Catalog map[string][]string `yaml:"catalog"`
	} `yaml:"processes"`
	Thresholds struct {
		Approve   string `yaml:"approve"`
		Checklist string `yaml:"checklist"`
		Confirm   string `yaml:"confirm"`
	} `yaml:"thresholds"`
	Sync struct {
		Endpoint   string `yaml:"endpoint"`
		DebounceMS int    `yaml:"debounce_ms"`
		TimeoutS   int    `yaml:"timeout_s"`
	} `yaml:"sync"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with cst init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Site.Name == "" {
		return fmt.Errorf("config.site.name is required")
	}
	if len(c.Processes.Catalog) == 0 {
		return fmt.Errorf("config.processes.catalog is required")
	}
	for category, procs := range c.Processes.Catalog {
		if category == "" {
			return fmt.Errorf("config.processes.catalog contains empty category")
		}
		if len(procs) == 0 {
			return fmt.Errorf("category %s has no processes", category)
		}
		seen := map[string]bool{}
		for _, p := range procs {
			if p == "" {
				return fmt.Errorf("category %s has empty process code", category)
			}
			if seen[p] {
				return fmt.Errorf("category %s repeats process %s", category, p)
			}
			seen[p] = true
		}
	}
	if c.Sync.DebounceMS < 0 {
		return fmt.Errorf("config.sync.debounce_ms must not be negative")
	}
	if c.Sync.TimeoutS < 0 {
		return fmt.Errorf("config.sync.timeout_s must not be negative")
	}
	return nil
}

// KnownProcess reports whether process belongs to category in the catalog.
func (c *Config) KnownProcess(category, process string) bool {
	for _, p := range c.Processes.Catalog[category] {
		if p == process {
			return true
		}
	}
	return false
}

// Debounce returns the coalescer window, defaulting when unset.
func (c *Config) Debounce() time.Duration {
	if c.Sync.DebounceMS <= 0 {
		return 400 * time.Millisecond
	}
	return time.Duration(c.Sync.DebounceMS) * time.Millisecond
}

// SyncTimeout returns the per-call remote deadline, defaulting when unset.
func (c *Config) SyncTimeout() time.Duration {
	if c.Sync.TimeoutS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Sync.TimeoutS) * time.Second
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "consite.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(siteName string) string {
	return fmt.Sprintf(defaultTemplate, siteName)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a site.
func Default(siteName string) *Config {
	cfg, err := FromYAML([]byte(fmt.Sprintf(defaultTemplate, siteName)))
	if err != nil {
		panic(fmt.Sprintf("default config template invalid: %v", err))
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `site:
  name: %s

processes:
  catalog:
    structure:
      - foundation
      - columns
      - girders
      - slab
      - walls
      - steel
      - joints
      - shop-review
    finish:
      - fireproofing
      - insulation
      - windows
      - interior
      - exterior
      - mep
      - punch

thresholds:
  approve: leader
  checklist: leader
  confirm: manager

sync:
  endpoint: ""
  debounce_ms: 400
  timeout_s: 10
`

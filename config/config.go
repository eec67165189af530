// Package config provides configuration loading and management for the
// ontology viewer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wbrown/janus-ontology/ontology/codec"
)

// Config represents the complete viewer configuration
type Config struct {
	Preload  PreloadConfig  `yaml:"preload"`
	Display  DisplayConfig  `yaml:"display"`
	Store    StoreConfig    `yaml:"store"`
	Reasoner ReasonerConfig `yaml:"reasoner"`
	Log      LogConfig      `yaml:"log"`
}

// PreloadConfig configures the directory of ready-made ontologies
type PreloadConfig struct {
	// Dir is scanned for ontology files (empty = no preloaded catalog)
	Dir string `yaml:"dir"`
	// Patterns select files relative to Dir; ** is supported
	Patterns []string `yaml:"patterns"`
	// Watch reloads the catalog when the directory changes
	Watch bool `yaml:"watch"`
	// Debounce coalesces bursts of file events
	Debounce time.Duration `yaml:"debounce"`
}

// DisplayConfig configures labels, names and queries
type DisplayConfig struct {
	// Languages admitted for labels; "" admits untagged literals
	Languages []string `yaml:"languages"`
	// DefaultLang tags the labels of new instances
	DefaultLang string `yaml:"default_lang"`
	// Namespace receives new instances (empty = the class's namespace)
	Namespace string `yaml:"namespace"`
	// Prefixes are available to text queries and editor input
	Prefixes map[string]string `yaml:"prefixes,omitempty"`
}

// StoreConfig configures the fact store
type StoreConfig struct {
	// MemTableSize is the badger memtable size in bytes
	MemTableSize int64 `yaml:"memtable_size"`
	// SaveFormat is used when the file name has no known extension
	SaveFormat string `yaml:"save_format"`
}

// ReasonerConfig configures inference
type ReasonerConfig struct {
	// MaxPasses bounds a reasoning run (0 = unbounded)
	MaxPasses int `yaml:"max_passes"`
}

// LogConfig configures operational logging
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error
	Level string `yaml:"level"`
}

// minMemTableSize is the smallest memtable badger accepts comfortably
const minMemTableSize = 1 << 20

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Preload: PreloadConfig{
			Dir:      "",
			Patterns: []string{"**/*.owl", "**/*.rdf"},
			Debounce: 250 * time.Millisecond,
		},
		Display: DisplayConfig{
			Languages:   []string{"en", ""},
			DefaultLang: "en",
		},
		Store: StoreConfig{
			MemTableSize: 16 << 20,
			SaveFormat:   "rdfxml",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	for _, p := range c.Preload.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("preload.patterns: invalid pattern %q", p)
		}
	}
	if c.Preload.Watch && c.Preload.Dir == "" {
		return fmt.Errorf("preload.watch requires preload.dir")
	}
	if c.Preload.Debounce < 0 {
		return fmt.Errorf("preload.debounce must not be negative")
	}
	if len(c.Display.Languages) == 0 {
		return fmt.Errorf("display.languages is required")
	}
	if c.Store.MemTableSize < minMemTableSize {
		return fmt.Errorf("store.memtable_size must be at least %d bytes", minMemTableSize)
	}
	if _, err := codec.ParseFormat(c.Store.SaveFormat); err != nil {
		return fmt.Errorf("store.save_format: %w", err)
	}
	if c.Reasoner.MaxPasses < 0 {
		return fmt.Errorf("reasoner.max_passes must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Preload
	if other.Preload.Dir != "" {
		c.Preload.Dir = other.Preload.Dir
	}
	if len(other.Preload.Patterns) > 0 {
		c.Preload.Patterns = other.Preload.Patterns
	}
	if other.Preload.Watch {
		c.Preload.Watch = true
	}
	if other.Preload.Debounce != 0 {
		c.Preload.Debounce = other.Preload.Debounce
	}

	// Display
	if len(other.Display.Languages) > 0 {
		c.Display.Languages = other.Display.Languages
	}
	if other.Display.DefaultLang != "" {
		c.Display.DefaultLang = other.Display.DefaultLang
	}
	if other.Display.Namespace != "" {
		c.Display.Namespace = other.Display.Namespace
	}
	if len(other.Display.Prefixes) > 0 {
		merged := make(map[string]string, len(c.Display.Prefixes)+len(other.Display.Prefixes))
		for k, v := range c.Display.Prefixes {
			merged[k] = v
		}
		for k, v := range other.Display.Prefixes {
			merged[k] = v
		}
		c.Display.Prefixes = merged
	}

	// Store
	if other.Store.MemTableSize != 0 {
		c.Store.MemTableSize = other.Store.MemTableSize
	}
	if other.Store.SaveFormat != "" {
		c.Store.SaveFormat = other.Store.SaveFormat
	}

	// Reasoner
	if other.Reasoner.MaxPasses != 0 {
		c.Reasoner.MaxPasses = other.Reasoner.MaxPasses
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

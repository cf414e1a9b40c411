// Package config provides configuration loading and structs for the annotation server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Parser ParserConfig `yaml:"parser"`
	Export ExportConfig `yaml:"export"`
	Search SearchConfig `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                  string   `yaml:"host"`
	Port                  int      `yaml:"port"`
	CORSOrigins           []string `yaml:"cors_origins"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	MaxUploadBytes        int64    `yaml:"max_upload_bytes"`
}

// ParserConfig selects and configures the temporal expression parser.
type ParserConfig struct {
	Type           string `yaml:"type"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheSize      int    `yaml:"cache_size"`
}

// ExportConfig holds where and how reviewed records are written.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Corpus    string `yaml:"corpus"`
	// Schema is "basic" or "extended".
	Schema string `yaml:"schema"`
}

// SearchConfig holds corpus keyword search limits and tuning.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// PhraseBoost multiplies the score of phrase matches; <= 1 disables it.
	PhraseBoost float64 `yaml:"phrase_boost"`
	// Fuzziness is the edit distance of fuzzy searches (1 or 2).
	Fuzziness           int `yaml:"fuzziness"`
	SuggestMaxDistance  int `yaml:"suggest_max_distance"`
	SuggestMinFrequency int `yaml:"suggest_min_frequency"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Export.OutputDir = expandPath(cfg.Export.OutputDir, filepath.Dir(path))
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Export.Schema {
	case "basic", "extended":
	default:
		return fmt.Errorf("invalid export.schema %q (must be basic or extended)", c.Export.Schema)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// Save writes the config to path. Used by the init command.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

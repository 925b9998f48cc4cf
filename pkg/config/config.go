// Package config loads srcfacts configuration from TOML, YAML, or JSON
// files via koanf, with defaults that match the reference behavior.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for srcfacts.
type Config struct {
	// Heuristics bounds the regex/state-machine front end.
	Heuristics HeuristicsConfig `koanf:"heuristics"`

	// Python controls the out-of-process visitor front end.
	Python PythonConfig `koanf:"python"`

	// Exclude holds file exclusion patterns for the batch scanner.
	Exclude ExcludeConfig `koanf:"exclude"`

	// Cache controls the CLI-layer persisted result cache.
	Cache CacheConfig `koanf:"cache"`

	// Output controls CLI output formatting.
	Output OutputConfig `koanf:"output"`
}

// HeuristicsConfig caps the heuristic lexical analyzer. Every loop in
// that front end is bounded by one of these so pathological input
// terminates without a wall-clock timeout.
type HeuristicsConfig struct {
	MaxLineLength    int `koanf:"max_line_length"`
	MaxParenDepth    int `koanf:"max_paren_depth"`
	MaxScanWindow    int `koanf:"max_scan_window"`
	MaxIterations    int `koanf:"max_iterations"`
	MaxChainSegments int `koanf:"max_chain_segments"`
	MaxGenericArgLen int `koanf:"max_generic_arg_len"`
}

// PythonConfig controls interpreter discovery and the subprocess call.
type PythonConfig struct {
	// Interpreters is the ordered candidate list probed at first use.
	Interpreters []string `koanf:"interpreters"`

	// TimeoutSeconds bounds one subprocess call. Zero disables the
	// timeout and restores the reference behavior, where a hung
	// interpreter stalls the batch.
	TimeoutSeconds int `koanf:"timeout_seconds"`

	// CacheSize is the per-run result cache capacity (entries).
	CacheSize int `koanf:"cache_size"`
}

// ExcludeConfig defines file exclusion patterns. When Gitignore is
// set, .gitignore files in the enclosing repository apply on top of
// the config patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns"`
	Extensions []string `koanf:"extensions"`
	Dirs       []string `koanf:"dirs"`
	Gitignore  bool     `koanf:"gitignore"`
}

// CacheConfig controls the persisted batch cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, yaml, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with the reference defaults.
func DefaultConfig() *Config {
	return &Config{
		Heuristics: HeuristicsConfig{
			MaxLineLength:    500,
			MaxParenDepth:    32,
			MaxScanWindow:    2000,
			MaxIterations:    10000,
			MaxChainSegments: 5,
			MaxGenericArgLen: 120,
		},
		Python: PythonConfig{
			Interpreters:   []string{"python3", "python"},
			TimeoutSeconds: 30,
			CacheSize:      4096,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
				"*.d.ts",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				"dist",
				"build",
				"bin",
				"obj",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".srcfacts/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, choosing the parser from the
// extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"srcfacts.toml",
		"srcfacts.yaml",
		"srcfacts.yml",
		"srcfacts.json",
		".srcfacts.toml",
		".srcfacts.yaml",
		".srcfacts.yml",
		".srcfacts.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			if cfg, err := Load(name); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks whether a path is excluded from batch analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

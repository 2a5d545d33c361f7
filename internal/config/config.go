// Package config provides configuration loading and structs for the blogsearch server.
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
	Index  IndexConfig  `yaml:"index"`
	Search SearchConfig `yaml:"search"`
	Teaser TeaserConfig `yaml:"teaser"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// IndexConfig describes where the site's index.json comes from.
type IndexConfig struct {
	// Source is a file path or an http(s) URL.
	Source string `yaml:"source"`
	// BodyFormat is html, markdown or text.
	BodyFormat string `yaml:"body_format"`
	// Watch reloads the index when a local source file changes.
	Watch *bool `yaml:"watch"`
}

// WatchOrDefault returns whether to watch the index file; defaults to true when unset.
func (c *IndexConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultLimit int     `yaml:"default_limit"`
	MaxLimit     int     `yaml:"max_limit"`
	TitleBoost   float64 `yaml:"title_boost"`
	Fuzzy        float64 `yaml:"fuzzy"`
	Prefix       *bool   `yaml:"prefix"`
	CombineWith  string  `yaml:"combine_with"`
	CacheSize    int     `yaml:"cache_size"`
	Suggestions  bool    `yaml:"suggestions"`
}

// PrefixOrDefault returns whether query terms match as prefixes; defaults to true when unset.
func (c *SearchConfig) PrefixOrDefault() bool {
	if c.Prefix != nil {
		return *c.Prefix
	}
	return true
}

// TeaserConfig holds teaser weights and markers.
type TeaserConfig struct {
	MaxWords        int     `yaml:"max_words"`
	TermWeight      int     `yaml:"term_weight"`
	FirstWordWeight int     `yaml:"first_word_weight"`
	WordWeight      int     `yaml:"word_weight"`
	EmphasisOpen    string  `yaml:"emphasis_open"`
	EmphasisClose   string  `yaml:"emphasis_close"`
	Ellipsis        *string `yaml:"ellipsis"`
	EscapeHTML      *bool   `yaml:"escape_html"`
	// Stemmer is porter (default) or snowball.
	Stemmer string `yaml:"stemmer"`
}

// EllipsisOrDefault returns the teaser suffix; defaults to "…" when unset.
// An explicit empty string disables the suffix.
func (c *TeaserConfig) EllipsisOrDefault() string {
	if c.Ellipsis != nil {
		return *c.Ellipsis
	}
	return "…"
}

// EscapeHTMLOrDefault reports whether body text in teasers is HTML-escaped.
// Defaults to true since the default markers are HTML.
func (c *TeaserConfig) EscapeHTMLOrDefault() bool {
	if c.EscapeHTML != nil {
		return *c.EscapeHTML
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed, or if values are invalid.
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
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Index.Source = expandPath(cfg.Index.Source, filepath.Dir(path))
	return &cfg, nil
}

// Validate reports values ApplyDefaults cannot fix.
func Validate(cfg *Config) error {
	switch strings.ToUpper(cfg.Search.CombineWith) {
	case "AND", "OR":
	default:
		return fmt.Errorf("invalid search.combine_with %q: want AND or OR", cfg.Search.CombineWith)
	}
	if cfg.Search.Fuzzy < 0 || cfg.Search.Fuzzy > 1 {
		return fmt.Errorf("invalid search.fuzzy %v: want a fraction between 0 and 1", cfg.Search.Fuzzy)
	}
	switch strings.ToLower(cfg.Teaser.Stemmer) {
	case "", "porter", "snowball":
	default:
		return fmt.Errorf("invalid teaser.stemmer %q: want porter or snowball", cfg.Teaser.Stemmer)
	}
	if (cfg.Teaser.EmphasisOpen == "") != (cfg.Teaser.EmphasisClose == "") {
		return fmt.Errorf("teaser.emphasis_open and teaser.emphasis_close must be set together")
	}
	return nil
}

// expandPath converts a local path to absolute. URLs are returned unchanged.
// Paths starting with "./" are relative to configDir; other relative paths are
// relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
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

// Package config handles reading and writing the shelf configuration file
// (~/.shelf/config.toml) and applying SHELF_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Defaults used when a key is unset.
const (
	DefaultListenAddr = ":7480"
	DefaultTopN       = 10
	DefaultCacheTTL   = 5 * time.Minute
)

// Config holds shelf configuration settings.
type Config struct {
	CatalogPath   string `toml:"catalog_path,omitempty" json:"catalog_path,omitempty"`
	DBPath        string `toml:"db_path,omitempty" json:"db_path,omitempty"`
	TopN          int    `toml:"top_n,omitempty" json:"top_n,omitempty"`
	MaxFeatures   int    `toml:"max_features,omitempty" json:"max_features,omitempty"`
	CacheTTL      string `toml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"`
	ListenAddr    string `toml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	LogLevel      string `toml:"log_level,omitempty" json:"log_level,omitempty"`
	LogFormat     string `toml:"log_format,omitempty" json:"log_format,omitempty"`
	DefaultFormat string `toml:"default_format,omitempty" json:"default_format,omitempty"`
	StoreMode     string `toml:"store_mode,omitempty" json:"store_mode,omitempty"`
	RemoteURL     string `toml:"remote_url,omitempty" json:"remote_url,omitempty"`
}

// validKeys lists the allowed configuration keys.
var validKeys = map[string]bool{
	"catalog_path":   true,
	"db_path":        true,
	"top_n":          true,
	"max_features":   true,
	"cache_ttl":      true,
	"listen_addr":    true,
	"log_level":      true,
	"log_format":     true,
	"default_format": true,
	"store_mode":     true,
	"remote_url":     true,
}

// envKeys maps environment variables to the configuration key they override.
var envKeys = map[string]string{
	"SHELF_CATALOG":    "catalog_path",
	"SHELF_DB":         "db_path",
	"SHELF_TOP_N":      "top_n",
	"SHELF_CACHE_TTL":  "cache_ttl",
	"SHELF_ADDR":       "listen_addr",
	"SHELF_LOG_LEVEL":  "log_level",
	"SHELF_LOG_FORMAT": "log_format",
	"SHELF_STORE_MODE": "store_mode",
	"SHELF_REMOTE_URL": "remote_url",
}

// ValidKeys returns the sorted list of valid configuration keys.
func ValidKeys() []string {
	keys := make([]string, 0, len(validKeys))
	for k := range validKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvVars returns the sorted list of environment variables ApplyEnv reads.
func EnvVars() []string {
	vars := make([]string, 0, len(envKeys))
	for v := range envKeys {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// Dir returns the shelf data directory (~/.shelf).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".shelf")
	}
	return filepath.Join(home, ".shelf")
}

// Path returns the default config file path (~/.shelf/config.toml).
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultDBPath returns the default SQLite catalog path (~/.shelf/shelf.db).
func DefaultDBPath() string {
	return filepath.Join(Dir(), "shelf.db")
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config from a specific path. Returns an empty Config if
// the file does not exist. Supports both TOML and JSON formats (detected by
// file extension; defaults to TOML).
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to a specific path, creating parent directories as needed.
// Writes TOML format regardless of file extension.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from SHELF_* environment variables. Values go
// through the same validation as Set.
func (c *Config) ApplyEnv() error {
	for _, name := range EnvVars() {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		if err := c.Set(envKeys[name], v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// CacheTTLDuration returns the memoization lifetime. An unset value means
// DefaultCacheTTL; "0" disables memoization.
func (c *Config) CacheTTLDuration() time.Duration {
	if c.CacheTTL == "" {
		return DefaultCacheTTL
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return DefaultCacheTTL
	}
	return d
}

// Addr returns the listen address, defaulting to DefaultListenAddr.
func (c *Config) Addr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// ResolvedDBPath returns DBPath or the default database location.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath == "" {
		return DefaultDBPath()
	}
	return c.DBPath
}

// Get returns the string value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "catalog_path":
		return c.CatalogPath, nil
	case "db_path":
		return c.DBPath, nil
	case "top_n":
		return itoaOrEmpty(c.TopN), nil
	case "max_features":
		return itoaOrEmpty(c.MaxFeatures), nil
	case "cache_ttl":
		return c.CacheTTL, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "default_format":
		return c.DefaultFormat, nil
	case "store_mode":
		return c.StoreMode, nil
	case "remote_url":
		return c.RemoteURL, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a value to a configuration key. An empty value clears it.
func (c *Config) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "catalog_path":
		c.CatalogPath = value
	case "db_path":
		c.DBPath = value
	case "top_n":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.TopN = n
	case "max_features":
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		c.MaxFeatures = n
	case "cache_ttl":
		if value != "" {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("cache_ttl must be a duration such as \"5m\" or \"0\": %w", err)
			}
			if d < 0 {
				return fmt.Errorf("cache_ttl must not be negative, got %q", value)
			}
		}
		c.CacheTTL = value
	case "listen_addr":
		c.ListenAddr = value
	case "log_level":
		switch strings.ToLower(value) {
		case "", "trace", "debug", "info", "warn", "error", "disabled":
		default:
			return fmt.Errorf("log_level must be one of trace, debug, info, warn, error, disabled; got %q", value)
		}
		c.LogLevel = strings.ToLower(value)
	case "log_format":
		if value != "" && value != "auto" && value != "json" && value != "console" {
			return fmt.Errorf("log_format must be \"auto\", \"json\" or \"console\", got %q", value)
		}
		c.LogFormat = value
	case "default_format":
		if value != "" && value != "table" && value != "json" {
			return fmt.Errorf("default_format must be \"table\" or \"json\", got %q", value)
		}
		c.DefaultFormat = value
	case "store_mode":
		if value != "" && value != "local" && value != "remote" {
			return fmt.Errorf("store_mode must be \"local\" or \"remote\", got %q", value)
		}
		c.StoreMode = value
	case "remote_url":
		c.RemoteURL = value
	}
	return nil
}

func positiveInt(key, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

func itoaOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Package config loads the folio configuration file.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "folio.yaml"

// Config is the on-disk configuration of a folio host. LogFile, when set,
// receives a copy of every log record.
type Config struct {
	LogLevel    string      `yaml:"log_level" toml:"log_level" json:"log_level"`
	LogFormat   string      `yaml:"log_format" toml:"log_format" json:"log_format"`
	LogFile     string      `yaml:"log_file" toml:"log_file" json:"log_file"`
	Theme       Theme       `yaml:"theme" toml:"theme" json:"theme"`
	CellMarkers CellMarkers `yaml:"cell_markers" toml:"cell_markers" json:"cell_markers"`
	HTTP        HTTP        `yaml:"http" toml:"http" json:"http"`
	Redis       Redis       `yaml:"redis" toml:"redis" json:"redis"`
	SQLite      SQLite      `yaml:"sqlite" toml:"sqlite" json:"sqlite"`
	Sessions    Sessions    `yaml:"sessions" toml:"sessions" json:"sessions"`
	Documents   Documents   `yaml:"documents" toml:"documents" json:"documents"`
	Gather      Gather      `yaml:"gather" toml:"gather" json:"gather"`
}

// Theme seeds the editor theme fields.
type Theme struct {
	Base   string `yaml:"base" toml:"base" json:"base"`
	Ignore bool   `yaml:"ignore" toml:"ignore" json:"ignore"`
}

// CellMarkers holds the regular expressions that start a cell.
type CellMarkers struct {
	Code     string `yaml:"code" toml:"code" json:"code"`
	Markdown string `yaml:"markdown" toml:"markdown" json:"markdown"`
}

// HTTP configures the HTTP host surface.
type HTTP struct {
	Port int `yaml:"port" toml:"port" json:"port"`
}

// Redis configures the Redis snapshot store. An empty Addr disables it.
type Redis struct {
	Addr     string        `yaml:"addr" toml:"addr" json:"addr"`
	Password string        `yaml:"password" toml:"password" json:"password"`
	DB       int           `yaml:"db" toml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" toml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl" json:"ttl"`
}

// SQLite configures the SQLite snapshot store. An empty Path disables it.
// Redis wins when both are set.
type SQLite struct {
	Path string `yaml:"path" toml:"path" json:"path"`
}

// Sessions configures the file snapshot store and the middleware that
// wraps whichever store is active.
type Sessions struct {
	Dir string `yaml:"dir" toml:"dir" json:"dir"`

	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key" toml:"encryption_key" json:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted when loading.
	FallbackKeys []string `yaml:"fallback_keys" toml:"fallback_keys" json:"fallback_keys"`
	// Redact lists regular expressions of variable and option names whose
	// values are masked before saving.
	Redact []string `yaml:"redact" toml:"redact" json:"redact"`
}

// Keys decodes the encryption keys. ok is false when encryption is off.
func (s Sessions) Keys() (active []byte, fallback [][]byte, ok bool, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, false, nil
	}
	active, err = base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, nil, false, fmt.Errorf("invalid encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		b, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, false, fmt.Errorf("invalid fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, b)
	}
	return active, fallback, true, nil
}

// Documents configures where gathered notebooks are written. Backend is
// "file" (plain .ipynb files) or "loam" (a loam repository in Dir).
type Documents struct {
	Dir     string `yaml:"dir" toml:"dir" json:"dir"`
	Backend string `yaml:"backend" toml:"backend" json:"backend"`
}

// Gather configures an external gather command. Without a command the
// built-in execution log is used.
type Gather struct {
	Command string   `yaml:"command" toml:"command" json:"command"`
	Args    []string `yaml:"args" toml:"args" json:"args"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Theme:     Theme{Base: "vscode-light"},
		HTTP:      HTTP{Port: 8080},
		Redis:     Redis{Prefix: "folio:session:"},
		Sessions:  Sessions{Dir: filepath.Join(".folio", "sessions")},
		Documents: Documents{
			Dir:     filepath.Join(".folio", "documents"),
			Backend: "file",
		},
	}
}

// Load reads a configuration file (YAML, TOML or JSON) over the defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Level maps LogLevel onto slog levels. Unknown names mean Info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

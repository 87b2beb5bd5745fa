package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Source kinds accepted in [SourceConfig.Kind].
const (
	SourceCSV    = "csv"
	SourceTable  = "table"
	SourceSample = "sample"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	Gate     GateConfig     `toml:"gate"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Download DownloadConfig `toml:"download"`
}

// SourceConfig selects where album metadata comes from.
type SourceConfig struct {
	Kind           string      `toml:"kind"`
	CSVURL         string      `toml:"csv_url"`
	TimeoutSeconds int         `toml:"timeout_seconds"`
	Table          TableConfig `toml:"table"`
}

// TableConfig points at a hosted table exposed through a PostgREST endpoint.
type TableConfig struct {
	URL         string `toml:"url"`
	APIKey      string `toml:"api_key"`
	AlbumsTable string `toml:"albums_table"`
	SongsTable  string `toml:"songs_table"`
}

// GateConfig contains preview gating settings.
type GateConfig struct {
	PreviewSeconds      int    `toml:"preview_seconds"`
	ResetPurchaseOnLoad bool   `toml:"reset_purchase_on_load"`
	Currency            string `toml:"currency"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DownloadConfig controls where and how purchased tracks are saved.
type DownloadConfig struct {
	OutputDir   string `toml:"output_dir"`
	Concurrency int    `toml:"concurrency"`
	StaggerMS   int    `toml:"stagger_ms"`
	Tag         bool   `toml:"tag"`
}

// Timeout returns the source fetch timeout, falling back to 30s when unset.
func (s SourceConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// PreviewLimit returns the preview cap as a [time.Duration].
func (g GateConfig) PreviewLimit() time.Duration {
	if g.PreviewSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(g.PreviewSeconds) * time.Second
}

// Stagger returns the delay between consecutive download starts.
func (d DownloadConfig) Stagger() time.Duration {
	return time.Duration(d.StaggerMS) * time.Millisecond
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate reports configuration values that cannot work at all.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceCSV:
		if c.Source.CSVURL == "" {
			return fmt.Errorf("%w: source.csv_url is required for csv sources", ErrInvalidConfig)
		}
	case SourceTable:
		if c.Source.Table.URL == "" || c.Source.Table.AlbumsTable == "" {
			return fmt.Errorf("%w: source.table.url and source.table.albums_table are required", ErrInvalidConfig)
		}
	case SourceSample:
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalidConfig, c.Source.Kind)
	}

	if c.Download.Concurrency < 0 {
		return fmt.Errorf("%w: download.concurrency must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

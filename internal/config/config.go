// Package config loads the SGA server configuration. Values are layered:
// compiled-in defaults, then an optional YAML file, then environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host         string `yaml:"host" env:"SGA_HOST"`
	Port         int    `yaml:"port" env:"SGA_PORT"`
	ReadTimeout  int    `yaml:"read_timeout_seconds" env:"SGA_READ_TIMEOUT"`
	WriteTimeout int    `yaml:"write_timeout_seconds" env:"SGA_WRITE_TIMEOUT"`
	IdleTimeout  int    `yaml:"idle_timeout_seconds" env:"SGA_IDLE_TIMEOUT"`
}

// DatabaseConfig selects the persistence backend. An empty DSN keeps the
// in-memory store, which is only suitable for development and tests.
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"SGA_DB_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"SGA_DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"SGA_DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds" env:"SGA_DB_CONN_MAX_LIFETIME"`
}

// LoggingConfig mirrors pkg/logger settings.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"SGA_LOG_LEVEL"`
	Format     string `yaml:"format" env:"SGA_LOG_FORMAT"`
	Output     string `yaml:"output" env:"SGA_LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"SGA_LOG_FILE_PREFIX"`
}

// LabelConfig governs QR/label rendering. BaseURL is the prefix encoded into
// every asset QR, so changing it invalidates printed labels.
type LabelConfig struct {
	BaseURL  string `yaml:"base_url" env:"LABEL_BASE_URL"`
	QRSize   int    `yaml:"qr_size" env:"SGA_QR_SIZE"`
	QRBorder int    `yaml:"qr_border" env:"SGA_QR_BORDER"`
}

// APIConfig holds authentication and throttling settings for /api.
type APIConfig struct {
	Tokens        string `yaml:"tokens" env:"SGA_API_TOKENS"`
	JWTSecret     string `yaml:"jwt_secret" env:"SGA_JWT_SECRET"`
	JWTTTLMinutes int    `yaml:"jwt_ttl_minutes" env:"SGA_JWT_TTL_MINUTES"`
	RateLimit     int    `yaml:"rate_limit" env:"SGA_RATE_LIMIT"`
	RateBurst     int    `yaml:"rate_burst" env:"SGA_RATE_BURST"`
	CORSOrigins   string `yaml:"cors_origins" env:"SGA_CORS_ORIGINS"`
	AuditLogPath  string `yaml:"audit_log_path" env:"SGA_AUDIT_LOG_PATH"`
	AuditLogMax   int    `yaml:"audit_log_max" env:"SGA_AUDIT_LOG_MAX"`
	AdminUser     string `yaml:"admin_user" env:"SGA_ADMIN_USER"`
	AdminPassword string `yaml:"admin_password" env:"SGA_ADMIN_PASSWORD"`
}

// PagingConfig bounds list endpoints.
type PagingConfig struct {
	PerPage    int `yaml:"per_page" env:"SGA_ITEMS_PER_PAGE"`
	MaxPerPage int `yaml:"max_per_page" env:"SGA_MAX_ITEMS_PER_PAGE"`
}

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Labels   LabelConfig    `yaml:"labels"`
	API      APIConfig      `yaml:"api"`
	Paging   PagingConfig   `yaml:"paging"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5000,
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Labels: LabelConfig{
			BaseURL:  "http://localhost:5000",
			QRSize:   256,
			QRBorder: 4,
		},
		API: APIConfig{
			JWTTTLMinutes: 480,
			RateLimit:     50,
			RateBurst:     100,
			CORSOrigins:   "*",
			AuditLogMax:   200,
		},
		Paging: PagingConfig{
			PerPage:    25,
			MaxPerPage: 100,
		},
	}
}

// Load reads configuration, layering an optional YAML file and the
// environment over the defaults. A .env file in the working directory is
// honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Paging.PerPage <= 0 {
		c.Paging.PerPage = 25
	}
	if c.Paging.MaxPerPage < c.Paging.PerPage {
		c.Paging.MaxPerPage = c.Paging.PerPage
	}
	if c.Labels.QRSize <= 0 {
		c.Labels.QRSize = 256
	}
	return nil
}

// APITokens returns the configured static bearer tokens.
func (c *Config) APITokens() []string {
	return splitList(c.API.Tokens)
}

// CORSOrigins returns the allowed origins for cross-origin requests.
func (c *Config) CORSOrigins() []string {
	origins := splitList(c.API.CORSOrigins)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// RuntimeDirs are created at startup so the process can run unprivileged in
// a fresh working directory.
var RuntimeDirs = []string{"instance", "logs", "uploads", "static/assets"}

// EnsureRuntimeDirs creates the runtime directories if missing.
func EnsureRuntimeDirs() error {
	for _, dir := range RuntimeDirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

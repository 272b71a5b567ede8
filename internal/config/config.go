// Package config provides centralized configuration management for the notes service.
// It loads configuration from .env files, environment variables and CLI flags,
// validates it, and provides sensible defaults.
//
// CLI flags override the environment (--addr) or switch to a throwaway
// in-memory store (--test). Environment variables carry the connection string
// and tuning knobs.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/carlofelipe-hub/coolifytest/internal/db"
	"github.com/carlofelipe-hub/coolifytest/internal/logutil"
	"github.com/carlofelipe-hub/coolifytest/internal/ratelimit"
)

// Environment keys.
const (
	KeyListenAddr        = "LISTEN_ADDR"
	KeyDatabaseURL       = "DATABASE_URL"
	KeyPostgresURL       = "POSTGRES_URL"
	KeyDatabaseKey       = "DATABASE_KEY"
	KeyDBMaxOpenConns    = "DB_MAX_OPEN_CONNS"
	KeyDBMaxIdleConns    = "DB_MAX_IDLE_CONNS"
	KeyInitSchemaOnStart = "INIT_SCHEMA_ON_START"
	KeyMCPEnabled        = "MCP_ENABLED"
	KeyLogLevel          = "LOG_LEVEL"
	KeyRateLimitRPS      = "RATE_LIMIT_RPS"
	KeyRateLimitBurst    = "RATE_LIMIT_BURST"
	KeyRateLimitCleanup  = "RATE_LIMIT_CLEANUP_INTERVAL"
	KeyShutdownTimeout   = "SHUTDOWN_TIMEOUT"
	KeyTrustProxy        = "TRUST_PROXY"
)

const (
	DefaultListenAddr  = ":8080"
	DefaultDatabaseURL = "sqlite://./data/notes.db"
	TestDatabaseURL    = ":memory:"
)

// DotEnvFiles are loaded in order; a variable already set (in the process
// environment or an earlier file) is never overridden.
var DotEnvFiles = []string{".env.local", ".env"}

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr      string
	ShutdownTimeout time.Duration
	MCPEnabled      bool
	LogLevel        string

	// Store
	DatabaseURL       string
	DatabaseKey       string // optional, 64 hex characters (SQLCipher, sqlite only)
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	InitSchemaOnStart bool

	// Rate limiting
	RateLimitConfig ratelimit.Config
	// TrustProxy means a reverse proxy sets X-Forwarded-For on every request.
	TrustProxy      bool

	// TestMode is set by --test: in-memory store, nothing persisted.
	TestMode bool
}

// Flags are the command-line overrides accepted by the server.
type Flags struct {
	Addr string
	Test bool
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags parses --addr and --test from args (without the program name).
func ParseFlags(args []string) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&f.Addr, "addr", "", "Listen address (default :8080, overrides LISTEN_ADDR env var)")
	fs.BoolVar(&f.Test, "test", false, "Use a private in-memory database (nothing is persisted)")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// LoadDotEnv loads the first-found values from DotEnvFiles into the process
// environment and returns the files that were read.
func LoadDotEnv() []string {
	var loaded []string
	for _, name := range DotEnvFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("dotenv_load_failed", "file", name, "error", err)
			continue
		}
		loaded = append(loaded, name)
	}
	return loaded
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyListenAddr, DefaultListenAddr)
	v.SetDefault(KeyDatabaseURL, DefaultDatabaseURL)
	v.SetDefault(KeyDBMaxOpenConns, db.DefaultMaxOpenConns)
	v.SetDefault(KeyDBMaxIdleConns, db.DefaultMaxIdleConns)
	v.SetDefault(KeyInitSchemaOnStart, true)
	v.SetDefault(KeyMCPEnabled, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRateLimitRPS, ratelimit.DefaultConfig.RPS)
	v.SetDefault(KeyRateLimitBurst, ratelimit.DefaultConfig.Burst)
	v.SetDefault(KeyRateLimitCleanup, ratelimit.DefaultConfig.CleanupInterval)
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
	v.SetDefault(KeyTrustProxy, false)

	// DATABASE_URL wins; POSTGRES_URL is accepted for existing deployments.
	_ = v.BindEnv(KeyDatabaseURL, KeyDatabaseURL, KeyPostgresURL)
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from the environment and applies flag overrides.
func LoadConfig(flags Flags) (*Config, error) {
	v := newViper()

	cfg := &Config{
		ListenAddr:        strings.TrimSpace(v.GetString(KeyListenAddr)),
		ShutdownTimeout:   v.GetDuration(KeyShutdownTimeout),
		MCPEnabled:        v.GetBool(KeyMCPEnabled),
		LogLevel:          strings.TrimSpace(v.GetString(KeyLogLevel)),
		DatabaseURL:       strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		DatabaseKey:       strings.TrimSpace(v.GetString(KeyDatabaseKey)),
		DBMaxOpenConns:    v.GetInt(KeyDBMaxOpenConns),
		DBMaxIdleConns:    v.GetInt(KeyDBMaxIdleConns),
		InitSchemaOnStart: v.GetBool(KeyInitSchemaOnStart),
		RateLimitConfig: ratelimit.Config{
			RPS:             v.GetFloat64(KeyRateLimitRPS),
			Burst:           v.GetInt(KeyRateLimitBurst),
			CleanupInterval: v.GetDuration(KeyRateLimitCleanup),
		},
		TrustProxy: v.GetBool(KeyTrustProxy),
	}

	if flags.Addr != "" {
		cfg.ListenAddr = flags.Addr
	}
	if flags.Test {
		cfg.TestMode = true
		cfg.DatabaseURL = TestDatabaseURL
		cfg.DatabaseKey = ""
		cfg.InitSchemaOnStart = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all configuration is present and consistent.
func (c *Config) Validate() error {
	var errs []string

	if c.ListenAddr == "" {
		errs = append(errs, "LISTEN_ADDR must not be empty")
	}

	target, err := db.ParseURL(c.DatabaseURL)
	if err != nil {
		errs = append(errs, fmt.Sprintf("DATABASE_URL is invalid: %v", err))
	}

	if c.DatabaseKey != "" {
		if _, err := hex.DecodeString(c.DatabaseKey); err != nil || len(c.DatabaseKey) != 64 {
			errs = append(errs, "DATABASE_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
		}
		if target.Dialect.Name != "" && target.Dialect.Name != db.SQLite.Name {
			errs = append(errs, "DATABASE_KEY is only supported with a sqlite DATABASE_URL")
		}
		if !db.SQLiteEncryptionSupported {
			errs = append(errs, "DATABASE_KEY requires a CGO build with SQLCipher")
		}
	}

	if c.DBMaxOpenConns <= 0 {
		errs = append(errs, "DB_MAX_OPEN_CONNS must be positive")
	}
	if c.DBMaxIdleConns < 0 {
		errs = append(errs, "DB_MAX_IDLE_CONNS must not be negative")
	} else if c.DBMaxOpenConns > 0 && c.DBMaxIdleConns > c.DBMaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS must not exceed DB_MAX_OPEN_CONNS")
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, "LOG_LEVEL must be one of debug, info, warn, error")
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be a positive duration")
	}

	if c.RateLimitConfig.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimitConfig.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}
	if c.RateLimitConfig.CleanupInterval <= 0 {
		errs = append(errs, "RATE_LIMIT_CLEANUP_INTERVAL must be a positive duration")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// DBOptions returns the pool options for db.Open.
func (c *Config) DBOptions() db.Options {
	return db.Options{
		URL:          c.DatabaseURL,
		Key:          c.DatabaseKey,
		MaxOpenConns: c.DBMaxOpenConns,
		MaxIdleConns: c.DBMaxIdleConns,
	}
}

// PrintStartupSummary prints a human-readable summary of the configuration.
// Credentials in the connection string are masked.
func (c *Config) PrintStartupSummary(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "notes server starting...")

	if c.TestMode {
		fmt.Fprintln(w, "  Store:   in-memory sqlite (--test, nothing is persisted)")
	} else {
		fmt.Fprintf(w, "  Store:   %s\n", logutil.RedactURL(c.DatabaseURL))
	}
	if c.DatabaseKey != "" {
		fmt.Fprintln(w, "  Crypto:  SQLCipher (key from DATABASE_KEY)")
	}
	fmt.Fprintf(w, "  Pool:    max_open=%d max_idle=%d\n", c.DBMaxOpenConns, c.DBMaxIdleConns)
	fmt.Fprintf(w, "  Schema:  init_on_start=%t\n", c.InitSchemaOnStart)
	fmt.Fprintf(w, "  MCP:     enabled=%t\n", c.MCPEnabled)
	fmt.Fprintf(w, "  Limits:  %.0f rps, burst %d per client (trust_proxy=%t)\n", c.RateLimitConfig.RPS, c.RateLimitConfig.Burst, c.TrustProxy)
	fmt.Fprintf(w, "  Listen:  %s\n", c.ListenAddr)
	fmt.Fprintln(w, "")
}

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/chatlog/internal/utils"
	"github.com/leofalp/chatlog/providers/observability/slogobs"
)

// Environment variables read by [Load].
const (
	EnvConfig          = "CHATLOG_CONFIG"
	EnvDatabaseURL     = "CHATLOG_DATABASE_URL"
	EnvSession         = "CHATLOG_SESSION"
	EnvTable           = "CHATLOG_TABLE"
	EnvCSVMaxContent   = "CHATLOG_CSV_MAX_CONTENT"
	EnvRepairArguments = "CHATLOG_REPAIR_ARGUMENTS"
	EnvEstimateTokens  = "CHATLOG_ESTIMATE_TOKENS"
	EnvLogLevel        = "CHATLOG_LOG_LEVEL"
	EnvLogFormat       = "CHATLOG_LOG_FORMAT"
)

// DefaultTable is the PostgreSQL table transcripts are stored in.
const DefaultTable = "chatlog_messages"

// Config holds everything the chatlog command needs besides its flags.
type Config struct {
	// Database selects a PostgreSQL session as the transcript source.
	Database DatabaseConfig `yaml:"database"`

	// Export sets defaults for the export command.
	Export ExportConfig `yaml:"export"`

	// Tokens configures token estimation.
	Tokens TokensConfig `yaml:"tokens"`

	// RepairArguments enables jsonrepair for tool call arguments.
	RepairArguments bool `yaml:"repair_arguments"`

	Log LogConfig `yaml:"log"`
}

// DatabaseConfig locates a stored transcript.
type DatabaseConfig struct {
	// URL is a pgx connection string. Empty means no database.
	URL     string `yaml:"url"`
	Table   string `yaml:"table"`
	Session string `yaml:"session"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	// MaxContent is the CSV content limit in characters.
	// Default: 500
	MaxContent     int  `yaml:"max_content"`
	Metadata       bool `yaml:"metadata"`
	HTMLToMarkdown bool `yaml:"html_to_markdown"`
}

// TokensConfig configures the character-ratio estimator.
type TokensConfig struct {
	// Estimate enables token counting. Without it every token figure is 0.
	Estimate bool `yaml:"estimate"`

	// CharactersPerToken overrides the estimator ratio when positive.
	CharactersPerToken float64 `yaml:"characters_per_token"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is one of compact, pretty, json.
	// Default: compact
	Format string `yaml:"format"`
}

// Default returns the configuration used before any file or environment
// variable is applied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Table: DefaultTable,
		},
		Export: ExportConfig{
			MaxContent: utils.DefaultMaxStringLength,
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(slogobs.FormatCompact),
		},
	}
}

// Load builds the configuration in increasing order of precedence:
// defaults, the YAML file at path (or at $CHATLOG_CONFIG when path is
// empty), then CHATLOG_* environment variables. A .env file in the working
// directory is loaded first when present; it never overrides variables that
// are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into c. Unknown keys are rejected.
func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok {
		c.Database.URL = v
	}
	if v, ok := os.LookupEnv(EnvSession); ok {
		c.Database.Session = v
	}
	if v := os.Getenv(EnvTable); v != "" {
		c.Database.Table = v
	}
	if v := os.Getenv(EnvCSVMaxContent); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvCSVMaxContent, err)
		}
		c.Export.MaxContent = n
	}
	if v := os.Getenv(EnvRepairArguments); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvRepairArguments, err)
		}
		c.RepairArguments = b
	}
	if v := os.Getenv(EnvEstimateTokens); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvEstimateTokens, err)
		}
		c.Tokens.Estimate = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Table == "" {
		errs = append(errs, errors.New("database.table is required"))
	}
	if c.Export.MaxContent <= 0 {
		errs = append(errs, fmt.Errorf("export.max_content must be positive, got %d", c.Export.MaxContent))
	}
	if c.Tokens.CharactersPerToken < 0 {
		errs = append(errs, fmt.Errorf("tokens.characters_per_token must not be negative, got %v", c.Tokens.CharactersPerToken))
	}
	if _, err := slogobs.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case string(slogobs.FormatCompact), string(slogobs.FormatPretty), string(slogobs.FormatJSON):
	default:
		errs = append(errs, fmt.Errorf("log.format must be compact, pretty or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

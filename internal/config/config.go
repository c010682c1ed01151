package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// SupportedLanguages are the UI and narration languages, in matcher preference order.
var SupportedLanguages = []language.Tag{language.English, language.Portuguese, language.Spanish}

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`

	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	ModelName       string `env:"MODEL_NAME"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	DataDir        string `env:"DATA_DIR" envDefault:".echo-chronicle"`
	RedisURL       string `env:"REDIS_URL" envDefault:"localhost:6379"`

	HistoryCap        int           `env:"HISTORY_CAP" envDefault:"50"`
	SummaryEvery      int           `env:"SUMMARY_EVERY" envDefault:"7"`
	IntroVideoTTL     time.Duration `env:"INTRO_VIDEO_TTL" envDefault:"24h"`
	VideoPollInterval time.Duration `env:"VIDEO_POLL_INTERVAL" envDefault:"10s"`
	Language          string        `env:"LANGUAGE" envDefault:"en"`

	LogLevel slog.Level `env:"-"`
}

// Load reads an optional .env file and then the environment. A missing generator key
// is not an error; see ConfigMissing.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.Language = MatchLanguage(cfg.Language)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "echo-chronicle.log")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (supported: %s, %s)", c.LLMProvider, ProviderGemini, ProviderAnthropic)
	}
	switch c.StorageBackend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (supported: %s, %s)", c.StorageBackend, BackendSQLite, BackendRedis)
	}
	if c.HistoryCap <= 0 {
		return fmt.Errorf("HISTORY_CAP must be positive, got %d", c.HistoryCap)
	}
	if c.SummaryEvery <= 0 {
		return fmt.Errorf("SUMMARY_EVERY must be positive, got %d", c.SummaryEvery)
	}
	if c.VideoPollInterval <= 0 || c.IntroVideoTTL <= 0 {
		return fmt.Errorf("VIDEO_POLL_INTERVAL and INTRO_VIDEO_TTL must be positive")
	}
	return nil
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// ConfigMissing reports whether the selected provider has no credential.
func (c *Config) ConfigMissing() bool {
	return strings.TrimSpace(c.APIKey()) == ""
}

// SQLitePath is the chronicle database location inside DataDir.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "chronicle.db")
}

// MatchLanguage maps a language preference such as "pt-BR" onto one of the
// supported base languages, falling back to English.
func MatchLanguage(pref string) string {
	matcher := language.NewMatcher(SupportedLanguages)
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	base, _ := SupportedLanguages[idx].Base()
	return base.String()
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package config loads process configuration: an optional .env file, an
// optional YAML file, then MIRU_* environment overrides on top of defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	DBPath  string        `yaml:"db_path"`
	Locale  string        `yaml:"locale"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
	Session SessionConfig `yaml:"session"`
	AI      AIConfig      `yaml:"ai"`
}

// HTTPConfig governs `miru serve`.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// Addr is host:port.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // text|json
	IncludeCaller bool   `yaml:"include_caller"`
}

// SessionConfig selects the session store. An empty RedisAddr keeps
// sessions in SQLite.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// ProviderConfig overrides one AI vendor. Zero values keep the llm defaults.
type ProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMs   int     `yaml:"timeout_ms"`
}

type AIConfig struct {
	LogCalls   bool           `yaml:"log_calls"`
	TimeoutMs  int            `yaml:"timeout_ms"`
	MaxRetries int            `yaml:"max_retries"`
	HealthTTL  time.Duration  `yaml:"health_ttl"`
	Claude     ProviderConfig `yaml:"claude"`
	GPT        ProviderConfig `yaml:"gpt"`
	Gemini     ProviderConfig `yaml:"gemini"`
}

const (
	defaultHost            = "127.0.0.1"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultLocale          = "ja"
	defaultSessionTTL      = 7 * 24 * time.Hour
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	ai := llm.DefaultConfig()
	return Config{
		DBPath: defaultDBPath(),
		Locale: defaultLocale,
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{Level: defaultLoggingLevel, Format: defaultLoggingFormat},
		Session: SessionConfig{TTL: defaultSessionTTL},
		AI: AIConfig{
			TimeoutMs:  ai.TimeoutMs,
			MaxRetries: ai.MaxRetries,
			HealthTTL:  ai.HealthTTL,
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "miru.db"
	}
	return filepath.Join(home, ".miru", "miru.db")
}

// DefaultPath is where Load looks for a YAML file when neither the argument
// nor MIRU_CONFIG names one.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".miru", "config.yaml")
}

// Load builds the configuration. An explicit path (argument or MIRU_CONFIG)
// must exist; the default path is optional.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional

	explicit := true
	if path == "" {
		path = os.Getenv("MIRU_CONFIG")
	}
	if path == "" {
		path, explicit = DefaultPath(), false
	}

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.DBPath = valueOrDefault("MIRU_DB", cfg.DBPath)
	cfg.Locale = valueOrDefault("MIRU_LOCALE", cfg.Locale)

	cfg.HTTP.Host = valueOrDefault("MIRU_HTTP_HOST", cfg.HTTP.Host)
	if v := os.Getenv("MIRU_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MIRU_HTTP_PORT value %q: %w", v, err)
		}
		cfg.HTTP.Port = port
	}
	if v := os.Getenv("MIRU_HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitCSV(v)
	}
	for key, dst := range map[string]*time.Duration{
		"MIRU_HTTP_READ_TIMEOUT":     &cfg.HTTP.ReadTimeout,
		"MIRU_HTTP_WRITE_TIMEOUT":    &cfg.HTTP.WriteTimeout,
		"MIRU_HTTP_IDLE_TIMEOUT":     &cfg.HTTP.IdleTimeout,
		"MIRU_HTTP_SHUTDOWN_TIMEOUT": &cfg.HTTP.ShutdownTimeout,
		"MIRU_SESSION_TTL":           &cfg.Session.TTL,
		"MIRU_AI_HEALTH_TTL":         &cfg.AI.HealthTTL,
	} {
		if err := parseDuration(key, dst); err != nil {
			return err
		}
	}

	cfg.Logging.Level = valueOrDefault("MIRU_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("MIRU_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("MIRU_LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)

	cfg.Session.RedisAddr = valueOrDefault("MIRU_REDIS_ADDR", cfg.Session.RedisAddr)
	cfg.Session.RedisPassword = valueOrDefault("MIRU_REDIS_PASSWORD", cfg.Session.RedisPassword)
	cfg.Session.RedisDB = parseIntWithDefault("MIRU_REDIS_DB", cfg.Session.RedisDB)

	cfg.AI.LogCalls = parseBoolWithDefault("MIRU_AI_LOG_CALLS", cfg.AI.LogCalls)
	cfg.AI.TimeoutMs = parseIntWithDefault("MIRU_AI_TIMEOUT_MS", cfg.AI.TimeoutMs)
	cfg.AI.MaxRetries = parseIntWithDefault("MIRU_AI_MAX_RETRIES", cfg.AI.MaxRetries)

	providerEnv(&cfg.AI.Claude, "CLAUDE", "ANTHROPIC_API_KEY")
	providerEnv(&cfg.AI.GPT, "GPT", "OPENAI_API_KEY")
	providerEnv(&cfg.AI.Gemini, "GEMINI", "GEMINI_API_KEY")
	return nil
}

// providerEnv reads MIRU_<NAME>_{API_KEY,MODEL,BASE_URL,MAX_TOKENS,TIMEOUT_MS}.
// The vendor's conventional key variable is a fallback for the API key.
func providerEnv(pc *ProviderConfig, name, vendorKey string) {
	prefix := "MIRU_" + name + "_"
	pc.APIKey = valueOrDefault(prefix+"API_KEY", valueOrDefault(vendorKey, pc.APIKey))
	pc.Model = valueOrDefault(prefix+"MODEL", pc.Model)
	pc.BaseURL = valueOrDefault(prefix+"BASE_URL", pc.BaseURL)
	pc.MaxTokens = parseIntWithDefault(prefix+"MAX_TOKENS", pc.MaxTokens)
	pc.TimeoutMs = parseIntWithDefault(prefix+"TIMEOUT_MS", pc.TimeoutMs)
	if v := os.Getenv(prefix + "TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			pc.Temperature = f
		}
	}
}

// Validate rejects values the rest of the program cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d is out of range", c.HTTP.Port))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be > 0"))
	}
	if c.AI.TimeoutMs <= 0 {
		errs = append(errs, errors.New("ai.timeout_ms must be > 0"))
	}
	if c.AI.MaxRetries < 0 {
		errs = append(errs, errors.New("ai.max_retries must be >= 0"))
	}
	return errors.Join(errs...)
}

// LLM overlays the AI section on llm.DefaultConfig.
func (a AIConfig) LLM() llm.Config {
	cfg := llm.DefaultConfig()
	cfg.LogCalls = a.LogCalls
	if a.TimeoutMs > 0 {
		cfg.TimeoutMs = a.TimeoutMs
	}
	cfg.MaxRetries = a.MaxRetries
	if a.HealthTTL > 0 {
		cfg.HealthTTL = a.HealthTTL
	}
	for p, over := range map[domain.Provider]ProviderConfig{
		domain.ProviderClaude: a.Claude,
		domain.ProviderGPT:    a.GPT,
		domain.ProviderGemini: a.Gemini,
	} {
		pc := cfg.Providers[p]
		pc.APIKey = domain.CoalesceStr(over.APIKey, pc.APIKey)
		pc.Model = domain.CoalesceStr(over.Model, pc.Model)
		pc.BaseURL = domain.CoalesceStr(strings.TrimRight(over.BaseURL, "/"), pc.BaseURL)
		if over.MaxTokens > 0 {
			pc.MaxTokens = over.MaxTokens
		}
		if over.Temperature > 0 {
			pc.Temperature = over.Temperature
		}
		if over.TimeoutMs > 0 {
			pc.TimeoutMs = over.TimeoutMs
		}
		cfg.Providers[p] = pc
	}
	return cfg
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

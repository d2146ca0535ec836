// Package config loads and validates the bot's configuration from an
// optional YAML/JSON5 file plus environment overrides. File contents are
// environment-expanded and may compose via $include; every section applies
// its own defaults in Validate.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/kickai-football/kickai/internal/apperr"
)

// Environment variable names. KICKAI_INVITE_SECRET_KEY and
// KICKAI_DB_PROJECT_ID are required; the startup validator re-checks them.
const (
	EnvInviteSecretKey = "KICKAI_INVITE_SECRET_KEY"
	EnvAIProvider      = "KICKAI_AI_PROVIDER"
	EnvAIBaseURL       = "KICKAI_AI_BASE_URL"
	EnvAIAPIKey        = "KICKAI_AI_API_KEY"
	EnvAIModel         = "KICKAI_AI_MODEL"
	EnvDBProjectID     = "KICKAI_DB_PROJECT_ID"
	EnvMongoURI        = "KICKAI_MONGO_URI"
	EnvTelegramToken   = "KICKAI_TELEGRAM_TOKEN"
	EnvCacheServiceMax = "KICKAI_CACHE_SERVICE_MAX"
	EnvCacheServiceTTL = "KICKAI_CACHE_SERVICE_TTL"
	EnvCacheRepoMax    = "KICKAI_CACHE_REPO_MAX"
	EnvCacheRepoTTL    = "KICKAI_CACHE_REPO_TTL"
	EnvRequestTimeout  = "KICKAI_REQUEST_TIMEOUT"
)

// MinInviteSecretLength is the shortest invite signing key accepted.
const MinInviteSecretLength = 10

// Config is the root configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	AI       AIConfig       `yaml:"ai"`
	Database DatabaseConfig `yaml:"database"`
	Security SecurityConfig `yaml:"security"`
	Cache    CacheConfig    `yaml:"cache"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Agents   []AgentConfig  `yaml:"agents"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// TelegramConfig configures the transport adapter.
type TelegramConfig struct {
	Token     string  `yaml:"token"`
	RateLimit float64 `yaml:"rate_limit"` // messages per second, per chat
	RateBurst int     `yaml:"rate_burst"`
}

// AIConfig selects and configures the LLM provider.
type AIConfig struct {
	// Provider is one of ollama, openai, google, mock.
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	// Timeout bounds one completion call.
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig configures MongoDB. ProjectID doubles as the database
// name; collections are prefixed kickai_.
type DatabaseConfig struct {
	ProjectID string        `yaml:"project_id"`
	MongoURI  string        `yaml:"mongo_uri"`
	Timeout   time.Duration `yaml:"timeout"` // per-operation guard
}

// SecurityConfig holds signing material.
type SecurityConfig struct {
	// InviteSecretKey signs invite-link JWTs. Minimum 10 characters.
	InviteSecretKey string `yaml:"invite_secret_key"`
	// InviteExpiry bounds invite-link validity.
	InviteExpiry time.Duration `yaml:"invite_expiry"`
}

// CacheConfig bounds the factory caches.
type CacheConfig struct {
	ServiceMax int           `yaml:"service_max"`
	ServiceTTL time.Duration `yaml:"service_ttl"`
	RepoMax    int           `yaml:"repo_max"`
	RepoTTL    time.Duration `yaml:"repo_ttl"`
}

// PipelineConfig tunes the orchestration pipeline.
type PipelineConfig struct {
	// RequestTimeout bounds one inbound update end to end.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ExecuteSubtasks runs decomposed subtasks sequentially instead of
	// treating decomposition as advisory.
	ExecuteSubtasks bool `yaml:"execute_subtasks"`
	// LLMIntent swaps the keyword intent classifier for the LLM-backed one.
	LLMIntent bool `yaml:"llm_intent"`
	// BulletLimit is the formatter's list truncation threshold.
	BulletLimit int `yaml:"bullet_limit"`
}

// AgentConfig describes one role-specialized agent. Agents are configured,
// not discovered.
type AgentConfig struct {
	Role      string   `yaml:"role"`
	Goal      string   `yaml:"goal"`
	Backstory string   `yaml:"backstory"`
	Tools     []string `yaml:"tools"`
	Model     string   `yaml:"model"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig exposes /metrics and /healthz.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9090". Empty disables the server.
	Addr string `yaml:"addr"`
}

// TracingConfig configures the OTLP exporter. Empty endpoint = no-op.
type TracingConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
	Environment  string  `yaml:"environment"`
}

// validProviders is the pinned provider set.
var validProviders = map[string]bool{
	"ollama": true,
	"openai": true,
	"google": true,
	"mock":   true,
}

// ValidProvider reports whether name is one of the supported AI providers.
func ValidProvider(name string) bool {
	return validProviders[name]
}

// ApplyEnv overlays environment variables onto the config. Environment
// wins over file values, matching the loader contract.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvInviteSecretKey); v != "" {
		c.Security.InviteSecretKey = v
	}
	if v := os.Getenv(EnvAIProvider); v != "" {
		c.AI.Provider = v
	}
	if v := os.Getenv(EnvAIBaseURL); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv(EnvAIAPIKey); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvAIModel); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv(EnvDBProjectID); v != "" {
		c.Database.ProjectID = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Database.MongoURI = v
	}
	if v := os.Getenv(EnvTelegramToken); v != "" {
		c.Telegram.Token = v
	}
	if n, ok := envInt(EnvCacheServiceMax); ok {
		c.Cache.ServiceMax = n
	}
	if d, ok := envDuration(EnvCacheServiceTTL); ok {
		c.Cache.ServiceTTL = d
	}
	if n, ok := envInt(EnvCacheRepoMax); ok {
		c.Cache.RepoMax = n
	}
	if d, ok := envDuration(EnvCacheRepoTTL); ok {
		c.Cache.RepoTTL = d
	}
	if d, ok := envDuration(EnvRequestTimeout); ok {
		c.Pipeline.RequestTimeout = d
	}
}

// Validate applies defaults and checks the required fields. The error is a
// Validation error naming the first offending field.
func (c *Config) Validate() error {
	// Defaults first, so a zero-value config is fully populated.
	if c.Telegram.RateLimit <= 0 {
		c.Telegram.RateLimit = 1.0
	}
	if c.Telegram.RateBurst <= 0 {
		c.Telegram.RateBurst = 5
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "ollama"
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 2 * time.Minute
	}
	if c.Database.MongoURI == "" {
		c.Database.MongoURI = "mongodb://localhost:27017"
	}
	if c.Database.Timeout <= 0 {
		c.Database.Timeout = 10 * time.Second
	}
	if c.Security.InviteExpiry <= 0 {
		c.Security.InviteExpiry = 72 * time.Hour
	}
	if c.Cache.ServiceMax <= 0 {
		c.Cache.ServiceMax = 100
	}
	if c.Cache.ServiceTTL <= 0 {
		c.Cache.ServiceTTL = time.Hour
	}
	if c.Cache.RepoMax <= 0 {
		c.Cache.RepoMax = 50
	}
	if c.Cache.RepoTTL <= 0 {
		c.Cache.RepoTTL = 30 * time.Minute
	}
	if c.Pipeline.RequestTimeout <= 0 {
		c.Pipeline.RequestTimeout = 30 * time.Second
	}
	if c.Pipeline.BulletLimit <= 0 {
		c.Pipeline.BulletLimit = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Tracing.SamplingRate <= 0 {
		c.Tracing.SamplingRate = 1.0
	}

	if len(c.Security.InviteSecretKey) < MinInviteSecretLength {
		return apperr.Validation(
			fmt.Sprintf("invite_secret_key must be at least %d characters (set %s)", MinInviteSecretLength, EnvInviteSecretKey), nil)
	}
	if !ValidProvider(c.AI.Provider) {
		return apperr.Validation(
			fmt.Sprintf("ai provider %q is not one of ollama, openai, google, mock", c.AI.Provider), nil)
	}
	if c.AI.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.AI.BaseURL); err != nil {
			return apperr.Validation(fmt.Sprintf("ai base_url %q is not a URL", c.AI.BaseURL), err)
		}
	}
	if c.Database.ProjectID == "" {
		return apperr.Validation(
			fmt.Sprintf("database project_id is required (set %s)", EnvDBProjectID), nil)
	}
	for i, a := range c.Agents {
		if a.Role == "" {
			return apperr.Validation(fmt.Sprintf("agents[%d] has no role", i), nil)
		}
	}
	return nil
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	// Bare numbers read as seconds.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}

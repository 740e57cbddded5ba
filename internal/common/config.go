package common

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
// Load order: defaults, then TOML file(s), then environment, then CLI flags.
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Providers   ProviderConfig  `toml:"providers"`
	LLM         LLMConfig       `toml:"llm"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level       string   `toml:"level"`        // "debug", "info", "warn", "error"
	Output      []string `toml:"output"`       // "stdout", "file"
	FilePath    string   `toml:"file_path"`    // Log file path (relative to executable if not absolute)
	MaxSize     int64    `toml:"max_size"`     // Max log file size in bytes
	BackupCount int      `toml:"backup_count"` // Rotated files to keep
}

// ProviderConfig contains upstream data-provider endpoints and credentials.
type ProviderConfig struct {
	RahavardBaseURL string        `toml:"rahavard_base_url"`
	SahamyabBaseURL string        `toml:"sahamyab_base_url"`
	TavilyBaseURL   string        `toml:"tavily_base_url"`
	TavilyAPIKey    string        `toml:"tavily_api_key"`
	RapidBaseURL    string        `toml:"rapid_base_url"`
	RapidAPIHost    string        `toml:"rapid_api_host"`
	RapidAPIKey     string        `toml:"rapid_api_key"`
	ProxyURL        string        `toml:"proxy_url"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	MaxConnections  int           `toml:"max_connections"`
}

// LLMConfig selects the default provider and shared generation parameters.
type LLMConfig struct {
	DefaultProvider string  `toml:"default_provider"` // "claude" or "gemini"
	Model           string  `toml:"model"`
	MaxTokens       int     `toml:"max_tokens"`
	TopP            float32 `toml:"top_p"`
	Timeout         string  `toml:"timeout"`
}

type ClaudeConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// SchedulerConfig controls the daily watchlist refresh.
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	Schedule      string `toml:"schedule"` // Cron schedule format
	WatchlistPath string `toml:"watchlist_path"`
}

// DefaultConfig returns configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8085,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/finagent",
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Output:      []string{"stdout", "file"},
			FilePath:    "logs/finagent.log",
			MaxSize:     30 * 1024 * 1024,
			BackupCount: 5,
		},
		Providers: ProviderConfig{
			RahavardBaseURL: "https://rahavard365.com/api/v2",
			SahamyabBaseURL: "https://www.sahamyab.com",
			TavilyBaseURL:   "https://api.tavily.com",
			RapidBaseURL:    "https://twitter154.p.rapidapi.com",
			RapidAPIHost:    "twitter154.p.rapidapi.com",
			RequestTimeout:  30 * time.Second,
			MaxConnections:  100,
		},
		LLM: LLMConfig{
			DefaultProvider: "claude",
			MaxTokens:       20000,
			TopP:            0.0,
			Timeout:         "120s",
		},
		Claude: ClaudeConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,
			Schedule:      "0 9 * * *",
			WatchlistPath: "./watchlist.yaml",
		},
	}
}

// LoadFromFiles loads configuration from defaults, then TOML files in order,
// then environment variables. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies FINAGENT_* environment variables on top of the
// file-based configuration. API keys are expected to arrive this way.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINAGENT_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("FINAGENT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("FINAGENT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if path := os.Getenv("FINAGENT_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if level := os.Getenv("FINAGENT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("FINAGENT_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}
	if path := os.Getenv("FINAGENT_LOG_FILE_PATH"); path != "" {
		config.Logging.FilePath = path
	}
	if u := os.Getenv("FINAGENT_RAHAVARD_BASE_URL"); u != "" {
		config.Providers.RahavardBaseURL = u
	}
	if u := os.Getenv("FINAGENT_SAHAMYAB_BASE_URL"); u != "" {
		config.Providers.SahamyabBaseURL = u
	}
	if u := os.Getenv("FINAGENT_TAVILY_BASE_URL"); u != "" {
		config.Providers.TavilyBaseURL = u
	}
	if key := os.Getenv("FINAGENT_TAVILY_API_KEY"); key != "" {
		config.Providers.TavilyAPIKey = key
	}
	if u := os.Getenv("FINAGENT_RAPID_BASE_URL"); u != "" {
		config.Providers.RapidBaseURL = u
	}
	if host := os.Getenv("FINAGENT_RAPID_API_HOST"); host != "" {
		config.Providers.RapidAPIHost = host
	}
	if key := os.Getenv("FINAGENT_RAPID_API_KEY"); key != "" {
		config.Providers.RapidAPIKey = key
	}
	if u := os.Getenv("FINAGENT_PROXY_URL"); u != "" {
		config.Providers.ProxyURL = u
	}
	if provider := os.Getenv("FINAGENT_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}
	if model := os.Getenv("FINAGENT_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if tokens := os.Getenv("FINAGENT_LLM_MAX_TOKENS"); tokens != "" {
		if t, err := strconv.Atoi(tokens); err == nil {
			config.LLM.MaxTokens = t
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("FINAGENT_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("FINAGENT_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
func ApplyFlagOverrides(config *Config, host string, port int) {
	if host != "" {
		config.Server.Host = host
	}
	if port != 0 {
		config.Server.Port = port
	}
}

// Validate performs sanity checks on the resolved configuration.
func (c *Config) Validate() error {
	if c.Storage.Badger.Path == "" {
		return fmt.Errorf("storage.badger.path is required")
	}
	for _, raw := range []string{
		c.Providers.RahavardBaseURL,
		c.Providers.SahamyabBaseURL,
		c.Providers.TavilyBaseURL,
		c.Providers.RapidBaseURL,
	} {
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("invalid provider base URL %q: %w", raw, err)
		}
	}
	if c.Providers.ProxyURL != "" {
		if _, err := url.Parse(c.Providers.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", c.Providers.ProxyURL, err)
		}
	}
	switch c.LLM.DefaultProvider {
	case "", "claude", "gemini":
	default:
		return fmt.Errorf("unknown llm.default_provider %q", c.LLM.DefaultProvider)
	}
	return nil
}

// CrashDir returns the directory for crash reports: alongside the rotated
// log files, or ./logs when file logging is not configured.
func (c *Config) CrashDir() string {
	if c.Logging.FilePath == "" {
		return "./logs"
	}
	return filepath.Dir(c.Logging.FilePath)
}

// LLMTimeout returns the parsed LLM call timeout, falling back to two minutes.
func (c *Config) LLMTimeout() time.Duration {
	if d, err := time.ParseDuration(c.LLM.Timeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

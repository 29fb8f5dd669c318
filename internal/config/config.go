// Package config builds the run configuration from defaults, an optional
// .env file and the environment. It is constructed once in main and passed
// down explicitly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Generation settings
	LLMProvider      string // "gemini" or "openai"
	GeminiAPIKey     string
	GeminiModel      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	SystemPromptPath string

	// Sources
	SourcesPath  string
	NewsAPIKey   string
	LookbackDays int

	// Image enrichment
	MaxImageFetches   int
	PageFetchInterval time.Duration

	// Mail settings
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailTo      []string
	EmailFrom    string

	// Output
	OutputDir  string
	AtomExport bool

	// Timeouts, one per kind of network call
	FeedTimeout       time.Duration
	ProbeTimeout      time.Duration
	BridgeTimeout     time.Duration
	CommunityTimeout  time.Duration
	PageTimeout       time.Duration
	SearchTimeout     time.Duration
	GenerationTimeout time.Duration
	SMTPTimeout       time.Duration

	Debug bool
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LLMProvider:       ProviderGemini,
		LookbackDays:      7,
		MaxImageFetches:   15,
		PageFetchInterval: 250 * time.Millisecond,
		SMTPHost:          "smtp.gmail.com",
		SMTPPort:          587,
		OutputDir:         "output",
		FeedTimeout:       8 * time.Second,
		ProbeTimeout:      3 * time.Second,
		BridgeTimeout:     4 * time.Second,
		CommunityTimeout:  5 * time.Second,
		PageTimeout:       5 * time.Second,
		SearchTimeout:     10 * time.Second,
		GenerationTimeout: 180 * time.Second,
		SMTPTimeout:       30 * time.Second,
	}
}

// Load reads ./.env when present, then the environment.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	return FromEnv()
}

// LoadDotEnv exports the variables of path that are not already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// FromEnv applies environment variables over Default.
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.LLMProvider = strings.ToLower(getEnvOrDefault("LLM_PROVIDER", cfg.LLMProvider))
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = os.Getenv("GEMINI_MODEL")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = os.Getenv("OPENAI_MODEL")
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.SystemPromptPath = os.Getenv("SYSTEM_PROMPT_FILE")

	cfg.SourcesPath = os.Getenv("SOURCES_FILE")
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.LookbackDays = getEnvIntOrDefault("LOOKBACK_DAYS", cfg.LookbackDays)

	cfg.MaxImageFetches = getEnvIntOrDefault("MAX_IMAGE_FETCHES", cfg.MaxImageFetches)
	if v := os.Getenv("PAGE_FETCH_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.PageFetchInterval = time.Duration(ms) * time.Millisecond
		}
	}

	cfg.SMTPHost = getEnvOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvIntOrDefault("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.EmailTo = splitList(os.Getenv("EMAIL_TO"))
	cfg.EmailFrom = getEnvOrDefault("EMAIL_FROM", cfg.SMTPUser)

	cfg.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.OutputDir)
	cfg.AtomExport = os.Getenv("ATOM_EXPORT") == "true"

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// Lookback is the window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// MailEnabled reports whether username, password and recipient are all set.
func (c *Config) MailEnabled() bool {
	return c.SMTPUser != "" && c.SMTPPassword != "" && len(c.EmailTo) > 0
}

// GenerationKey returns the API key of the selected provider.
func (c *Config) GenerationKey() string {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func (c *Config) Validate() error {
	if c.LLMProvider != ProviderGemini && c.LLMProvider != ProviderOpenAI {
		return fmt.Errorf("LLM_PROVIDER must be 'gemini' or 'openai', got %q", c.LLMProvider)
	}
	if c.SMTPPort <= 0 {
		return fmt.Errorf("SMTP_PORT must be positive")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("LOOKBACK_DAYS must be positive")
	}
	if c.MaxImageFetches < 0 {
		return fmt.Errorf("MAX_IMAGE_FETCHES must not be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

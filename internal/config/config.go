// Package config loads and validates cfaprep settings.
//
// Values come from an optional YAML file, then CFAPREP_* environment
// variables, then the provider API key variables (ANTHROPIC_API_KEY,
// VOYAGE_API_KEY, OPENAI_API_KEY) when the file leaves them empty.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Log level constants
const (
	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Log type constants
const (
	LogTypeConsole = "console"
	LogTypeFile    = "file"
)

// Embedding providers
const (
	EmbeddingVoyage = "voyage"
	EmbeddingOpenAI = "openai"
)

// Chat webhook flavors
const (
	WebhookSlack   = "slack"
	WebhookDiscord = "discord"
)

// Config is the full application configuration
type Config struct {
	Server    ServerSettings    `mapstructure:"server"`
	Database  DatabaseSettings  `mapstructure:"database"`
	Logger    LoggerSettings    `mapstructure:"logger"`
	LLM       LLMSettings       `mapstructure:"llm"`
	Embedding EmbeddingSettings `mapstructure:"embedding"`
	RAG       RAGSettings       `mapstructure:"rag"`
	Billing   BillingSettings   `mapstructure:"billing"`
	Notify    NotifySettings    `mapstructure:"notify"`
}

// ServerSettings configures the HTTP API
type ServerSettings struct {
	Addr         string   `mapstructure:"addr" validate:"required"`
	AdminToken   string   `mapstructure:"admin_token"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseSettings points at the SQLite file
type DatabaseSettings struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LoggerSettings holds log level, type and rotation settings
type LoggerSettings struct {
	LogLevel   string `mapstructure:"log_level" validate:"required,oneof=debug info warning error"`
	LogType    string `mapstructure:"log_type" validate:"required,oneof=console file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// LLMSettings configures the completion API
type LLMSettings struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url" validate:"required,url"`
	Model       string  `mapstructure:"model" validate:"required"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gte=256,lte=64000"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=1"`
}

// EmbeddingSettings selects and configures the embeddings API
type EmbeddingSettings struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=voyage openai"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
}

// RAGSettings are the retrieval defaults
type RAGSettings struct {
	TopK         int     `mapstructure:"top_k" validate:"gte=1,lte=50"`
	MaxChars     int     `mapstructure:"max_chars" validate:"gte=500"`
	MinScore     float64 `mapstructure:"min_score" validate:"gte=0,lte=1"`
	ChunkSize    int     `mapstructure:"chunk_size" validate:"gte=200"`
	ChunkOverlap int     `mapstructure:"chunk_overlap" validate:"gte=0"`
}

// BillingSettings are the entitlement knobs
type BillingSettings struct {
	FreeDailyQuestions int `mapstructure:"free_daily_questions" validate:"gte=0"`
	FreeSampleSize     int `mapstructure:"free_sample_size" validate:"gte=0"`
	GracePeriodDays    int `mapstructure:"grace_period_days" validate:"gte=0"`
}

// NotifySettings configures the chat webhook
type NotifySettings struct {
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
	Flavor     string `mapstructure:"flavor" validate:"omitempty,oneof=slack discord"`
}

// Validate checks that all fields in LoggerSettings are valid
func (s *LoggerSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for LoggerSettings: %w", err)
	}

	if s.LogType == LogTypeFile {
		if s.FilePath == "" {
			return fmt.Errorf("file path is required for file logger")
		}
		if s.MaxSize < 1 || s.MaxSize > 100 {
			return fmt.Errorf("max size must be between 1 and 100 MB")
		}
		if s.MaxBackups < 1 || s.MaxBackups > 10 {
			return fmt.Errorf("max backups must be between 1 and 10")
		}
		if s.MaxAge < 1 || s.MaxAge > 365 {
			return fmt.Errorf("max age must be between 1 and 365 days")
		}
	}

	return nil
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed for Config: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("database.path", "cfaprep.db")

	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)
	v.SetDefault("logger.file_path", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)

	// Registered so AutomaticEnv can see them during Unmarshal.
	v.SetDefault("llm.api_key", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("notify.webhook_url", "")

	v.SetDefault("llm.base_url", "https://api.anthropic.com/v1/messages")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("embedding.provider", EmbeddingVoyage)

	v.SetDefault("rag.top_k", 5)
	v.SetDefault("rag.max_chars", 6000)
	v.SetDefault("rag.min_score", 0.0)
	v.SetDefault("rag.chunk_size", 1200)
	v.SetDefault("rag.chunk_overlap", 200)

	v.SetDefault("billing.free_daily_questions", 10)
	v.SetDefault("billing.free_sample_size", 20)
	v.SetDefault("billing.grace_period_days", 3)

	v.SetDefault("notify.flavor", WebhookSlack)
}

// Load reads configuration from path (may be empty) and the environment
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CFAPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyProviderEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyProviderEnv fills API keys from the providers' conventional variables
func applyProviderEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Embedding.APIKey == "" {
		switch cfg.Embedding.Provider {
		case EmbeddingVoyage:
			cfg.Embedding.APIKey = os.Getenv("VOYAGE_API_KEY")
		case EmbeddingOpenAI:
			cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

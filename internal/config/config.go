package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v        *viper.Viper
	modelDoc *ModelDoc
	// modelDocErr records why an optional model document was ignored so
	// startup can log it.
	modelDocErr error
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/llm-mail-labeler/")
	v.AddConfigPath("$HOME/.llm-mail-labeler")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_LABELER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return newFromViper(v), nil
}

// NewFromViper creates a new configuration instance from an existing Viper
// instance
func NewFromViper(v *viper.Viper) *Config {
	return newFromViper(v)
}

func newFromViper(v *viper.Viper) *Config {
	cfg := &Config{v: v}

	// An externalized model document, when present and parseable, wins
	// entirely over the per-provider model settings.
	if path := v.GetString("llm.model_config_path"); path != "" {
		doc, err := LoadModelDoc(path)
		if err != nil {
			cfg.modelDocErr = err
		} else {
			cfg.modelDoc = doc
		}
	}

	return cfg
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model_config_path", "")

	// Classifier document defaults
	v.SetDefault("classifier.config_path", "classifier_config.json")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.max_body_size", 4096)

	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("anthropic.max_tokens", 1000)
	v.SetDefault("anthropic.temperature", 0.0)
	v.SetDefault("anthropic.max_body_size", 4096)

	// OpenRouter defaults
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("openrouter.max_tokens", 1000)
	v.SetDefault("openrouter.temperature", 0.0)
	v.SetDefault("openrouter.max_body_size", 4096)

	// Ollama defaults
	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("ollama.model", "llama3")
	v.SetDefault("ollama.max_tokens", 1000)
	v.SetDefault("ollama.temperature", 0.0)
	v.SetDefault("ollama.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-5-sonnet-20241022-v2:0")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.0)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.max_body_size", 4096)

	// Mailbox defaults
	v.SetDefault("mailbox.type", "gmail")
	v.SetDefault("gmail.config_dir", "$HOME/.config/llm-mail-labeler")
	v.SetDefault("imap.address", "")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.use_xoauth2", false)
	v.SetDefault("imap.access_token", "")

	// State store defaults
	v.SetDefault("state.type", "file")
	v.SetDefault("state.file_path", ".email_state.json")
	v.SetDefault("state.sqlite_path", "/data/mail_labeler_state.db")
	v.SetDefault("state.mysql_dsn", "user:password@tcp(localhost:3306)/mail_labeler?parseTime=true")
	v.SetDefault("state.retention_days", 30)

	// Poll loop defaults
	v.SetDefault("poll.interval", "60s")
	v.SetDefault("poll.max_messages", 10)
	v.SetDefault("poll.archive_after_label", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

// ModelDocError reports why an externalized model document was ignored,
// nil when the document was absent or applied.
func (c *Config) ModelDocError() error {
	return c.modelDocErr
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ModelSettings are the generation parameters every provider shares.
type ModelSettings struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// LLMConfig represents the configuration for the LLM provider selection
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey string
	ModelSettings
	MaxBodySize int
}

// AnthropicConfig represents the configuration for the direct Anthropic API
type AnthropicConfig struct {
	APIKey string
	ModelSettings
	MaxBodySize int
}

// OpenRouterConfig represents the configuration for OpenRouter, an
// OpenAI-compatible aggregator
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	ModelSettings
	MaxBodySize int
}

// OllamaConfig represents the configuration for a local Ollama endpoint
// speaking the OpenAI-compatible API
type OllamaConfig struct {
	BaseURL string
	ModelSettings
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region string
	ModelSettings
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey string
	ModelSettings
	MaxBodySize int
}

// MailboxConfig selects and configures the mailbox backend
type MailboxConfig struct {
	Type string
}

// GmailConfig represents the Gmail API mailbox configuration
type GmailConfig struct {
	ConfigDir string
}

// IMAPConfig represents the IMAP mailbox configuration
type IMAPConfig struct {
	Address     string
	Username    string
	Password    string
	Mailbox     string
	UseXOAuth2  bool
	AccessToken string
}

// StateConfig selects and configures the state store backend
type StateConfig struct {
	Type          string
	FilePath      string
	SQLitePath    string
	MySQLDSN      string
	RetentionDays int
}

// PollConfig configures the poll cycle driver
type PollConfig struct {
	Interval          time.Duration
	MaxMessages       int
	ArchiveAfterLabel bool
}

// GetLLM returns the LLM provider selection
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// modelSettings reads the per-provider settings under prefix and applies
// the externalized model document when one was loaded. The document
// replaces all three fields; there is no per-field merge.
func (c *Config) modelSettings(prefix string, modelKey string) ModelSettings {
	ms := ModelSettings{
		Model:       c.GetString(prefix + "." + modelKey),
		Temperature: float32(c.GetFloat64(prefix + ".temperature")),
		MaxTokens:   c.GetInt(prefix + ".max_tokens"),
	}
	if c.modelDoc != nil {
		ms.Model = c.modelDoc.Model
		ms.Temperature = float32(c.modelDoc.Temperature)
		ms.MaxTokens = c.modelDoc.MaxTokens
	}
	return ms
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:        c.GetString("openai.api_key"),
		ModelSettings: c.modelSettings("openai", "model"),
		MaxBodySize:   c.GetInt("openai.max_body_size"),
	}
}

// GetAnthropic returns the direct Anthropic API configuration
func (c *Config) GetAnthropic() AnthropicConfig {
	return AnthropicConfig{
		APIKey:        c.GetString("anthropic.api_key"),
		ModelSettings: c.modelSettings("anthropic", "model"),
		MaxBodySize:   c.GetInt("anthropic.max_body_size"),
	}
}

// GetOpenRouter returns the OpenRouter configuration
func (c *Config) GetOpenRouter() OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:        c.GetString("openrouter.api_key"),
		BaseURL:       c.GetString("openrouter.base_url"),
		ModelSettings: c.modelSettings("openrouter", "model"),
		MaxBodySize:   c.GetInt("openrouter.max_body_size"),
	}
}

// GetOllama returns the Ollama configuration
func (c *Config) GetOllama() OllamaConfig {
	return OllamaConfig{
		BaseURL:       c.GetString("ollama.base_url"),
		ModelSettings: c.modelSettings("ollama", "model"),
		MaxBodySize:   c.GetInt("ollama.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:        c.GetString("bedrock.region"),
		ModelSettings: c.modelSettings("bedrock", "model_id"),
		MaxBodySize:   c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:        c.GetString("gemini.api_key"),
		ModelSettings: c.modelSettings("gemini", "model"),
		MaxBodySize:   c.GetInt("gemini.max_body_size"),
	}
}

// GetMailbox returns the mailbox backend selection
func (c *Config) GetMailbox() MailboxConfig {
	return MailboxConfig{
		Type: c.GetString("mailbox.type"),
	}
}

// GetGmail returns the Gmail mailbox configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		ConfigDir: os.ExpandEnv(c.GetString("gmail.config_dir")),
	}
}

// GetIMAP returns the IMAP mailbox configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Address:     c.GetString("imap.address"),
		Username:    c.GetString("imap.username"),
		Password:    c.GetString("imap.password"),
		Mailbox:     c.GetString("imap.mailbox"),
		UseXOAuth2:  c.GetBool("imap.use_xoauth2"),
		AccessToken: c.GetString("imap.access_token"),
	}
}

// GetState returns the state store configuration
func (c *Config) GetState() StateConfig {
	return StateConfig{
		Type:          c.GetString("state.type"),
		FilePath:      c.GetString("state.file_path"),
		SQLitePath:    c.GetString("state.sqlite_path"),
		MySQLDSN:      c.GetString("state.mysql_dsn"),
		RetentionDays: c.GetInt("state.retention_days"),
	}
}

// GetPoll returns the poll cycle configuration
func (c *Config) GetPoll() PollConfig {
	interval, err := c.GetDuration("poll.interval")
	if err != nil {
		interval = time.Minute
	}
	return PollConfig{
		Interval:          interval,
		MaxMessages:       c.GetInt("poll.max_messages"),
		ArchiveAfterLabel: c.GetBool("poll.archive_after_label"),
	}
}

// ClassifierDoc is the user-provided label taxonomy and classification
// prompt: {"labels": [...], "classification_prompt": "..."}
type ClassifierDoc struct {
	Labels               []string `json:"labels"`
	ClassificationPrompt string   `json:"classification_prompt"`
}

// LoadClassifierDoc reads and validates the classifier document at path.
func LoadClassifierDoc(path string) (*ClassifierDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier config %s: %w", path, err)
	}

	var doc ClassifierDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON in classifier config %s: %w", path, err)
	}
	if len(doc.Labels) == 0 {
		return nil, fmt.Errorf("classifier config %s: 'labels' must contain at least one label", path)
	}
	if doc.ClassificationPrompt == "" {
		return nil, fmt.Errorf("classifier config %s: 'classification_prompt' is required", path)
	}
	return &doc, nil
}

// ModelDoc is the optional externalized model configuration:
// {"model": "...", "temperature": 0.0, "max_tokens": 1000}
type ModelDoc struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// LoadModelDoc reads and validates the model document at path.
func LoadModelDoc(path string) (*ModelDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config %s: %w", path, err)
	}

	var doc ModelDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON in model config %s: %w", path, err)
	}
	if doc.Model == "" {
		return nil, fmt.Errorf("model config %s: 'model' is required", path)
	}
	if doc.Temperature < 0 || doc.Temperature > 2 {
		return nil, fmt.Errorf("model config %s: 'temperature' must be between 0 and 2", path)
	}
	if doc.MaxTokens <= 0 {
		return nil, fmt.Errorf("model config %s: 'max_tokens' must be greater than 0", path)
	}
	return &doc, nil
}

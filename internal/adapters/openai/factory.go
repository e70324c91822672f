package openai

import (
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates clients for the OpenAI-compatible backends
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateOpenAIClient creates a client against api.openai.com
func (f *Factory) CreateOpenAIClient() (core.LLMClient, error) {
	oaCfg := f.cfg.GetOpenAI()
	if oaCfg.APIKey == "" {
		return nil, &core.ConfigurationError{Reason: "openai.api_key is required for the openai provider"}
	}

	client := openai.NewClient(oaCfg.APIKey)
	return NewClient(client, "openai", oaCfg.Model, oaCfg.MaxTokens,
		oaCfg.Temperature, oaCfg.MaxBodySize, f.logger, f.textProcessor), nil
}

// CreateOpenRouterClient creates a client against the OpenRouter gateway
func (f *Factory) CreateOpenRouterClient() (core.LLMClient, error) {
	orCfg := f.cfg.GetOpenRouter()
	if orCfg.APIKey == "" {
		return nil, &core.ConfigurationError{Reason: "openrouter.api_key is required for the openrouter provider"}
	}

	clientCfg := openai.DefaultConfig(orCfg.APIKey)
	clientCfg.BaseURL = orCfg.BaseURL
	client := openai.NewClientWithConfig(clientCfg)
	return NewClient(client, "openrouter", orCfg.Model, orCfg.MaxTokens,
		orCfg.Temperature, orCfg.MaxBodySize, f.logger, f.textProcessor), nil
}

// CreateOllamaClient creates a client against a local Ollama endpoint
// speaking the OpenAI-compatible API
func (f *Factory) CreateOllamaClient() (core.LLMClient, error) {
	olCfg := f.cfg.GetOllama()
	if olCfg.BaseURL == "" {
		return nil, &core.ConfigurationError{Reason: "ollama.base_url is required for the ollama provider"}
	}

	// Ollama ignores the API key but the client requires one.
	clientCfg := openai.DefaultConfig("ollama")
	clientCfg.BaseURL = olCfg.BaseURL
	client := openai.NewClientWithConfig(clientCfg)
	return NewClient(client, "ollama", olCfg.Model, olCfg.MaxTokens,
		olCfg.Temperature, olCfg.MaxBodySize, f.logger, f.textProcessor), nil
}

package factory

import (
	"github.com/mikey/llm-mail-labeler/internal/adapters/anthropic"
	"github.com/mikey/llm-mail-labeler/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-labeler/internal/adapters/gemini"
	"github.com/mikey/llm-mail-labeler/internal/adapters/openai"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates the provider adapter selected by configuration.
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration.
// Unknown discriminators are an UnsupportedProviderError; a known provider
// with missing credentials is a ConfigurationError; a known provider whose
// runtime dependency cannot be resolved is a MissingDependencyError.
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	provider := f.cfg.GetLLM().Provider

	switch provider {
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateOpenAIClient()
	case "openrouter":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateOpenRouterClient()
	case "ollama":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateOllamaClient()
	case "anthropic":
		return anthropic.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	default:
		return nil, &core.UnsupportedProviderError{Name: provider}
	}
}

package gemini

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Factory creates Gemini clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new Gemini client
func (f *Factory) CreateClient() (core.LLMClient, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, &core.ConfigurationError{Reason: "gemini.api_key is required for the gemini provider"}
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(geminiCfg.APIKey))
	if err != nil {
		return nil, &core.MissingDependencyError{Provider: "gemini", Cause: err}
	}

	return NewClient(
		client,
		geminiCfg.Model,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Anthropic clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Anthropic factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new Anthropic client
func (f *Factory) CreateClient() (core.LLMClient, error) {
	aCfg := f.cfg.GetAnthropic()
	if aCfg.APIKey == "" {
		return nil, &core.ConfigurationError{Reason: "anthropic.api_key is required for the anthropic provider"}
	}

	client := anthropic.NewClient(option.WithAPIKey(aCfg.APIKey))
	return NewClient(
		client,
		aCfg.Model,
		aCfg.MaxTokens,
		aCfg.Temperature,
		aCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

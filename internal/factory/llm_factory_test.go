package factory

import (
	"errors"
	"testing"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"github.com/nalgeon/be"
	"go.uber.org/zap"
)

func newTestFactory(set func(v map[string]any)) *LLMFactory {
	v := config.NewEmptyViper()
	values := map[string]any{}
	set(values)
	for key, val := range values {
		v.Set(key, val)
	}
	cfg := config.NewFromViper(v)
	logger := zap.NewNop()
	return NewLLMFactory(cfg, logger, utils.NewTextProcessor(logger))
}

func TestCreateLLMClientUnknownProvider(t *testing.T) {
	f := newTestFactory(func(v map[string]any) {
		v["llm.provider"] = "clippy"
	})

	_, err := f.CreateLLMClient()
	var unsupported *core.UnsupportedProviderError
	be.True(t, errors.As(err, &unsupported))
	be.Equal(t, unsupported.Name, "clippy")
}

func TestCreateLLMClientMissingAPIKey(t *testing.T) {
	for _, provider := range []string{"openai", "openrouter", "anthropic", "gemini"} {
		t.Run(provider, func(t *testing.T) {
			f := newTestFactory(func(v map[string]any) {
				v["llm.provider"] = provider
			})

			_, err := f.CreateLLMClient()
			var confErr *core.ConfigurationError
			be.True(t, errors.As(err, &confErr))
		})
	}
}

func TestCreateLLMClientOpenAI(t *testing.T) {
	f := newTestFactory(func(v map[string]any) {
		v["llm.provider"] = "openai"
		v["openai.api_key"] = "sk-test"
	})

	client, err := f.CreateLLMClient()
	be.Err(t, err, nil)
	be.True(t, client != nil)
}

func TestCreateLLMClientAnthropic(t *testing.T) {
	f := newTestFactory(func(v map[string]any) {
		v["llm.provider"] = "anthropic"
		v["anthropic.api_key"] = "sk-ant-test"
	})

	client, err := f.CreateLLMClient()
	be.Err(t, err, nil)
	be.True(t, client != nil)
}

func TestCreateLLMClientOllamaNeedsNoKey(t *testing.T) {
	f := newTestFactory(func(v map[string]any) {
		v["llm.provider"] = "ollama"
	})

	client, err := f.CreateLLMClient()
	be.Err(t, err, nil)
	be.True(t, client != nil)
}

package openai

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client implements the LLMClient interface against any OpenAI-compatible
// chat completion endpoint. The same adapter serves OpenAI itself,
// OpenRouter and local Ollama; only the base URL and credentials differ.
type Client struct {
	client        *openai.Client
	provider      string
	model         string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClient creates a new client. provider names the backend in logs and
// classified errors ("openai", "openrouter", "ollama").
func NewClient(
	client *openai.Client,
	provider string,
	model string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Client {
	return &Client{
		client:        client,
		provider:      provider,
		model:         model,
		maxTokens:     maxTokens,
		temperature:   temperature,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify sends the classification prompt for one email and returns the
// raw model text. Label parsing is centralized in the core package.
func (c *Client) Classify(ctx context.Context, email *core.Email, labels *core.LabelSet) (string, error) {
	bounded := *email
	bounded.Body = c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	prompt := core.BuildClassificationPrompt(&bounded, labels)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: core.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &core.ProviderTransportError{Provider: c.provider, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &core.ProviderTransportError{
			Provider: c.provider,
			Cause:    fmt.Errorf("empty response for message %s", email.ID),
		}
	}

	c.logger.Debug("Received classification response",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.String("message_id", email.ID))

	return resp.Choices[0].Message.Content, nil
}

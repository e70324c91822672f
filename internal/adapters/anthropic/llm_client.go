package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"go.uber.org/zap"
)

// Client implements the LLMClient interface against the Anthropic
// Messages API directly, without going through Bedrock.
type Client struct {
	client        anthropic.Client
	model         string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClient creates a new Anthropic client
func NewClient(
	client anthropic.Client,
	model string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Client {
	return &Client{
		client:        client,
		model:         model,
		maxTokens:     maxTokens,
		temperature:   temperature,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify sends the classification prompt for one email and returns the
// raw model text.
func (c *Client) Classify(ctx context.Context, email *core.Email, labels *core.LabelSet) (string, error) {
	bounded := *email
	bounded.Body = c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	prompt := core.BuildClassificationPrompt(&bounded, labels)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(float64(c.temperature)),
		System: []anthropic.TextBlockParam{
			{Text: core.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", &core.ProviderTransportError{Provider: "anthropic", Cause: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &core.ProviderTransportError{
			Provider: "anthropic",
			Cause:    fmt.Errorf("empty response for message %s", email.ID),
		}
	}

	c.logger.Debug("Received classification response",
		zap.String("provider", "anthropic"),
		zap.String("model", c.model),
		zap.String("message_id", email.ID))

	return sb.String(), nil
}

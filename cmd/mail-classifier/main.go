package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/mikey/llm-mail-labeler/internal/logging"
	"github.com/mikey/llm-mail-labeler/internal/utils"
	"go.uber.org/zap"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (openai, openrouter, ollama, anthropic, bedrock, gemini)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.0, "Temperature for LLM generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum email body size to send to LLM")

	// OpenAI-compatible flags
	openaiAPIKey     = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName  = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")
	openrouterAPIKey = flag.String("openrouter-api-key", "", "API key for OpenRouter")
	openrouterModel  = flag.String("openrouter-model", "openai/gpt-4o-mini", "OpenRouter model name")
	ollamaBaseURL    = flag.String("ollama-base-url", "http://localhost:11434/v1", "Base URL for the Ollama OpenAI-compatible API")
	ollamaModel      = flag.String("ollama-model", "llama3.1", "Ollama model name")

	// Anthropic flags
	anthropicAPIKey = flag.String("anthropic-api-key", "", "API key for the direct Anthropic API")
	anthropicModel  = flag.String("anthropic-model", "claude-3-5-sonnet-20241022", "Anthropic model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-1.5-flash", "Gemini model name")

	// Classifier flags
	classifierConfig = flag.String("classifier-config", "classifier_config.json", "Path to the classifier labels/prompt document")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Load the label taxonomy
	docPath := *classifierConfig
	if *configFile != "" {
		docPath = cfg.GetString("classifier.config_path")
	}
	doc, err := config.LoadClassifierDoc(docPath)
	if err != nil {
		logger.Fatal("Failed to load classifier configuration", zap.Error(err))
	}
	labels := core.NewLabelSet(doc.Labels, doc.ClassificationPrompt)

	// Initialize LLM client
	textProcessor := utils.NewTextProcessor(logger)
	llmFactory := factory.NewLLMFactory(cfg, logger, textProcessor)
	llmClient, err := llmFactory.CreateLLMClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	from := msg.Header.Get("From")
	subject := msg.Header.Get("Subject")
	date, _ := msg.Header.Date()

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}

	email := &core.Email{
		ID:      msg.Header.Get("Message-Id"),
		Subject: subject,
		From:    from,
		Date:    date,
		Body:    string(bodyBytes),
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", from)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))
	fmt.Printf("\n")

	fmt.Printf("=== Classification ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetString("llm.provider"))
	fmt.Printf("Labels available: %s\n", strings.Join(labels.Labels(), ", "))

	startTime := time.Now()
	raw, err := llmClient.Classify(context.Background(), email, labels)
	if err != nil {
		logger.Fatal("Failed to classify email", zap.Error(err))
	}
	duration := time.Since(startTime)

	result, parseErr := core.ParseLabels(raw, labels)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	if errors.Is(parseErr, core.ErrUnparseableResponse) {
		fmt.Printf("Labels: (none, response was not parseable)\n")
	} else if result.Empty() {
		fmt.Printf("Labels: (none)\n")
	} else {
		fmt.Printf("Labels: %s\n", strings.Join(result.Labels, ", "))
	}
	fmt.Printf("Processing time: %v\n", duration)
	if *verbose {
		fmt.Printf("Raw response: %s\n", raw)
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)

	// Set provider-specific configuration
	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.max_body_size", *maxBodySize)
	case "openrouter":
		v.Set("openrouter.api_key", *openrouterAPIKey)
		v.Set("openrouter.model", *openrouterModel)
		v.Set("openrouter.max_tokens", *maxTokens)
		v.Set("openrouter.temperature", *temperature)
		v.Set("openrouter.max_body_size", *maxBodySize)
	case "ollama":
		v.Set("ollama.base_url", *ollamaBaseURL)
		v.Set("ollama.model", *ollamaModel)
		v.Set("ollama.max_tokens", *maxTokens)
		v.Set("ollama.temperature", *temperature)
		v.Set("ollama.max_body_size", *maxBodySize)
	case "anthropic":
		v.Set("anthropic.api_key", *anthropicAPIKey)
		v.Set("anthropic.model", *anthropicModel)
		v.Set("anthropic.max_tokens", *maxTokens)
		v.Set("anthropic.temperature", *temperature)
		v.Set("anthropic.max_body_size", *maxBodySize)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.max_body_size", *maxBodySize)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.max_body_size", *maxBodySize)
	}

	return config.NewFromViper(v)
}

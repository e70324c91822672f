package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/di"
	"github.com/mikey/llm-mail-labeler/internal/poller"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	p *poller.Poller,
	llmClient core.LLMClient,
	mailbox core.Mailbox,
	stateStore core.StateStore,
) error {
	defer logger.Sync()

	if err := cfg.ModelDocError(); err != nil {
		logger.Warn("Model configuration document ignored, using provider settings",
			zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
		cancel()
	}()

	err := p.Run(ctx)
	if err != nil && err != context.Canceled {
		logger.Error("Poll loop exited", zap.Error(err))
	}

	// Close any resources that need closing
	if err := stateStore.Close(); err != nil {
		logger.Error("Failed to close state store", zap.Error(err))
	}
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if closer, ok := mailbox.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close mailbox", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

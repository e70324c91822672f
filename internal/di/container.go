package di

import (
	"context"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"github.com/mikey/llm-mail-labeler/internal/factory"
	"github.com/mikey/llm-mail-labeler/internal/logging"
	"github.com/mikey/llm-mail-labeler/internal/poller"
	"github.com/mikey/llm-mail-labeler/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStateFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return nil, err
	}

	// Register label set from the classifier document
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*core.LabelSet, error) {
		path := cfg.GetString("classifier.config_path")
		doc, err := config.LoadClassifierDoc(path)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded classifier configuration",
			zap.String("path", path),
			zap.Strings("labels", doc.Labels))
		return core.NewLabelSet(doc.Labels, doc.ClassificationPrompt), nil
	}); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register state store
	if err := container.Provide(func(f *factory.StateFactory) (core.StateStore, error) {
		return f.CreateStateStore()
	}); err != nil {
		return nil, err
	}

	// Register mailbox
	if err := container.Provide(func(f *factory.MailboxFactory, labels *core.LabelSet) (core.Mailbox, error) {
		return f.CreateMailbox(context.Background(), labels)
	}); err != nil {
		return nil, err
	}

	// Register archive flag
	if err := container.Provide(func(cfg *config.Config) bool {
		return cfg.GetPoll().ArchiveAfterLabel
	}); err != nil {
		return nil, err
	}

	// Register classifier service
	if err := container.Provide(core.NewClassifierService); err != nil {
		return nil, err
	}

	// Register poll interval and batch size
	if err := container.Provide(func(cfg *config.Config) time.Duration {
		return cfg.GetPoll().Interval
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config) int {
		return cfg.GetPoll().MaxMessages
	}); err != nil {
		return nil, err
	}

	// Register poller
	if err := container.Provide(poller.New); err != nil {
		return nil, err
	}

	return container, nil
}

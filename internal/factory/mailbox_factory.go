package factory

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-labeler/internal/adapters/gmailapi"
	"github.com/mikey/llm-mail-labeler/internal/adapters/imapbox"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// MailboxFactory creates mailbox adapters based on configuration
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailbox creates a mailbox adapter based on the configuration. The
// Gmail adapter also bootstraps the configured labels so ApplyLabels can
// resolve names to label ids.
func (f *MailboxFactory) CreateMailbox(ctx context.Context, labels *core.LabelSet) (core.Mailbox, error) {
	mailboxCfg := f.cfg.GetMailbox()

	switch mailboxCfg.Type {
	case "gmail":
		gmailCfg := f.cfg.GetGmail()
		svc, err := gmailapi.NewService(ctx, gmailCfg.ConfigDir, f.logger)
		if err != nil {
			return nil, err
		}
		client := gmailapi.NewClient(svc, f.logger)
		if err := client.EnsureLabels(ctx, labels.Labels()); err != nil {
			return nil, fmt.Errorf("failed to bootstrap Gmail labels: %w", err)
		}
		return client, nil
	case "imap":
		return imapbox.Connect(f.cfg.GetIMAP(), f.logger)
	default:
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("unsupported mailbox type: %s", mailboxCfg.Type)}
	}
}

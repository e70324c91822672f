package poller

import (
	"context"
	"time"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// Poller drives the classification pipeline on a timer: prune expired
// state, list unread messages, run each through the orchestrator. A
// single-message failure is logged and never stops the loop; only
// context cancellation ends it.
type Poller struct {
	service     *core.ClassifierService
	mailbox     core.Mailbox
	state       core.StateStore
	logger      *zap.Logger
	interval    time.Duration
	maxMessages int
}

// New creates a poller.
func New(
	service *core.ClassifierService,
	mailbox core.Mailbox,
	state core.StateStore,
	logger *zap.Logger,
	interval time.Duration,
	maxMessages int,
) *Poller {
	return &Poller{
		service:     service,
		mailbox:     mailbox,
		state:       state,
		logger:      logger,
		interval:    interval,
		maxMessages: maxMessages,
	}
}

// Run polls until ctx is cancelled. The first cycle starts immediately.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Starting poll loop",
		zap.Duration("interval", p.interval),
		zap.Int("max_messages", p.maxMessages))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poll loop stopped")
			return ctx.Err()
		case <-ticker.C:
			p.RunCycle(ctx)
		}
	}
}

// RunCycle executes one poll cycle. Exported so the startup path and
// tests can run a cycle without the timer.
func (p *Poller) RunCycle(ctx context.Context) {
	if _, err := p.state.Prune(ctx, time.Now().UTC()); err != nil {
		p.logger.Error("Failed to prune state", zap.Error(err))
	}

	emails, err := p.mailbox.ListUnread(ctx, p.maxMessages)
	if err != nil {
		p.logger.Error("Failed to list unread messages", zap.Error(err))
		return
	}
	if len(emails) == 0 {
		p.logger.Debug("No unread messages")
		return
	}

	var labeled, skipped, failed int
	for _, email := range emails {
		if ctx.Err() != nil {
			return
		}
		outcome, err := p.service.ProcessMessage(ctx, email)
		switch outcome {
		case core.OutcomeLabeled:
			labeled++
		case core.OutcomeSkipped:
			skipped++
		case core.OutcomeFailed:
			failed++
			p.logger.Error("Message processing failed, will retry next cycle",
				zap.String("message_id", email.ID),
				zap.Bool("recoverable", core.IsRecoverable(err)),
				zap.Error(err))
		}
	}

	p.logger.Info("Poll cycle complete",
		zap.Int("listed", len(emails)),
		zap.Int("labeled", labeled),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed))
}

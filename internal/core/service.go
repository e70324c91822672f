package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ClassifierService coordinates the per-message pipeline: dedup check,
// provider call, parse/validate, label application, state update. It owns
// the state store exclusively; nothing else mutates it during a run.
type ClassifierService struct {
	llm     LLMClient
	mailbox Mailbox
	state   StateStore
	labels  *LabelSet
	logger  *zap.Logger
	archive bool
	now     func() time.Time
}

// NewClassifierService creates a new classifier service. When archive is
// true, messages that received at least one label are also archived.
func NewClassifierService(
	llm LLMClient,
	mailbox Mailbox,
	state StateStore,
	labels *LabelSet,
	logger *zap.Logger,
	archive bool,
) *ClassifierService {
	return &ClassifierService{
		llm:     llm,
		mailbox: mailbox,
		state:   state,
		labels:  labels,
		logger:  logger,
		archive: archive,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ProcessMessage runs one message through the pipeline and returns its
// terminal outcome. Recoverable errors come back alongside OutcomeFailed
// and leave the message unmarked so the next poll cycle retries it; a
// provider call is only ever billed after the dedup check passes.
func (s *ClassifierService) ProcessMessage(ctx context.Context, email *Email) (Outcome, error) {
	processed, err := s.state.IsProcessed(ctx, email.ID)
	if err != nil {
		// A failed read is treated as a miss; the message classifies
		// again rather than silently dropping.
		s.logger.Warn("State lookup failed, treating as unprocessed",
			zap.String("message_id", email.ID),
			zap.Error(err))
	}
	if processed {
		s.logger.Debug("Skipping already processed message",
			zap.String("message_id", email.ID),
			zap.String("subject", truncateForLog(email.Subject)))
		return OutcomeSkipped, nil
	}

	raw, err := s.llm.Classify(ctx, email, s.labels)
	if err != nil {
		return OutcomeFailed, err
	}

	result, parseErr := ParseLabels(raw, s.labels)
	if parseErr != nil {
		// The provider call is already paid for, so the message is
		// still marked processed below with an empty result.
		s.logger.Warn("Could not parse model response",
			zap.String("message_id", email.ID),
			zap.Error(parseErr))
	}

	if !result.Empty() {
		if err := s.mailbox.ApplyLabels(ctx, email.ID, result.Labels); err != nil {
			return OutcomeFailed, &MailboxApplicationError{MessageID: email.ID, Cause: err}
		}
		if s.archive {
			if err := s.mailbox.Archive(ctx, email.ID); err != nil {
				return OutcomeFailed, &MailboxApplicationError{MessageID: email.ID, Cause: err}
			}
		}
		s.logger.Info("Applied labels",
			zap.String("message_id", email.ID),
			zap.Strings("labels", result.Labels),
			zap.Bool("archived", s.archive),
			zap.String("subject", truncateForLog(email.Subject)))
	} else {
		s.logger.Info("No labels predicted",
			zap.String("message_id", email.ID),
			zap.String("subject", truncateForLog(email.Subject)))
	}

	if err := s.state.MarkProcessed(ctx, email.ID, s.now()); err != nil {
		// The message stays eligible for retry; one duplicate provider
		// call is the accepted worst case here.
		return OutcomeFailed, err
	}

	return OutcomeLabeled, nil
}

// IsRecoverable reports whether an error from ProcessMessage is one of
// the retryable classes as opposed to a configuration problem.
func IsRecoverable(err error) bool {
	var transport *ProviderTransportError
	var mailbox *MailboxApplicationError
	return errors.As(err, &transport) || errors.As(err, &mailbox)
}

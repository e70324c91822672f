package core

import (
	"context"
	"time"
)

// LLMClient defines the single classification capability every provider
// adapter implements. Classify returns the raw model text; label parsing
// and validation are centralized in ParseLabels so every provider gets
// identical validation semantics.
type LLMClient interface {
	Classify(ctx context.Context, email *Email, labels *LabelSet) (string, error)
}

// Mailbox defines the narrow mailbox surface the classifier needs.
type Mailbox interface {
	// ListUnread returns up to max unread messages.
	ListUnread(ctx context.Context, max int) ([]*Email, error)

	// ApplyLabels attaches the named labels to a message.
	ApplyLabels(ctx context.Context, messageID string, labels []string) error

	// Archive removes a message from the inbox.
	Archive(ctx context.Context, messageID string) error
}

// StateStore is the durable record of which messages have already been
// classified. Implementations flush every mutation before returning so a
// crash never causes a message to be billed twice beyond the one in flight.
type StateStore interface {
	// IsProcessed reports whether the id has been processed within the
	// retention window.
	IsProcessed(ctx context.Context, id string) (bool, error)

	// MarkProcessed records the id as processed at the given time.
	// Calling it again for the same id is an update, not an error.
	MarkProcessed(ctx context.Context, id string, now time.Time) error

	// Prune removes entries older than the retention window and returns
	// how many were removed. A zero retention disables pruning.
	Prune(ctx context.Context, now time.Time) (int, error)

	// Close releases any underlying resources.
	Close() error
}

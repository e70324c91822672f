package core

import (
	"strings"
	"time"
)

// Email represents a single mailbox message as seen by the classifier.
// The mailbox adapter owns the message; the core never mutates it.
type Email struct {
	ID      string
	Subject string
	From    string
	Date    time.Time
	Snippet string
	Body    string
}

// LabelSet holds the configured label taxonomy and classification prompt.
// It is built once at startup and treated as immutable for the run.
type LabelSet struct {
	labels    []string
	canonical map[string]string
	prompt    string
}

// NewLabelSet creates a label set from the configured label names and prompt.
// Canonical casing is preserved; lookups are case-insensitive.
func NewLabelSet(labels []string, prompt string) *LabelSet {
	canonical := make(map[string]string, len(labels))
	for _, l := range labels {
		canonical[strings.ToLower(l)] = l
	}
	return &LabelSet{
		labels:    append([]string(nil), labels...),
		canonical: canonical,
		prompt:    prompt,
	}
}

// Labels returns the configured label names in canonical form and order.
func (ls *LabelSet) Labels() []string {
	return append([]string(nil), ls.labels...)
}

// Prompt returns the classification instructions.
func (ls *LabelSet) Prompt() string {
	return ls.prompt
}

// Canonical resolves a label name case-insensitively to its configured
// casing. The second return is false when the name is not in the taxonomy.
func (ls *LabelSet) Canonical(name string) (string, bool) {
	c, ok := ls.canonical[strings.ToLower(name)]
	return c, ok
}

// Len returns the number of configured labels.
func (ls *LabelSet) Len() int {
	return len(ls.labels)
}

// ClassificationResult is the validated outcome of classifying one message:
// a deduplicated subset of the configured labels in canonical casing. An
// empty Labels slice is a valid "no labels apply" outcome.
type ClassificationResult struct {
	Labels []string
}

// Empty reports whether no labels were assigned.
func (r ClassificationResult) Empty() bool {
	return len(r.Labels) == 0
}

// Outcome is the terminal state of processing one message.
type Outcome int

const (
	// OutcomeSkipped means the message was already processed and no
	// provider call was made.
	OutcomeSkipped Outcome = iota
	// OutcomeLabeled means the message was classified and marked
	// processed. The label set applied may be empty.
	OutcomeLabeled
	// OutcomeFailed means a recoverable error occurred and the message
	// was left unmarked so a later poll cycle retries it.
	OutcomeFailed
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeLabeled:
		return "labeled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

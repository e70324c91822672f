package core

import (
	"errors"
	"fmt"
)

// ErrUnparseableResponse signals that no usable JSON could be extracted
// from a model response. The pipeline degrades to an empty result; the
// sentinel only exists so callers can log the failure class.
var ErrUnparseableResponse = errors.New("unparseable model response")

// ConfigurationError indicates invalid or missing configuration such as an
// absent API key or a malformed classifier document. Fatal at startup.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// UnsupportedProviderError is returned by the provider factory for an
// unknown provider discriminator.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported LLM provider: %s", e.Name)
}

// MissingDependencyError indicates a backend's runtime dependency could not
// be resolved (AWS credential chain, OAuth token files, a local endpoint).
// Fatal only for that provider selection.
type MissingDependencyError struct {
	Provider string
	Cause    error
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("provider %s dependency unavailable: %v", e.Provider, e.Cause)
}

func (e *MissingDependencyError) Unwrap() error {
	return e.Cause
}

// ProviderTransportError wraps network, auth and rate-limit failures from a
// classify call. The message is left unmarked and retried next cycle.
type ProviderTransportError struct {
	Provider string
	Cause    error
}

func (e *ProviderTransportError) Error() string {
	return fmt.Sprintf("provider %s call failed: %v", e.Provider, e.Cause)
}

func (e *ProviderTransportError) Unwrap() error {
	return e.Cause
}

// MailboxApplicationError wraps a failed label application or archive. The
// message is left unmarked and retried next cycle.
type MailboxApplicationError struct {
	MessageID string
	Cause     error
}

func (e *MailboxApplicationError) Error() string {
	return fmt.Sprintf("mailbox update for message %s failed: %v", e.MessageID, e.Cause)
}

func (e *MailboxApplicationError) Unwrap() error {
	return e.Cause
}

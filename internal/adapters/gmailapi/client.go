package gmailapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"

	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
)

// Client implements the Mailbox interface against the Gmail API. Label
// names are resolved to Gmail label ids through a cache filled by
// EnsureLabels at startup.
type Client struct {
	svc      *gmail.Service
	logger   *zap.Logger
	labelIDs map[string]string
}

// NewClient wraps an authenticated Gmail service.
func NewClient(svc *gmail.Service, logger *zap.Logger) *Client {
	return &Client{
		svc:      svc,
		logger:   logger,
		labelIDs: make(map[string]string),
	}
}

// EnsureLabels creates every configured label that does not exist yet and
// caches the name to id mapping for ApplyLabels.
func (c *Client) EnsureLabels(ctx context.Context, names []string) error {
	resp, err := c.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to list Gmail labels: %w", err)
	}
	existing := make(map[string]string, len(resp.Labels))
	for _, l := range resp.Labels {
		existing[l.Name] = l.Id
	}

	for _, name := range names {
		if id, ok := existing[name]; ok {
			c.labelIDs[name] = id
			continue
		}
		created, err := c.svc.Users.Labels.Create("me", &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create label %q: %w", name, err)
		}
		c.labelIDs[name] = created.Id
		c.logger.Info("Created Gmail label", zap.String("label", name))
	}
	return nil
}

// ListUnread returns up to max unread inbox messages with subject, sender,
// date and a text body.
func (c *Client) ListUnread(ctx context.Context, max int) ([]*core.Email, error) {
	resp, err := c.svc.Users.Messages.List("me").
		LabelIds("INBOX", "UNREAD").
		MaxResults(int64(max)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	emails := make([]*core.Email, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg, err := c.svc.Users.Messages.Get("me", m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			c.logger.Warn("Failed to fetch message details, skipping",
				zap.String("message_id", m.Id),
				zap.Error(err))
			continue
		}
		emails = append(emails, messageToEmail(msg))
	}
	return emails, nil
}

// ApplyLabels attaches the named labels to a message. Names must have been
// registered through EnsureLabels.
func (c *Client) ApplyLabels(ctx context.Context, messageID string, labels []string) error {
	ids := make([]string, 0, len(labels))
	for _, name := range labels {
		id, ok := c.labelIDs[name]
		if !ok {
			return fmt.Errorf("label %q has no Gmail label id", name)
		}
		ids = append(ids, id)
	}

	_, err := c.svc.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: ids,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to apply labels to message %s: %w", messageID, err)
	}
	return nil
}

// Archive removes a message from the inbox.
func (c *Client) Archive(ctx context.Context, messageID string) error {
	_, err := c.svc.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to archive message %s: %w", messageID, err)
	}
	return nil
}

func messageToEmail(msg *gmail.Message) *core.Email {
	email := &core.Email{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.Payload == nil {
		return email
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			email.Subject = h.Value
		case "From":
			email.From = h.Value
		case "Date":
			if t, err := mail.ParseDate(h.Value); err == nil {
				email.Date = t
			}
		}
	}
	email.Body = extractBody(msg.Payload)
	return email
}

// extractBody walks the MIME tree, preferring text/plain parts.
func extractBody(payload *gmail.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" &&
		(payload.MimeType == "text/plain" || !strings.HasPrefix(payload.MimeType, "multipart/")) {
		return decodeBody(payload.Body.Data)
	}

	// First pass: direct text/plain parts.
	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
	}
	// Second pass: nested multiparts.
	for _, part := range payload.Parts {
		if strings.HasPrefix(part.MimeType, "multipart/") {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}
	// Fall back to text/html when no plain part exists.
	for _, part := range payload.Parts {
		if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

package imapbox

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// Client implements the Mailbox interface over plain IMAP for accounts
// without a Gmail-style label API. Labels are stored as IMAP keyword
// flags; archiving moves the message to the Archive mailbox.
type Client struct {
	conn    *client.Client
	mailbox string
	logger  *zap.Logger
}

const archiveMailbox = "Archive"

// Connect dials the configured IMAP server over TLS and authenticates
// with SASL OAUTHBEARER when a token is configured, Login otherwise.
func Connect(cfg config.IMAPConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Address == "" || cfg.Username == "" {
		return nil, &core.ConfigurationError{Reason: "imap.address and imap.username are required for the imap mailbox"}
	}

	conn, err := client.DialTLS(cfg.Address, nil)
	if err != nil {
		return nil, &core.MissingDependencyError{Provider: "imap", Cause: fmt.Errorf("dial %s: %w", cfg.Address, err)}
	}

	if cfg.UseXOAuth2 {
		host := cfg.Address
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth := sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: cfg.Username,
			Token:    cfg.AccessToken,
			Host:     host,
		})
		err = conn.Authenticate(auth)
	} else {
		err = conn.Login(cfg.Username, cfg.Password)
	}
	if err != nil {
		conn.Logout()
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("IMAP authentication failed for %s: %v", cfg.Username, err)}
	}

	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &Client{conn: conn, mailbox: mailbox, logger: logger}, nil
}

// ListUnread returns up to max unseen messages from the configured
// mailbox. The stable message identifier is the Message-Id header.
func (c *Client) ListUnread(ctx context.Context, max int) ([]*core.Email, error) {
	if _, err := c.conn.Select(c.mailbox, false); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %q: %w", c.mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.conn.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search unseen messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.conn.UidFetch(seqSet, items, messages)
	}()

	var emails []*core.Email
	for msg := range messages {
		email := c.fetchedToEmail(msg, section)
		if email != nil {
			emails = append(emails, email)
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return emails, nil
}

func (c *Client) fetchedToEmail(msg *imap.Message, section *imap.BodySectionName) *core.Email {
	if msg.Envelope == nil {
		return nil
	}
	id := msg.Envelope.MessageId
	if id == "" {
		id = fmt.Sprintf("uid:%d", msg.Uid)
	}
	email := &core.Email{
		ID:      id,
		Subject: msg.Envelope.Subject,
		Date:    msg.Envelope.Date,
	}
	if len(msg.Envelope.From) > 0 {
		email.From = msg.Envelope.From[0].Address()
	}

	body := msg.GetBody(section)
	if body == nil {
		return email
	}
	parsed, err := mail.ReadMessage(body)
	if err != nil {
		c.logger.Warn("Failed to parse message body",
			zap.String("message_id", id),
			zap.Error(err))
		return email
	}
	text, err := extractTextFromMessage(parsed)
	if err == nil {
		email.Body = text
	}
	return email
}

// ApplyLabels stores the label names as keyword flags on the message.
func (c *Client) ApplyLabels(ctx context.Context, messageID string, labels []string) error {
	seqSet, err := c.resolveMessage(messageID)
	if err != nil {
		return err
	}

	flags := make([]any, 0, len(labels))
	for _, l := range labels {
		// IMAP keywords cannot contain spaces.
		flags = append(flags, strings.ReplaceAll(l, " ", "_"))
	}
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.conn.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("failed to store keyword flags on %s: %w", messageID, err)
	}
	return nil
}

// Archive moves the message to the Archive mailbox, falling back to
// copy plus delete when the server lacks MOVE.
func (c *Client) Archive(ctx context.Context, messageID string) error {
	seqSet, err := c.resolveMessage(messageID)
	if err != nil {
		return err
	}
	if err := c.conn.UidMove(seqSet, archiveMailbox); err == nil {
		return nil
	}
	if err := c.conn.UidCopy(seqSet, archiveMailbox); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", messageID, archiveMailbox, err)
	}
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.conn.UidStore(seqSet, item, []any{imap.DeletedFlag}, nil); err != nil {
		return fmt.Errorf("failed to flag %s deleted: %w", messageID, err)
	}
	if err := c.conn.Expunge(nil); err != nil {
		return fmt.Errorf("failed to expunge after archiving %s: %w", messageID, err)
	}
	return nil
}

// resolveMessage finds the UID for a Message-Id header value.
func (c *Client) resolveMessage(messageID string) (*imap.SeqSet, error) {
	if _, err := c.conn.Select(c.mailbox, false); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %q: %w", c.mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Set("Message-Id", messageID)
	uids, err := c.conn.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve message %s: %w", messageID, err)
	}
	if len(uids) == 0 {
		return nil, fmt.Errorf("message %s not found in %s", messageID, c.mailbox)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	return seqSet, nil
}

// Close logs out from the server.
func (c *Client) Close() error {
	return c.conn.Logout()
}

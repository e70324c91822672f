package core

import (
	"fmt"
	"strings"
)

// promptFormat is shared by every provider adapter so the model sees the
// same instructions regardless of backend.
const promptFormat = `%s

Available labels: %s

Email to classify:
%s

Respond with ONLY a JSON object containing a "labels" array with the applicable label names. Example: {"labels": ["Work", "Urgent"]}
Do not include any other text or explanation.`

const emailContentFormat = `Subject: %s
From: %s
Date: %s

Body:
%s`

// BuildClassificationPrompt composes the full prompt sent to a provider:
// the configured instructions, the allowed taxonomy and the email content.
func BuildClassificationPrompt(email *Email, labels *LabelSet) string {
	return fmt.Sprintf(promptFormat,
		labels.Prompt(),
		strings.Join(labels.Labels(), ", "),
		buildEmailContent(email))
}

// SystemPrompt is the system-role instruction used by chat-style backends.
const SystemPrompt = "You are an email classification assistant. Respond only with valid JSON."

func buildEmailContent(email *Email) string {
	subject := email.Subject
	if subject == "" {
		subject = "No Subject"
	}
	from := email.From
	if from == "" {
		from = "Unknown"
	}
	date := "Unknown"
	if !email.Date.IsZero() {
		date = email.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700")
	}
	body := email.Body
	if body == "" {
		body = email.Snippet
	}
	if body == "" {
		body = "No content"
	}
	return fmt.Sprintf(emailContentFormat, subject, from, date, body)
}

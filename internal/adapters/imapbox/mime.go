package imapbox

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// extractTextFromMessage extracts the text content from a raw message.
// For multipart messages it prefers text/plain parts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mr := multipart.NewReader(msg.Body, boundary)
	var textParts bytes.Buffer
	var htmlFallback bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		partType := part.Header.Get("Content-Type")
		switch {
		case strings.Contains(partType, "text/plain"):
			io.Copy(&textParts, part)
			textParts.WriteString("\n")
		case strings.Contains(partType, "text/html") && textParts.Len() == 0:
			io.Copy(&htmlFallback, part)
		}
	}

	if textParts.Len() > 0 {
		return textParts.String(), nil
	}
	return htmlFallback.String(), nil
}

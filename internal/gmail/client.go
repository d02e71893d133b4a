package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail Users service.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client using the given OAuth-authenticated
// HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// ListMessages returns message summaries matching a Gmail search
// query ("from:jane is:unread"). An empty query lists the most recent
// messages.
func (c *Client) ListMessages(ctx context.Context, query string, maxResults int64) ([]MessageSummary, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	call := c.svc.Messages.List("me").MaxResults(maxResults).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	summaries := make([]MessageSummary, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		msg, err := c.svc.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}
		summaries = append(summaries, summarize(msg))
	}
	return summaries, nil
}

// GetMessage returns a message with its decoded body. The plain-text
// part is preferred; HTML is a fallback for messages without one.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*MessageDetail, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}

	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	detail := &MessageDetail{
		MessageSummary: summarize(msg),
		Cc:             headerValue(msg, "Cc"),
		Body:           extractBody(msg.Payload),
	}
	return detail, nil
}

// SendEmail sends an email and returns the sent message ID.
func (c *Client) SendEmail(ctx context.Context, msg *EmailMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if msg.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if msg.Body == "" {
		return "", fmt.Errorf("body is required")
	}

	raw := buildRawMessage(msg)
	sent, err := c.svc.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// ForwardEmail forwards an existing message, optionally prefixed with
// a note. Returns the sent message ID.
func (c *Client) ForwardEmail(ctx context.Context, messageID string, to, cc, bcc []string, note string, isHTML bool) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("messageID is required")
	}
	if len(to) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	original, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return "", fmt.Errorf("failed to get original message: %w", err)
	}

	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "fwd:") {
		subject = "Fwd: " + subject
	}

	var body strings.Builder
	if note != "" {
		body.WriteString(note)
		if isHTML {
			body.WriteString("<br><br>")
		} else {
			body.WriteString("\n\n")
		}
	}
	if isHTML {
		body.WriteString("---------- Forwarded message ----------<br>")
		fmt.Fprintf(&body, "From: %s<br>Date: %s<br>Subject: %s<br><br>",
			original.From, original.Date, original.Subject)
	} else {
		body.WriteString("---------- Forwarded message ----------\n")
		fmt.Fprintf(&body, "From: %s\nDate: %s\nSubject: %s\n\n",
			original.From, original.Date, original.Subject)
	}
	body.WriteString(original.Body)

	forward := &EmailMessage{
		To:      to,
		Cc:      cc,
		Bcc:     bcc,
		Subject: subject,
		Body:    body.String(),
		IsHTML:  isHTML,
	}
	raw := buildRawMessage(forward)
	sent, err := c.svc.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to forward email: %w", err)
	}
	return sent.Id, nil
}

// buildRawMessage assembles an RFC 2822 message and base64url-encodes
// it for the Gmail API.
func buildRawMessage(msg *EmailMessage) string {
	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(strings.Join(msg.To, ", "))
	b.WriteString("\r\n")

	if len(msg.Cc) > 0 {
		b.WriteString("Cc: ")
		b.WriteString(strings.Join(msg.Cc, ", "))
		b.WriteString("\r\n")
	}
	if len(msg.Bcc) > 0 {
		b.WriteString("Bcc: ")
		b.WriteString(strings.Join(msg.Bcc, ", "))
		b.WriteString("\r\n")
	}

	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")

	if msg.IsHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// encodeRFC2047 encodes a header value when it contains non-ASCII
// characters (German umlauts, for example).
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

func summarize(msg *gmail.Message) MessageSummary {
	summary := MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		From:     headerValue(msg, "From"),
		To:       headerValue(msg, "To"),
		Subject:  headerValue(msg, "Subject"),
		Date:     headerValue(msg, "Date"),
		Snippet:  msg.Snippet,
	}
	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			summary.Unread = true
			break
		}
	}
	return summary
}

// headerValue returns a header from the message payload, or "".
func headerValue(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody walks the MIME tree for the message text, preferring
// text/plain over text/html.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if body := findPart(payload, "text/plain"); body != "" {
		return body
	}
	return findPart(payload, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

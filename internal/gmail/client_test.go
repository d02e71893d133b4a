package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func TestBuildRawMessage(t *testing.T) {
	msg := &EmailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		Cc:      []string{"c@example.com"},
		Subject: "Quarterly report",
		Body:    "Please find the report attached.",
	}

	raw := buildRawMessage(msg)
	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	text := string(decoded)

	assert.Contains(t, text, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, text, "Cc: c@example.com\r\n")
	assert.NotContains(t, text, "Bcc:")
	assert.Contains(t, text, "Subject: Quarterly report\r\n")
	assert.Contains(t, text, "Content-Type: text/plain")
	assert.True(t, strings.HasSuffix(text, "\r\n\r\nPlease find the report attached."))
}

func TestBuildRawMessageHTML(t *testing.T) {
	msg := &EmailMessage{
		To:      []string{"a@example.com"},
		Subject: "Hello",
		Body:    "<p>Hi</p>",
		IsHTML:  true,
	}

	decoded, err := base64.URLEncoding.DecodeString(buildRawMessage(msg))
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Content-Type: text/html")
}

func TestEncodeRFC2047(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ascii unchanged", "Meeting tomorrow", "Meeting tomorrow"},
		{"empty", "", ""},
		{"umlauts encoded", "Grüße aus München", "=?UTF-8?b?R3LDvMOfZSBhdXMgTcO8bmNoZW4=?="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeRFC2047(tt.input))
		})
	}
}

func TestHeaderValue(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "jane@example.com"},
				{Name: "Subject", Value: "Hi"},
			},
		},
	}

	assert.Equal(t, "jane@example.com", headerValue(msg, "From"))
	assert.Equal(t, "jane@example.com", headerValue(msg, "from"))
	assert.Equal(t, "", headerValue(msg, "Cc"))
	assert.Equal(t, "", headerValue(&gmail.Message{}, "From"))
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	encode := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encode("<p>hi</p>")},
			},
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encode("hi")},
			},
		},
	}

	assert.Equal(t, "hi", extractBody(payload))
}

func TestExtractBodyFallsBackToHTML(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/html",
		Body: &gmail.MessagePartBody{
			Data: base64.URLEncoding.EncodeToString([]byte("<p>only html</p>")),
		},
	}

	assert.Equal(t, "<p>only html</p>", extractBody(payload))
	assert.Equal(t, "", extractBody(nil))
}

func TestSummarizeUnread(t *testing.T) {
	msg := &gmail.Message{
		Id:       "m1",
		ThreadId: "t1",
		LabelIds: []string{"INBOX", "UNREAD"},
		Snippet:  "preview",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "jane@example.com"},
				{Name: "Subject", Value: "Hi"},
			},
		},
	}

	summary := summarize(msg)
	assert.Equal(t, "m1", summary.ID)
	assert.True(t, summary.Unread)
	assert.Equal(t, "Hi", summary.Subject)
	assert.Equal(t, "preview", summary.Snippet)
}

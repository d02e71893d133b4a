package safe_tools

import (
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwolter/workspace-mcp/internal/contacts"
)

func TestSplitEmails(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "a@example.com", []string{"a@example.com"}},
		{"multiple with spaces", " a@example.com , b@example.com ", []string{"a@example.com", "b@example.com"}},
		{"trailing comma", "a@example.com,", []string{"a@example.com"}},
		{"only whitespace", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitEmails(tt.raw))
		})
	}
}

func TestParseEventParams(t *testing.T) {
	args := map[string]interface{}{
		"summary":   "Team sync",
		"start":     "2026-09-01T14:00:00Z",
		"end":       "2026-09-01T15:00:00Z",
		"location":  "Room 4",
		"attendees": "Spencer Varney, sarah@example.com",
		"addMeet":   true,
	}

	params, attendees, errResult := parseEventParams(args)
	require.Nil(t, errResult)
	assert.Equal(t, "Team sync", params.Summary)
	assert.Equal(t, "Room 4", params.Location)
	assert.True(t, params.AddMeet)
	assert.Equal(t, time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC), params.Start.UTC())
	assert.Equal(t, "Spencer Varney, sarah@example.com", attendees)
}

func TestParseEventParams_Validation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing summary", map[string]interface{}{"start": "2026-09-01T14:00:00Z", "end": "2026-09-01T15:00:00Z"}},
		{"missing start", map[string]interface{}{"summary": "x", "end": "2026-09-01T15:00:00Z"}},
		{"bad start", map[string]interface{}{"summary": "x", "start": "tomorrow", "end": "2026-09-01T15:00:00Z"}},
		{"missing end", map[string]interface{}{"summary": "x", "start": "2026-09-01T14:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errResult := parseEventParams(tt.args)
			require.NotNil(t, errResult)
			assert.True(t, errResult.IsError)
		})
	}
}

func TestResolutionFailure_BatchDetail(t *testing.T) {
	err := &contacts.BatchError{Failures: []error{
		&contacts.AmbiguousError{
			Ref: "Sarah",
			Candidates: []contacts.Candidate{
				{DisplayName: "Sarah Chen", Email: "sarah.chen@example.com"},
				{DisplayName: "Sarah Jones", Email: "sarah.jones@example.com", Organization: "Acme"},
			},
		},
		&contacts.NotFoundError{Ref: "UnknownPerson123"},
	}}

	result := resolutionFailure(err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, `"Sarah" is ambiguous`)
	assert.Contains(t, text.Text, "sarah.chen@example.com")
	assert.Contains(t, text.Text, "Acme")
	assert.Contains(t, text.Text, "UnknownPerson123")
	assert.Contains(t, text.Text, "nothing was staged")
}

func TestResolutionFailure_PlainError(t *testing.T) {
	result := resolutionFailure(errors.New("network down"))
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Equal(t, "network down", text.Text)
}

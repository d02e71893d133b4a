package gateway

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwolter/workspace-mcp/internal/calendar"
	"github.com/mwolter/workspace-mcp/internal/contacts"
	"github.com/mwolter/workspace-mcp/internal/drive"
	"github.com/mwolter/workspace-mcp/internal/gmail"
	"github.com/mwolter/workspace-mcp/internal/pending"
)

// fakeResolver maps known names to emails and fails everything else.
type fakeResolver struct {
	known map[string]string
}

func (f *fakeResolver) ResolveEmails(ctx context.Context, refs []string) ([]string, error) {
	var emails []string
	var failures []error
	for _, ref := range refs {
		if contacts.IsEmailAddress(ref) {
			emails = append(emails, ref)
			continue
		}
		if email, ok := f.known[ref]; ok {
			emails = append(emails, email)
			continue
		}
		failures = append(failures, &contacts.NotFoundError{Ref: ref})
	}
	if len(failures) > 0 {
		return nil, &contacts.BatchError{Failures: failures}
	}
	return emails, nil
}

type fakeMail struct {
	sent []*gmail.EmailMessage
	err  error
}

func (f *fakeMail) SendEmail(ctx context.Context, msg *gmail.EmailMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

type fakeFiles struct {
	shares []*drive.ShareOptions
}

func (f *fakeFiles) GetFile(ctx context.Context, fileID string) (*drive.FileInfo, error) {
	if fileID == "missing" {
		return nil, fmt.Errorf("failed to get file %s: not found", fileID)
	}
	return &drive.FileInfo{ID: fileID, Name: "Q3 Report.pdf"}, nil
}

func (f *fakeFiles) ShareFile(ctx context.Context, fileID string, opts *drive.ShareOptions) (*drive.Permission, error) {
	f.shares = append(f.shares, opts)
	return &drive.Permission{ID: "p1", Type: opts.Type, Role: opts.Role, EmailAddress: opts.EmailAddress}, nil
}

type fakeEvents struct {
	created []calendar.EventInput
}

func (f *fakeEvents) CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error) {
	f.created = append(f.created, input)
	return &calendar.EventSummary{ID: "e1", Summary: input.Summary}, nil
}

type fixture struct {
	gw     *Gateway
	mail   *fakeMail
	files  *fakeFiles
	events *fakeEvents
	store  *pending.Store
}

func newFixture() *fixture {
	resolver := &fakeResolver{known: map[string]string{
		"Spencer Varney": "spencer.varney@example.com",
		"Sarah":          "sarah.chen@example.com",
	}}
	mail := &fakeMail{}
	files := &fakeFiles{}
	events := &fakeEvents{}
	store := pending.NewStore(0)
	return &fixture{
		gw:     New(resolver, mail, files, events, store, nil),
		mail:   mail,
		files:  files,
		events: events,
		store:  store,
	}
}

func TestPrepareSendEmailResolvesRecipients(t *testing.T) {
	f := newFixture()

	preview, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"Spencer Varney"}, nil, nil, "Hello", "Quick question about the report.", false)
	require.NoError(t, err)

	assert.Equal(t, pending.KindSendEmail, preview.Kind)
	assert.NotEmpty(t, preview.Token)
	assert.Contains(t, preview.Summary, "spencer.varney@example.com")
	assert.Contains(t, preview.Summary, "Hello")
	assert.Empty(t, f.mail.sent, "prepare must not send anything")
}

func TestPrepareSendEmailUnknownRecipient(t *testing.T) {
	f := newFixture()

	_, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"UnknownPerson123"}, nil, nil, "Hi", "Body", false)
	require.Error(t, err)

	var batchErr *contacts.BatchError
	assert.ErrorAs(t, err, &batchErr)
	assert.Nil(t, f.store.Current(), "a failed prepare must not stage anything")
}

func TestConfirmSendEmailExecutesOnce(t *testing.T) {
	f := newFixture()

	preview, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"Spencer Varney"}, nil, nil, "Hello", "Body", false)
	require.NoError(t, err)

	params := EmailParams{
		To:      []string{"spencer.varney@example.com"},
		Subject: "Hello",
		Body:    "Body",
	}
	id, err := f.gw.ConfirmSendEmail(context.Background(), preview.Token, params)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, []string{"spencer.varney@example.com"}, f.mail.sent[0].To)

	// A second confirmation of the same token must fail and not send.
	_, err = f.gw.ConfirmSendEmail(context.Background(), preview.Token, params)
	assert.ErrorIs(t, err, pending.ErrNoPending)
	assert.Len(t, f.mail.sent, 1)
}

func TestConfirmSendEmailWrongToken(t *testing.T) {
	f := newFixture()

	_, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"Sarah"}, nil, nil, "Hi", "Body", false)
	require.NoError(t, err)

	_, err = f.gw.ConfirmSendEmail(context.Background(), "bogus", EmailParams{})
	assert.ErrorIs(t, err, pending.ErrNoPending)
	assert.Empty(t, f.mail.sent)
	assert.NotNil(t, f.store.Current(), "a wrong token must not discard the staged operation")
}

func TestConfirmSendEmailParamMismatch(t *testing.T) {
	f := newFixture()

	preview, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"Sarah"}, nil, nil, "Hi", "Body", false)
	require.NoError(t, err)

	tampered := EmailParams{
		To:      []string{"attacker@example.com"},
		Subject: "Hi",
		Body:    "Body",
	}
	_, err = f.gw.ConfirmSendEmail(context.Background(), preview.Token, tampered)
	assert.ErrorIs(t, err, ErrConfirmationMismatch)
	assert.Empty(t, f.mail.sent, "a mismatched confirmation must not send")

	// The staged operation survives so the right parameters still work.
	good := EmailParams{
		To:      []string{"sarah.chen@example.com"},
		Subject: "Hi",
		Body:    "Body",
	}
	id, err := f.gw.ConfirmSendEmail(context.Background(), preview.Token, good)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
}

func TestConfirmKindMismatch(t *testing.T) {
	f := newFixture()

	preview, err := f.gw.PrepareShareFile(context.Background(),
		"file-1", "Sarah", "reader", false, "")
	require.NoError(t, err)

	// A share token cannot confirm an email.
	_, err = f.gw.ConfirmSendEmail(context.Background(), preview.Token, EmailParams{})
	assert.ErrorIs(t, err, pending.ErrNoPending)
	assert.Empty(t, f.mail.sent)
	assert.NotNil(t, f.store.Current())
}

func TestLastPrepareWins(t *testing.T) {
	f := newFixture()

	first, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"Sarah"}, nil, nil, "First", "Body", false)
	require.NoError(t, err)

	_, err = f.gw.PrepareSendEmail(context.Background(),
		[]string{"Spencer Varney"}, nil, nil, "Second", "Body", false)
	require.NoError(t, err)

	_, err = f.gw.ConfirmSendEmail(context.Background(), first.Token, EmailParams{
		To:      []string{"sarah.chen@example.com"},
		Subject: "First",
		Body:    "Body",
	})
	assert.ErrorIs(t, err, pending.ErrNoPending, "a replaced operation must be unconfirmable")
	assert.Empty(t, f.mail.sent)
}

func TestCancel(t *testing.T) {
	f := newFixture()

	preview, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"Sarah"}, nil, nil, "Hi", "Body", false)
	require.NoError(t, err)

	kind, cancelled := f.gw.Cancel()
	assert.True(t, cancelled)
	assert.Equal(t, pending.KindSendEmail, kind)
	assert.Nil(t, f.store.Current())

	_, err = f.gw.ConfirmSendEmail(context.Background(), preview.Token, EmailParams{})
	assert.ErrorIs(t, err, pending.ErrNoPending)

	_, cancelled = f.gw.Cancel()
	assert.False(t, cancelled, "cancel with nothing staged is a no-op")
}

func TestPrepareShareFile(t *testing.T) {
	f := newFixture()

	preview, err := f.gw.PrepareShareFile(context.Background(),
		"file-1", "Spencer Varney", "writer", true, "Here is the report")
	require.NoError(t, err)

	assert.Equal(t, pending.KindShareFile, preview.Kind)
	assert.Contains(t, preview.Summary, "Q3 Report.pdf")
	assert.Contains(t, preview.Summary, "spencer.varney@example.com")
	assert.Contains(t, preview.Summary, "writer")
	assert.Empty(t, f.files.shares)
}

func TestPrepareShareFileInvalidRole(t *testing.T) {
	f := newFixture()

	_, err := f.gw.PrepareShareFile(context.Background(),
		"file-1", "Sarah", "owner", false, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
	assert.Nil(t, f.store.Current())
}

func TestPrepareShareFileMissingFile(t *testing.T) {
	f := newFixture()

	_, err := f.gw.PrepareShareFile(context.Background(),
		"missing", "Sarah", "reader", false, "")
	require.Error(t, err)
	assert.Nil(t, f.store.Current())
}

func TestConfirmShareFile(t *testing.T) {
	f := newFixture()

	preview, err := f.gw.PrepareShareFile(context.Background(),
		"file-1", "Sarah", "reader", false, "")
	require.NoError(t, err)

	perm, err := f.gw.ConfirmShareFile(context.Background(), preview.Token, ShareParams{
		FileID:    "file-1",
		Recipient: "sarah.chen@example.com",
		Role:      "reader",
	})
	require.NoError(t, err)
	assert.Equal(t, "sarah.chen@example.com", perm.EmailAddress)
	require.Len(t, f.files.shares, 1)
	assert.Equal(t, "user", f.files.shares[0].Type)

	_, err = f.gw.ConfirmShareFile(context.Background(), preview.Token, ShareParams{})
	assert.ErrorIs(t, err, pending.ErrNoPending)
}

func TestPrepareCreateEventBatchAttendeeFailure(t *testing.T) {
	f := newFixture()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	_, err := f.gw.PrepareCreateEvent(context.Background(), EventParams{
		Summary: "Planning",
		Start:   start,
		End:     start.Add(time.Hour),
	}, []string{"Sarah", "UnknownPerson123"})
	require.Error(t, err)

	var batchErr *contacts.BatchError
	assert.ErrorAs(t, err, &batchErr)
	assert.Empty(t, f.events.created, "a partial attendee list must never create an event")
	assert.Nil(t, f.store.Current())
}

func TestConfirmCreateEvent(t *testing.T) {
	f := newFixture()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	preview, err := f.gw.PrepareCreateEvent(context.Background(), EventParams{
		Summary:  "Planning",
		Start:    start,
		End:      start.Add(time.Hour),
		TimeZone: "UTC",
	}, []string{"Sarah", "spencer.varney@example.com"})
	require.NoError(t, err)
	assert.Contains(t, preview.Summary, "sarah.chen@example.com")

	created, err := f.gw.ConfirmCreateEvent(context.Background(), preview.Token, EventParams{
		CalendarID: "primary",
		Summary:    "Planning",
		Start:      start,
		End:        start.Add(time.Hour),
		TimeZone:   "UTC",
		Attendees:  []string{"sarah.chen@example.com", "spencer.varney@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", created.ID)
	require.Len(t, f.events.created, 1)
	assert.Equal(t, []string{"sarah.chen@example.com", "spencer.varney@example.com"},
		f.events.created[0].Attendees)
}

func TestPrepareCreateEventInvalidTimes(t *testing.T) {
	f := newFixture()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	_, err := f.gw.PrepareCreateEvent(context.Background(), EventParams{
		Summary: "Backwards",
		Start:   start,
		End:     start.Add(-time.Hour),
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end must be after start")
}

func TestSendEmailNowBypassesConfirmation(t *testing.T) {
	f := newFixture()

	id, err := f.gw.SendEmailNow(context.Background(),
		[]string{"Sarah"}, nil, nil, "Direct", "Body", false)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Nil(t, f.store.Current(), "direct send must not stage anything")
}

func TestPendingReportsStagedOperation(t *testing.T) {
	f := newFixture()
	assert.Nil(t, f.gw.Pending())

	preview, err := f.gw.PrepareSendEmail(context.Background(),
		[]string{"Sarah"}, nil, nil, "Hi", "Body", false)
	require.NoError(t, err)

	op := f.gw.Pending()
	require.NotNil(t, op)
	assert.Equal(t, pending.KindSendEmail, op.Kind)
	assert.Equal(t, preview.Token, op.Token)
}

func TestEmailSummaryTruncatesBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	summary := emailSummary(EmailParams{
		To:      []string{"a@example.com"},
		Subject: "Long",
		Body:    string(long),
	})
	assert.Contains(t, summary, "...")
	assert.Less(t, len(summary), 400)
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	body := strings.Repeat("日", 100)
	for limit := 1; limit < 12; limit++ {
		got := truncate(body, limit)
		assert.True(t, utf8.ValidString(got), "limit %d split a rune: %q", limit, got)
		assert.True(t, strings.HasSuffix(got, "..."))
	}
	assert.Equal(t, "short", truncate("short", 10))
}

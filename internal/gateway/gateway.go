package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mwolter/workspace-mcp/internal/calendar"
	"github.com/mwolter/workspace-mcp/internal/drive"
	"github.com/mwolter/workspace-mcp/internal/gmail"
	"github.com/mwolter/workspace-mcp/internal/logging"
	"github.com/mwolter/workspace-mcp/internal/pending"
)

// previewBodyLimit caps how much of an email body appears in a
// preview.
const previewBodyLimit = 200

// ContactResolver resolves contact references to email addresses.
// contacts.Resolver satisfies it.
type ContactResolver interface {
	ResolveEmails(ctx context.Context, refs []string) ([]string, error)
}

// MailSender sends mail. gmail.Client satisfies it.
type MailSender interface {
	SendEmail(ctx context.Context, msg *gmail.EmailMessage) (string, error)
}

// FileSharer shares Drive files. drive.Client satisfies it.
type FileSharer interface {
	GetFile(ctx context.Context, fileID string) (*drive.FileInfo, error)
	ShareFile(ctx context.Context, fileID string, opts *drive.ShareOptions) (*drive.Permission, error)
}

// EventCreator creates calendar events. calendar.Client satisfies it.
type EventCreator interface {
	CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error)
}

// Preview describes a staged operation for the user to review.
type Preview struct {
	Kind    pending.Kind `json:"kind"`
	Token   string       `json:"confirmationToken"`
	Summary string       `json:"summary"`
}

// Gateway stages and confirms side-effecting operations.
type Gateway struct {
	resolver ContactResolver
	mail     MailSender
	files    FileSharer
	events   EventCreator
	store    *pending.Store
	logger   *slog.Logger
}

// New creates a gateway.
func New(resolver ContactResolver, mail MailSender, files FileSharer, events EventCreator, store *pending.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		resolver: resolver,
		mail:     mail,
		files:    files,
		events:   events,
		store:    store,
		logger:   logger,
	}
}

// PrepareSendEmail resolves recipients and stages an email. Returns a
// preview with the resolved addresses; nothing is sent.
func (g *Gateway) PrepareSendEmail(ctx context.Context, to, cc, bcc []string, subject, body string, isHTML bool) (*Preview, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if body == "" {
		return nil, fmt.Errorf("body is required")
	}

	params, err := g.resolveEmailParams(ctx, to, cc, bcc, subject, body, isHTML)
	if err != nil {
		return nil, err
	}

	token := g.store.Put(pending.KindSendEmail, params)
	g.logger.Info("staged email for confirmation",
		logging.Kind(string(pending.KindSendEmail)),
		slog.Int("recipients", len(params.To)+len(params.Cc)+len(params.Bcc)))

	return &Preview{
		Kind:    pending.KindSendEmail,
		Token:   token,
		Summary: emailSummary(params),
	}, nil
}

// ConfirmSendEmail sends a staged email. The token and parameters
// must match the staged operation exactly; on a parameter mismatch
// the operation is kept so the caller can retry or cancel. Returns
// the sent message ID.
func (g *Gateway) ConfirmSendEmail(ctx context.Context, token string, params EmailParams) (string, error) {
	staged, err := g.takeStaged(token, pending.KindSendEmail)
	if err != nil {
		return "", err
	}
	stagedParams := staged.Params.(EmailParams)
	if !stagedParams.Equal(params) {
		return "", ErrConfirmationMismatch
	}

	// Clear before executing so the operation can fire at most once,
	// even if the send fails partway.
	g.store.Clear()

	id, err := g.mail.SendEmail(ctx, &gmail.EmailMessage{
		To:      stagedParams.To,
		Cc:      stagedParams.Cc,
		Bcc:     stagedParams.Bcc,
		Subject: stagedParams.Subject,
		Body:    stagedParams.Body,
		IsHTML:  stagedParams.IsHTML,
	})
	if err != nil {
		return "", err
	}
	g.logger.Info("confirmed email sent",
		logging.Kind(string(pending.KindSendEmail)),
		slog.String("message_id", id))
	return id, nil
}

// SendEmailNow resolves recipients and sends immediately, bypassing
// confirmation. Only for explicitly unguarded operation.
func (g *Gateway) SendEmailNow(ctx context.Context, to, cc, bcc []string, subject, body string, isHTML bool) (string, error) {
	params, err := g.resolveEmailParams(ctx, to, cc, bcc, subject, body, isHTML)
	if err != nil {
		return "", err
	}
	return g.mail.SendEmail(ctx, &gmail.EmailMessage{
		To:      params.To,
		Cc:      params.Cc,
		Bcc:     params.Bcc,
		Subject: params.Subject,
		Body:    params.Body,
		IsHTML:  params.IsHTML,
	})
}

// PrepareShareFile resolves the recipient and stages a file share.
func (g *Gateway) PrepareShareFile(ctx context.Context, fileID, recipient, role string, notify bool, message string) (*Preview, error) {
	params, err := g.resolveShareParams(ctx, fileID, recipient, role, notify, message)
	if err != nil {
		return nil, err
	}

	token := g.store.Put(pending.KindShareFile, params)
	g.logger.Info("staged file share for confirmation",
		logging.Kind(string(pending.KindShareFile)),
		slog.String("file_id", params.FileID),
		logging.UserHash(params.Recipient))

	return &Preview{
		Kind:    pending.KindShareFile,
		Token:   token,
		Summary: shareSummary(params),
	}, nil
}

// ConfirmShareFile grants a staged file share. Returns the created
// permission.
func (g *Gateway) ConfirmShareFile(ctx context.Context, token string, params ShareParams) (*drive.Permission, error) {
	staged, err := g.takeStaged(token, pending.KindShareFile)
	if err != nil {
		return nil, err
	}
	stagedParams := staged.Params.(ShareParams)
	if !stagedParams.Equal(params) {
		return nil, ErrConfirmationMismatch
	}

	g.store.Clear()

	perm, err := g.files.ShareFile(ctx, stagedParams.FileID, &drive.ShareOptions{
		Type:         "user",
		Role:         stagedParams.Role,
		EmailAddress: stagedParams.Recipient,
		Notify:       stagedParams.Notify,
		Message:      stagedParams.Message,
	})
	if err != nil {
		return nil, err
	}
	g.logger.Info("confirmed file share",
		logging.Kind(string(pending.KindShareFile)),
		slog.String("file_id", stagedParams.FileID),
		logging.UserHash(stagedParams.Recipient))
	return perm, nil
}

// ShareFileNow resolves the recipient and shares immediately,
// bypassing confirmation.
func (g *Gateway) ShareFileNow(ctx context.Context, fileID, recipient, role string, notify bool, message string) (*drive.Permission, error) {
	params, err := g.resolveShareParams(ctx, fileID, recipient, role, notify, message)
	if err != nil {
		return nil, err
	}
	return g.files.ShareFile(ctx, params.FileID, &drive.ShareOptions{
		Type:         "user",
		Role:         params.Role,
		EmailAddress: params.Recipient,
		Notify:       params.Notify,
		Message:      params.Message,
	})
}

// PrepareCreateEvent resolves attendees and stages an event.
func (g *Gateway) PrepareCreateEvent(ctx context.Context, params EventParams, attendeeRefs []string) (*Preview, error) {
	resolved, err := g.resolveEventParams(ctx, params, attendeeRefs)
	if err != nil {
		return nil, err
	}

	token := g.store.Put(pending.KindCreateEvent, resolved)
	g.logger.Info("staged event for confirmation",
		logging.Kind(string(pending.KindCreateEvent)),
		slog.Int("attendees", len(resolved.Attendees)))

	return &Preview{
		Kind:    pending.KindCreateEvent,
		Token:   token,
		Summary: eventSummary(resolved),
	}, nil
}

// ConfirmCreateEvent creates a staged event. Returns the created
// event.
func (g *Gateway) ConfirmCreateEvent(ctx context.Context, token string, params EventParams) (*calendar.EventSummary, error) {
	staged, err := g.takeStaged(token, pending.KindCreateEvent)
	if err != nil {
		return nil, err
	}
	stagedParams := staged.Params.(EventParams)
	if !stagedParams.Equal(params) {
		return nil, ErrConfirmationMismatch
	}

	g.store.Clear()

	created, err := g.events.CreateEvent(ctx, stagedParams.CalendarID, calendar.EventInput{
		Summary:     stagedParams.Summary,
		Description: stagedParams.Description,
		Location:    stagedParams.Location,
		Start:       stagedParams.Start,
		End:         stagedParams.End,
		TimeZone:    stagedParams.TimeZone,
		Attendees:   stagedParams.Attendees,
		AddMeet:     stagedParams.AddMeet,
	})
	if err != nil {
		return nil, err
	}
	g.logger.Info("confirmed event created",
		logging.Kind(string(pending.KindCreateEvent)),
		slog.String("event_id", created.ID))
	return created, nil
}

// CreateEventNow resolves attendees and creates the event
// immediately, bypassing confirmation.
func (g *Gateway) CreateEventNow(ctx context.Context, params EventParams, attendeeRefs []string) (*calendar.EventSummary, error) {
	resolved, err := g.resolveEventParams(ctx, params, attendeeRefs)
	if err != nil {
		return nil, err
	}
	return g.events.CreateEvent(ctx, resolved.CalendarID, calendar.EventInput{
		Summary:     resolved.Summary,
		Description: resolved.Description,
		Location:    resolved.Location,
		Start:       resolved.Start,
		End:         resolved.End,
		TimeZone:    resolved.TimeZone,
		Attendees:   resolved.Attendees,
		AddMeet:     resolved.AddMeet,
	})
}

// Cancel discards whatever is staged, regardless of token. Returns
// the cancelled kind, or false when nothing was staged. Idempotent.
func (g *Gateway) Cancel() (pending.Kind, bool) {
	op := g.store.Current()
	g.store.Clear()
	if op == nil {
		return "", false
	}
	g.logger.Info("pending operation cancelled", logging.Kind(string(op.Kind)))
	return op.Kind, true
}

// Pending returns the currently staged operation, or nil.
func (g *Gateway) Pending() *pending.Operation {
	return g.store.Current()
}

// takeStaged peeks the staged operation and validates its kind. A
// kind mismatch is indistinguishable from no match for the caller.
func (g *Gateway) takeStaged(token string, kind pending.Kind) (*pending.Operation, error) {
	op, err := g.store.Peek(token)
	if err != nil {
		return nil, err
	}
	if op.Kind != kind {
		return nil, pending.ErrNoPending
	}
	return op, nil
}

func (g *Gateway) resolveEmailParams(ctx context.Context, to, cc, bcc []string, subject, body string, isHTML bool) (EmailParams, error) {
	toEmails, err := g.resolver.ResolveEmails(ctx, to)
	if err != nil {
		return EmailParams{}, err
	}
	ccEmails, err := g.resolver.ResolveEmails(ctx, cc)
	if err != nil {
		return EmailParams{}, err
	}
	bccEmails, err := g.resolver.ResolveEmails(ctx, bcc)
	if err != nil {
		return EmailParams{}, err
	}
	return EmailParams{
		To:      toEmails,
		Cc:      ccEmails,
		Bcc:     bccEmails,
		Subject: subject,
		Body:    body,
		IsHTML:  isHTML,
	}, nil
}

func (g *Gateway) resolveShareParams(ctx context.Context, fileID, recipient, role string, notify bool, message string) (ShareParams, error) {
	if fileID == "" {
		return ShareParams{}, fmt.Errorf("fileId is required")
	}
	if recipient == "" {
		return ShareParams{}, fmt.Errorf("recipient is required")
	}
	if !drive.IsValidRole(role) {
		return ShareParams{}, fmt.Errorf("invalid role %q: must be one of %s",
			role, strings.Join(drive.ValidRoles, ", "))
	}

	emails, err := g.resolver.ResolveEmails(ctx, []string{recipient})
	if err != nil {
		return ShareParams{}, err
	}

	// The file must exist before anything is staged; the preview also
	// names the file so the user confirms the right one.
	file, err := g.files.GetFile(ctx, fileID)
	if err != nil {
		return ShareParams{}, err
	}

	return ShareParams{
		FileID:    fileID,
		FileName:  file.Name,
		Recipient: emails[0],
		Role:      role,
		Notify:    notify,
		Message:   message,
	}, nil
}

func (g *Gateway) resolveEventParams(ctx context.Context, params EventParams, attendeeRefs []string) (EventParams, error) {
	if params.Summary == "" {
		return EventParams{}, fmt.Errorf("event summary is required")
	}
	if params.Start.IsZero() || params.End.IsZero() {
		return EventParams{}, fmt.Errorf("event start and end times are required")
	}
	if !params.End.After(params.Start) {
		return EventParams{}, fmt.Errorf("event end must be after start")
	}
	if params.CalendarID == "" {
		params.CalendarID = "primary"
	}

	attendees, err := g.resolver.ResolveEmails(ctx, attendeeRefs)
	if err != nil {
		return EventParams{}, err
	}
	params.Attendees = attendees
	return params, nil
}

func emailSummary(p EmailParams) string {
	var b strings.Builder
	b.WriteString("Email ready to send:\n")
	fmt.Fprintf(&b, "  To: %s\n", strings.Join(p.To, ", "))
	if len(p.Cc) > 0 {
		fmt.Fprintf(&b, "  Cc: %s\n", strings.Join(p.Cc, ", "))
	}
	if len(p.Bcc) > 0 {
		fmt.Fprintf(&b, "  Bcc: %s\n", strings.Join(p.Bcc, ", "))
	}
	fmt.Fprintf(&b, "  Subject: %s\n", p.Subject)
	fmt.Fprintf(&b, "  Body: %s", truncate(p.Body, previewBodyLimit))
	return b.String()
}

func shareSummary(p ShareParams) string {
	var b strings.Builder
	b.WriteString("File share ready:\n")
	if p.FileName != "" {
		fmt.Fprintf(&b, "  File: %s (%s)\n", p.FileName, p.FileID)
	} else {
		fmt.Fprintf(&b, "  File: %s\n", p.FileID)
	}
	fmt.Fprintf(&b, "  Recipient: %s\n", p.Recipient)
	fmt.Fprintf(&b, "  Role: %s\n", p.Role)
	fmt.Fprintf(&b, "  Notify: %t", p.Notify)
	return b.String()
}

func eventSummary(p EventParams) string {
	var b strings.Builder
	b.WriteString("Event ready to create:\n")
	fmt.Fprintf(&b, "  Summary: %s\n", p.Summary)
	fmt.Fprintf(&b, "  When: %s to %s\n", p.Start.Format("2006-01-02 15:04"), p.End.Format("2006-01-02 15:04"))
	if p.Location != "" {
		fmt.Fprintf(&b, "  Location: %s\n", p.Location)
	}
	if len(p.Attendees) > 0 {
		fmt.Fprintf(&b, "  Attendees: %s\n", strings.Join(p.Attendees, ", "))
	}
	fmt.Fprintf(&b, "  Calendar: %s", p.CalendarID)
	return b.String()
}

// truncate cuts s at a rune boundary so a multi-byte character is
// never split mid-sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

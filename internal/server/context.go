package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mwolter/workspace-mcp/internal/auth"
	"github.com/mwolter/workspace-mcp/internal/calendar"
	"github.com/mwolter/workspace-mcp/internal/contacts"
	"github.com/mwolter/workspace-mcp/internal/drive"
	"github.com/mwolter/workspace-mcp/internal/gateway"
	"github.com/mwolter/workspace-mcp/internal/gmail"
	"github.com/mwolter/workspace-mcp/internal/google"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/pending"
)

// Options configures a ServerContext.
type Options struct {
	// Config is the Google OAuth2 client configuration.
	Config google.Config

	// TokenPath is the location of the persisted credential record.
	TokenPath string

	// PendingTTL bounds how long a staged operation stays
	// confirmable. Zero means staged operations never expire.
	PendingTTL time.Duration

	// Yolo registers the direct side-effect tools that bypass the
	// prepare/confirm protocol.
	Yolo bool

	// Logger receives structured log output. Defaults to slog.Default.
	Logger *slog.Logger

	// Instrumentation provides metrics and audit logging. Optional.
	Instrumentation *instrumentation.Provider
}

// ServerContext holds the shared state for the MCP server: the
// credential store, lazily created Google API clients, the pending
// operation store, and the confirmation gateway.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       google.Config
	authStore *auth.Store

	pendingStore *pending.Store
	gateway      *gateway.Gateway
	resolver     *contacts.Resolver

	logger   *slog.Logger
	provider *instrumentation.Provider
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger

	yolo bool

	mu             sync.Mutex
	gmailClient    *gmail.Client
	driveClient    *drive.Client
	calendarClient *calendar.Client
	contactsClient *contacts.Client
	shutdown       bool
}

// NewServerContext creates a server context. No Google API calls are
// made here; clients are built on first use so the server can start
// before the user has authenticated.
func NewServerContext(ctx context.Context, opts Options) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sc := &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		cfg:          opts.Config,
		authStore:    auth.NewStore(opts.Config.OAuth2(), opts.TokenPath),
		pendingStore: pending.NewStore(opts.PendingTTL),
		logger:       logger,
		provider:     opts.Instrumentation,
		yolo:         opts.Yolo,
	}

	if sc.provider != nil {
		sc.metrics = sc.provider.Metrics()
		sc.audit = instrumentation.NewAuditLogger(logger, sc.provider.Config().AuditLogging)
	} else {
		sc.metrics = &instrumentation.Metrics{}
		sc.audit = instrumentation.NewAuditLogger(logger, instrumentation.AuditLoggingConfig{})
	}

	sc.authStore.SetRefreshHook(func(ctx context.Context, err error) {
		result := instrumentation.StatusSuccess
		if err != nil {
			result = instrumentation.StatusError
		}
		sc.metrics.RecordOAuthTokenRefresh(ctx, result)
	})

	sc.resolver = contacts.NewResolver(lazyDirectory{sc})
	sc.gateway = gateway.New(
		sc.resolver,
		lazyMail{sc},
		lazyFiles{sc},
		lazyEvents{sc},
		sc.pendingStore,
		logger,
	)

	return sc
}

// Context returns the server's lifecycle context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// AuthStore returns the credential store.
func (sc *ServerContext) AuthStore() *auth.Store {
	return sc.authStore
}

// Gateway returns the confirmation gateway.
func (sc *ServerContext) Gateway() *gateway.Gateway {
	return sc.gateway
}

// Resolver returns the contact resolver.
func (sc *ServerContext) Resolver() *contacts.Resolver {
	return sc.resolver
}

// Metrics returns the metrics recorder. Never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLog returns the audit logger. Never nil.
func (sc *ServerContext) AuditLog() *instrumentation.AuditLogger {
	return sc.audit
}

// Logger returns the structured logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Yolo reports whether the direct side-effect tools are enabled.
func (sc *ServerContext) Yolo() bool {
	return sc.yolo
}

// GmailClient returns the Gmail client, creating it on first use.
// Returns auth.ErrAuthRequired when no valid credential is stored.
func (sc *ServerContext) GmailClient(ctx context.Context) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gmailClient != nil {
		return sc.gmailClient, nil
	}

	httpClient, err := sc.authStore.Client(ctx)
	if err != nil {
		return nil, err
	}
	client, err := gmail.NewClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	sc.gmailClient = client
	return client, nil
}

// DriveClient returns the Drive client, creating it on first use.
func (sc *ServerContext) DriveClient(ctx context.Context) (*drive.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.driveClient != nil {
		return sc.driveClient, nil
	}

	httpClient, err := sc.authStore.Client(ctx)
	if err != nil {
		return nil, err
	}
	client, err := drive.NewClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	sc.driveClient = client
	return client, nil
}

// CalendarClient returns the Calendar client, creating it on first use.
func (sc *ServerContext) CalendarClient(ctx context.Context) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.calendarClient != nil {
		return sc.calendarClient, nil
	}

	httpClient, err := sc.authStore.Client(ctx)
	if err != nil {
		return nil, err
	}
	client, err := calendar.NewClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	sc.calendarClient = client
	return client, nil
}

// ContactsClient returns the People API client, creating it on first use.
func (sc *ServerContext) ContactsClient(ctx context.Context) (*contacts.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.contactsClient != nil {
		return sc.contactsClient, nil
	}

	httpClient, err := sc.authStore.Client(ctx)
	if err != nil {
		return nil, err
	}
	client, err := contacts.NewClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	sc.contactsClient = client
	return client, nil
}

// ResetClients drops all cached clients. Called after revoking or
// replacing credentials so the next use picks up the new token.
func (sc *ServerContext) ResetClients() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClient = nil
	sc.driveClient = nil
	sc.calendarClient = nil
	sc.contactsClient = nil
}

// IsShutdown returns whether the server context has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}

// lazyDirectory defers People API client creation until the first
// contact search.
type lazyDirectory struct {
	sc *ServerContext
}

func (l lazyDirectory) SearchAll(ctx context.Context, query string, limit int) ([]contacts.Contact, error) {
	client, err := l.sc.ContactsClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.SearchAll(ctx, query, limit)
}

type lazyMail struct {
	sc *ServerContext
}

func (l lazyMail) SendEmail(ctx context.Context, msg *gmail.EmailMessage) (string, error) {
	client, err := l.sc.GmailClient(ctx)
	if err != nil {
		return "", err
	}
	return client.SendEmail(ctx, msg)
}

type lazyFiles struct {
	sc *ServerContext
}

func (l lazyFiles) GetFile(ctx context.Context, fileID string) (*drive.FileInfo, error) {
	client, err := l.sc.DriveClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.GetFile(ctx, fileID)
}

func (l lazyFiles) ShareFile(ctx context.Context, fileID string, opts *drive.ShareOptions) (*drive.Permission, error) {
	client, err := l.sc.DriveClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.ShareFile(ctx, fileID, opts)
}

type lazyEvents struct {
	sc *ServerContext
}

func (l lazyEvents) CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error) {
	client, err := l.sc.CalendarClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.CreateEvent(ctx, calendarID, input)
}

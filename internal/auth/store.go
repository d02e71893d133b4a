package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrAuthRequired indicates no usable credential exists and the user
// must complete the interactive login flow.
var ErrAuthRequired = errors.New("authorization required: run 'workspace-mcp auth login'")

// googleRevokeURL is Google's OAuth2 token revocation endpoint.
const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

// persistedToken is the on-disk token format. It mirrors oauth2.Token
// plus the scopes the token was granted, so a later run can detect a
// scope change without a round trip.
type persistedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Status reports the credential state without refreshing or
// triggering an authorization flow.
type Status struct {
	Authorized  bool      `json:"authorized"`
	AccessValid bool      `json:"access_valid"`
	Expiry      time.Time `json:"expiry,omitempty"`
	Scopes      []string  `json:"scopes,omitempty"`
	Path        string    `json:"path"`
}

// Store manages a single user's OAuth2 token: lazy load from disk,
// refresh on expiry, persist after refresh. All methods are safe for
// concurrent use; refreshes are serialized so concurrent callers
// never race the token endpoint.
type Store struct {
	mu        sync.Mutex
	cfg       *oauth2.Config
	path      string
	token     *oauth2.Token
	scopes    []string
	loaded    bool
	revokeURL string
	onRefresh func(ctx context.Context, err error)
}

// NewStore creates a token store backed by the given file path.
func NewStore(cfg *oauth2.Config, path string) *Store {
	return &Store{
		cfg:       cfg,
		path:      path,
		revokeURL: googleRevokeURL,
	}
}

// SetRefreshHook registers a callback invoked after every token
// refresh attempt with its outcome. Used for metrics.
func (s *Store) SetRefreshHook(fn func(ctx context.Context, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Token returns a valid access token, refreshing and persisting it if
// the cached one has expired. Returns ErrAuthRequired when no
// credential exists or the refresh token has been revoked.
func (s *Store) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	if s.token == nil {
		return nil, ErrAuthRequired
	}
	// A credential granted narrower scopes than the current
	// configuration would 403 on every call; force re-auth instead.
	// Records without scope metadata predate scope tracking and are
	// served as-is.
	if !scopesCover(s.scopes, s.cfg.Scopes) {
		return nil, fmt.Errorf("%w: stored credential lacks required scopes", ErrAuthRequired)
	}
	if s.token.Valid() {
		tok := *s.token
		return &tok, nil
	}
	if s.token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: stored token has no refresh token", ErrAuthRequired)
	}

	refreshed, err := s.cfg.TokenSource(ctx, s.token).Token()
	if s.onRefresh != nil {
		s.onRefresh(ctx, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh failed: %v", ErrAuthRequired, err)
	}
	// Google omits the refresh token on refresh responses.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = s.token.RefreshToken
	}
	s.token = refreshed
	if err := s.saveLocked(); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	tok := *s.token
	return &tok, nil
}

// SetToken stores and persists a freshly obtained token.
func (s *Store) SetToken(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = tok
	s.scopes = s.cfg.Scopes
	s.loaded = true
	return s.saveLocked()
}

// Status reports the current credential state. It never refreshes.
func (s *Store) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return Status{}, err
	}
	st := Status{Path: s.path}
	if s.token == nil {
		return st, nil
	}
	st.Authorized = s.token.RefreshToken != ""
	st.AccessValid = s.token.Valid()
	st.Expiry = s.token.Expiry
	st.Scopes = s.scopes
	return st, nil
}

// Revoke invalidates the credential at Google and removes the token
// file. Revoking an absent credential is a no-op.
func (s *Store) Revoke(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}
	if s.token != nil {
		tok := s.token.RefreshToken
		if tok == "" {
			tok = s.token.AccessToken
		}
		if tok != "" {
			if err := s.revokeRemote(ctx, tok); err != nil {
				return err
			}
		}
	}
	s.token = nil
	s.scopes = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// Client returns an HTTP client whose transport injects tokens from
// this store, so refreshed tokens are shared across all services.
func (s *Store) Client(ctx context.Context) (*http.Client, error) {
	if _, err := s.Token(ctx); err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, storeTokenSource{ctx: ctx, store: s}), nil
}

// storeTokenSource adapts the store to oauth2.TokenSource.
type storeTokenSource struct {
	ctx   context.Context
	store *Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	return ts.store.Token(ts.ctx)
}

func (s *Store) revokeRemote(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.revokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()
	// Google returns 400 for already-revoked tokens; treat that as
	// success so Revoke stays idempotent.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("revoke endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}
	var pt persistedToken
	if err := json.Unmarshal(data, &pt); err != nil {
		return fmt.Errorf("failed to parse token file %s: %w", s.path, err)
	}
	s.token = &oauth2.Token{
		AccessToken:  pt.AccessToken,
		TokenType:    pt.TokenType,
		RefreshToken: pt.RefreshToken,
		Expiry:       pt.Expiry,
	}
	s.scopes = pt.Scopes
	return nil
}

func (s *Store) saveLocked() error {
	pt := persistedToken{
		AccessToken:  s.token.AccessToken,
		TokenType:    s.token.TokenType,
		RefreshToken: s.token.RefreshToken,
		Expiry:       s.token.Expiry,
		Scopes:       s.scopes,
	}
	data, err := json.MarshalIndent(pt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// scopesCover reports whether every required scope is present in
// granted. An empty granted set carries no grant record and covers
// everything.
func scopesCover(granted, required []string) bool {
	if len(granted) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := have[s]; !ok {
			return false
		}
	}
	return true
}

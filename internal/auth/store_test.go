package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:18080",
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenURL + "/auth",
			TokenURL: tokenURL + "/token",
		},
		Scopes: []string{"scope-a", "scope-b"},
	}
}

func writeTokenFile(t *testing.T, path string, pt persistedToken) {
	t.Helper()
	data, err := json.Marshal(pt)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func TestTokenNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewStore(testConfig("http://unused"), path)

	_, err := store.Token(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestTokenValidNoRefresh(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "should not be called", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "still-good",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	})

	store := NewStore(testConfig(srv.URL), path)
	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "still-good", tok.AccessToken)
	assert.Equal(t, int32(0), calls.Load(), "valid token must not hit the token endpoint")
}

func TestTokenNarrowScopesRequireReauth(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "should not be called", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "still-good",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
		Scopes:       []string{"scope-a"},
	})

	store := NewStore(testConfig(srv.URL), path)
	_, err := store.Token(context.Background())
	require.ErrorIs(t, err, ErrAuthRequired)
	assert.Equal(t, int32(0), calls.Load(), "narrow grant must not be refreshed")
}

func TestTokenMatchingScopesServed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "should not be called", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "still-good",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
		Scopes:       []string{"scope-a", "scope-b"},
	})

	store := NewStore(testConfig(srv.URL), path)
	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "still-good", tok.AccessToken)
}

func TestTokenRefreshPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	})

	store := NewStore(testConfig(srv.URL), path)
	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken,
		"refresh token must be preserved when the response omits one")

	// The refreshed token must be visible to a brand new store.
	again := NewStore(testConfig(srv.URL), path)
	tok2, err := again.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok2.AccessToken)
}

func TestTokenRefreshSerialized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	})

	store := NewStore(testConfig(srv.URL), path)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := store.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "fresh", tok.AccessToken)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one refresh")
}

func TestTokenRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "expired",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	})

	store := NewStore(testConfig(srv.URL), path)
	_, err := store.Token(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestTokenNoRefreshToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken: "expired",
		Expiry:      time.Now().Add(-time.Hour),
	})

	store := NewStore(testConfig("http://unused"), path)
	_, err := store.Token(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestSetTokenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	cfg := testConfig("http://unused")
	store := NewStore(cfg, path)

	err := store.SetToken(&oauth2.Token{
		AccessToken:  "abc",
		RefreshToken: "def",
		Expiry:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	var pt persistedToken
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &pt))
	assert.Equal(t, "def", pt.RefreshToken)
	assert.Equal(t, cfg.Scopes, pt.Scopes)
}

func TestStatusNeverRefreshes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "expired",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
		Scopes:       []string{"scope-a"},
	})

	store := NewStore(testConfig(srv.URL), path)
	st, err := store.Status()
	require.NoError(t, err)
	assert.True(t, st.Authorized)
	assert.False(t, st.AccessValid)
	assert.Equal(t, []string{"scope-a"}, st.Scopes)
	assert.Equal(t, int32(0), calls.Load())
}

func TestStatusNoCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewStore(testConfig("http://unused"), path)

	st, err := store.Status()
	require.NoError(t, err)
	assert.False(t, st.Authorized)
	assert.False(t, st.AccessValid)
}

func TestRevoke(t *testing.T) {
	var revoked atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh-1", r.Form.Get("token"))
		revoked.Add(1)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "token.json")
	writeTokenFile(t, path, persistedToken{
		AccessToken:  "abc",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	})

	store := NewStore(testConfig("http://unused"), path)
	store.revokeURL = srv.URL

	require.NoError(t, store.Revoke(context.Background()))
	assert.Equal(t, int32(1), revoked.Load())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "token file should be removed")

	// Second revoke is a no-op.
	require.NoError(t, store.Revoke(context.Background()))
	assert.Equal(t, int32(1), revoked.Load())

	_, err = store.Token(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestCorruptTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	store := NewStore(testConfig("http://unused"), path)
	_, err := store.Token(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthRequired, "corrupt file is a distinct failure")
}

package auth

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is an io.Writer safe to read while Login writes to it.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

var statePattern = regexp.MustCompile(`state=([0-9a-f]+)`)

// waitForState polls the login output until the authorization URL,
// and with it the state parameter, has been written.
func waitForState(t *testing.T, out *syncBuffer) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m := statePattern.FindStringSubmatch(out.String()); m != nil {
			return m[1]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("login never printed an authorization URL; output: %q", out.String())
	return ""
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestLoginRepeatedRedirectDoesNotBlock(t *testing.T) {
	// The token endpoint blocks until released so the loopback server
	// is still up when the second redirect arrives.
	release := make(chan struct{})
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"exchanged","token_type":"Bearer","refresh_token":"r","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	port := freePort(t)
	cfg := testConfig(tokenSrv.URL)
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	path := filepath.Join(t.TempDir(), "token.json")
	store := NewStore(cfg, path)

	var out syncBuffer
	loginErr := make(chan error, 1)
	go func() {
		loginErr <- store.Login(context.Background(), &out)
	}()

	state := waitForState(t, &out)
	callback := fmt.Sprintf("http://127.0.0.1:%d/callback?state=%s&code=test-code", port, state)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(callback)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A refresh of the redirect page arrives after the result slot is
	// already taken; the handler must still answer instead of hanging
	// on the channel.
	resp, err = client.Get(callback)
	require.NoError(t, err, "second redirect hit must not hang the callback handler")
	resp.Body.Close()
	close(release)

	select {
	case err := <-loginErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("login did not finish after the callback")
	}

	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "exchanged", tok.AccessToken)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoginDeniedAuthorization(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "should not be called", http.StatusInternalServerError)
	}))
	defer tokenSrv.Close()

	port := freePort(t)
	cfg := testConfig(tokenSrv.URL)
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	store := NewStore(cfg, filepath.Join(t.TempDir(), "token.json"))

	var out syncBuffer
	loginErr := make(chan error, 1)
	go func() {
		loginErr <- store.Login(context.Background(), &out)
	}()

	state := waitForState(t, &out)
	callback := fmt.Sprintf("http://127.0.0.1:%d/callback?state=%s&error=access_denied", port, state)
	resp, err := http.Get(callback)
	require.NoError(t, err)
	resp.Body.Close()

	select {
	case err := <-loginErr:
		require.ErrorContains(t, err, "access_denied")
	case <-time.After(5 * time.Second):
		t.Fatal("login did not finish after the denial")
	}
}

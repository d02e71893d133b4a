package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// loginTimeout bounds how long Login waits for the browser redirect.
const loginTimeout = 5 * time.Minute

// portFallbackAttempts is how many consecutive ports Login tries when
// the configured redirect port is taken.
const portFallbackAttempts = 5

// Login runs the installed-app authorization flow: it starts a
// loopback listener on the redirect URI's port, writes the
// authorization URL to w for the user to open, waits for the
// redirect, exchanges the code and persists the token.
func (s *Store) Login(ctx context.Context, w io.Writer) error {
	redirect, err := url.Parse(s.cfg.RedirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URI %q: %w", s.cfg.RedirectURL, err)
	}

	ln, boundURL, err := listenLoopback(redirect)
	if err != nil {
		return err
	}
	defer ln.Close()

	// The bound port may differ from the configured one; the exchange
	// must use the redirect URI the browser was actually sent to.
	conf := *s.cfg
	conf.RedirectURL = boundURL.String()

	state, err := randomState()
	if err != nil {
		return err
	}

	type callbackResult struct {
		code string
		err  error
	}
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	path := boundURL.Path
	if path == "" {
		path = "/"
	}
	// Only the first redirect counts; a repeat hit (refresh, browser
	// prefetch) must not block the handler on the full channel.
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}
	mux.HandleFunc(path, func(rw http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(rw, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("authorization response state mismatch")})
		case q.Get("error") != "":
			http.Error(rw, "authorization denied", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
		case q.Get("code") == "":
			http.Error(rw, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("authorization response missing code")})
		default:
			fmt.Fprintln(rw, "Authorization complete. You can close this tab.")
			deliver(callbackResult{code: q.Get("code")})
		}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(w, "Open the following URL in your browser to authorize:\n\n%s\n\n", authURL)
	fmt.Fprintf(w, "Waiting for authorization on %s ...\n", boundURL)

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return res.err
		}
		code = res.code
	case <-ctx.Done():
		return fmt.Errorf("authorization not completed: %w", ctx.Err())
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := s.SetToken(tok); err != nil {
		return err
	}
	fmt.Fprintf(w, "Authorization successful. Token saved to %s\n", s.path)
	return nil
}

// listenLoopback binds the redirect URI's port, falling back to the
// next few ports when it is taken. Returns the listener and the
// redirect URL matching the bound address.
func listenLoopback(redirect *url.URL) (net.Listener, *url.URL, error) {
	host := redirect.Hostname()
	if host == "" {
		host = "localhost"
	}
	basePort := redirect.Port()
	if basePort == "" {
		basePort = "80"
	}
	var port int
	if _, err := fmt.Sscanf(basePort, "%d", &port); err != nil {
		return nil, nil, fmt.Errorf("invalid redirect port %q: %w", basePort, err)
	}

	var lastErr error
	for i := 0; i < portFallbackAttempts; i++ {
		addr := fmt.Sprintf("%s:%d", host, port+i)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		bound := *redirect
		bound.Host = addr
		return ln, &bound, nil
	}
	return nil, nil, fmt.Errorf("failed to bind loopback redirect port: %w", lastErr)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

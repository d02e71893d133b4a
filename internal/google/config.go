package google

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// DefaultRedirectURI is the loopback address used for the installed-app
// authorization-code flow when GOOGLE_REDIRECT_URI is not set. It must
// match one of the redirect URIs configured in the Google Cloud console.
const DefaultRedirectURI = "http://localhost:8080"

// Config holds the OAuth2 client configuration for all Google services.
type Config struct {
	ClientID         string
	ClientSecret     string
	RedirectURI      string
	AdditionalScopes []string
}

// LoadConfig reads the OAuth2 configuration from the environment.
// It fails when the client ID or secret is missing, since no Google
// API call can succeed without them.
func LoadConfig() (Config, error) {
	cfg := Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}
	if extra := os.Getenv("GOOGLE_ADDITIONAL_SCOPES"); extra != "" {
		cfg.AdditionalScopes = strings.Fields(extra)
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return Config{}, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}
	return cfg, nil
}

// Scopes returns the full scope set: defaults plus any additional
// scopes, sorted so the granted-scope comparison in the credential
// store is order independent.
func (c Config) Scopes() []string {
	scopes := make([]string, 0, len(DefaultOAuthScopes)+len(c.AdditionalScopes))
	scopes = append(scopes, DefaultOAuthScopes...)
	scopes = append(scopes, c.AdditionalScopes...)
	sort.Strings(scopes)
	return scopes
}

// OAuth2 returns the oauth2 configuration for the authorization-code flow.
func (c Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes(),
	}
}

// DefaultTokenPath returns the location of the persisted credential
// record, ~/.config/workspace-mcp/token.json on Linux. Its absence
// means the user has never authenticated.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, "workspace-mcp", "token.json"), nil
}

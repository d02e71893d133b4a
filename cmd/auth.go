package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mwolter/workspace-mcp/internal/auth"
	"github.com/mwolter/workspace-mcp/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google credential",
		Long: `Manage the locally persisted Google OAuth2 credential.

The login subcommand runs the installed-app authorization flow: it
prints a URL to open in a browser, waits for the redirect on a local
loopback port, and persists the resulting token. The token is
refreshed automatically on use; login is only needed once, or again
after revoke or a scope change.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthRevokeCmd())

	return cmd
}

// credentialStore builds the auth store from the environment, shared
// by all auth subcommands.
func credentialStore() (*auth.Store, error) {
	_ = godotenv.Load()

	cfg, err := google.LoadConfig()
	if err != nil {
		return nil, err
	}
	tokenPath, err := google.DefaultTokenPath()
	if err != nil {
		return nil, err
	}
	return auth.NewStore(cfg.OAuth2(), tokenPath), nil
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize access to your Google account",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentialStore()
			if err != nil {
				return err
			}
			if err := store.Login(cmd.Context(), os.Stdout); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}
			fmt.Println("Authorization successful. Credential persisted.")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the credential state without refreshing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentialStore()
			if err != nil {
				return err
			}
			status, err := store.Status()
			if err != nil {
				return err
			}

			if !status.Authorized {
				fmt.Println("Not authorized. Run 'workspace-mcp auth login' to authorize.")
				fmt.Printf("Credential path: %s\n", status.Path)
				return nil
			}

			fmt.Println("Authorized.")
			if status.AccessValid {
				fmt.Printf("Access token valid until %s\n", status.Expiry.Format(time.RFC3339))
			} else {
				fmt.Println("Access token expired; it will be refreshed on next use.")
			}
			fmt.Printf("Credential path: %s\n", status.Path)
			if len(status.Scopes) > 0 {
				fmt.Printf("Granted scopes:\n  %s\n", strings.Join(status.Scopes, "\n  "))
			}
			return nil
		},
	}
}

func newAuthRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the credential and delete the persisted token",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentialStore()
			if err != nil {
				return err
			}
			if err := store.Revoke(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Credential revoked and deleted.")
			return nil
		},
	}
}

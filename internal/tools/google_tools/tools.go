package google_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

// RegisterGoogleTools registers the credential management tools with
// the MCP server.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	statusTool := mcp.NewTool("google_auth_status",
		mcp.WithDescription("Show the status of the stored Google credential: whether the user is authorized, token validity, and granted scopes"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("google_auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, sc)
		}))

	revokeTool := mcp.NewTool("google_auth_revoke",
		mcp.WithDescription("Revoke the stored Google credential and delete it from disk. Further Google API calls will require a new 'auth login'"),
	)
	s.AddTool(revokeTool, common.InstrumentedToolHandler("google_auth_revoke", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthRevoke(ctx, sc)
		}))

	return nil
}

func handleAuthStatus(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	status, err := sc.AuthStore().Status()
	if err != nil {
		return common.ToolError(err), nil
	}

	if !status.Authorized {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Not authenticated. Run 'workspace-mcp auth login' to authorize.\nToken file: %s", status.Path)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Authenticated.\n")
	if email := accountEmail(ctx, sc); email != "" {
		fmt.Fprintf(&b, "Account: %s\n", email)
	}
	if status.AccessValid {
		fmt.Fprintf(&b, "Access token valid until %s\n", status.Expiry.Format(time.RFC3339))
	} else {
		fmt.Fprintf(&b, "Access token expired at %s (will be refreshed on next use)\n", status.Expiry.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Token file: %s\n", status.Path)
	if len(status.Scopes) > 0 {
		fmt.Fprintf(&b, "Granted scopes:\n")
		for _, scope := range status.Scopes {
			fmt.Fprintf(&b, "  - %s\n", scope)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// accountEmail looks up the authorized account's email address.
// Status must still work offline, so lookup failures are ignored.
func accountEmail(ctx context.Context, sc *server.ServerContext) string {
	httpClient, err := sc.AuthStore().Client(ctx)
	if err != nil {
		return ""
	}
	svc, err := oauth2api.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return ""
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return ""
	}
	return info.Email
}

func handleAuthRevoke(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if err := sc.AuthStore().Revoke(ctx); err != nil {
		return common.ToolError(fmt.Errorf("failed to revoke credential: %w", err)), nil
	}
	sc.ResetClients()
	return mcp.NewToolResultText("Credential revoked and deleted. Run 'workspace-mcp auth login' to re-authorize."), nil
}

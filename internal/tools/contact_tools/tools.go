package contact_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/contacts"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

// RegisterContactTools registers the contact search and resolution
// tools with the MCP server.
func RegisterContactTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("contacts_search",
		mcp.WithDescription("Search the user's Google contacts and the Workspace directory by name, email, or phone number"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Name, email fragment, or phone number to search for"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of contacts to return (default: 10)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandlerWithService("contacts_search", instrumentation.ServiceContacts, "search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	resolveTool := mcp.NewTool("contacts_resolve",
		mcp.WithDescription("Resolve a free-form contact reference (name or partial email) to an email address. Reports candidates when the reference is ambiguous"),
		mcp.WithString("reference",
			mcp.Required(),
			mcp.Description("Contact reference to resolve, e.g. 'Spencer Varney' or 'spencer@'"),
		),
	)
	s.AddTool(resolveTool, common.InstrumentedToolHandlerWithService("contacts_resolve", instrumentation.ServiceContacts, "resolve", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleResolve(ctx, request, sc)
		}))

	return nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := common.StringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := int(common.IntArg(args, "maxResults", 10))

	client, err := sc.ContactsClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	found, err := client.SearchAll(ctx, query, limit)
	if err != nil {
		return common.ToolError(fmt.Errorf("contact search failed: %w", err)), nil
	}

	if len(found) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No contacts matched %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d contacts:\n", len(found))
	for i, contact := range found {
		fmt.Fprintf(&b, "%d. %s", i+1, contact.DisplayName)
		if email := contact.PrimaryEmail(); email != "" {
			fmt.Fprintf(&b, " <%s>", email)
		}
		if contact.Organization != "" {
			fmt.Fprintf(&b, " (%s)", contact.Organization)
		}
		fmt.Fprintf(&b, " [%s]\n", contact.Source)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleResolve(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ref := common.StringArg(args, "reference")
	if ref == "" {
		return mcp.NewToolResultError("reference is required"), nil
	}

	resolution, err := sc.Resolver().Resolve(ctx, ref)
	if err != nil {
		return common.ToolError(err), nil
	}
	sc.Metrics().RecordContactResolution(ctx, resolutionOutcome(resolution.State))

	switch resolution.State {
	case contacts.StateResolved:
		if resolution.Contact != nil {
			return mcp.NewToolResultText(fmt.Sprintf("Resolved %q to %s <%s>.", ref, resolution.Contact.DisplayName, resolution.Email)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Resolved %q to %s.", ref, resolution.Email)), nil

	case contacts.StateAmbiguous:
		var b strings.Builder
		fmt.Fprintf(&b, "%q is ambiguous. Candidates:\n", ref)
		for i, cand := range resolution.Candidates {
			fmt.Fprintf(&b, "%d. %s <%s>", i+1, cand.DisplayName, cand.Email)
			if cand.Organization != "" {
				fmt.Fprintf(&b, " (%s)", cand.Organization)
			}
			fmt.Fprintf(&b, " [%s]\n", cand.Source)
		}
		fmt.Fprintf(&b, "Retry with the exact email address of the intended contact.")
		return mcp.NewToolResultText(b.String()), nil

	default:
		return mcp.NewToolResultText(fmt.Sprintf("No contact matched %q.", ref)), nil
	}
}

func resolutionOutcome(state contacts.State) string {
	switch state {
	case contacts.StateResolved:
		return instrumentation.OutcomeResolved
	case contacts.StateAmbiguous:
		return instrumentation.OutcomeAmbiguous
	default:
		return instrumentation.OutcomeNotFound
	}
}

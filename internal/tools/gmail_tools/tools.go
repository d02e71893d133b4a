package gmail_tools

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

// RegisterGmailTools registers the Gmail tools with the MCP server.
// The forward tool sends mail directly and is only registered when
// the server runs with direct side effects enabled.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List Gmail messages matching a search query"),
		mcp.WithString("query",
			mcp.Description("Gmail search query (e.g. 'in:inbox', 'from:user@example.com'). Defaults to the inbox"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of messages to return (default: 10)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandlerWithService("gmail_list_messages", instrumentation.ServiceGmail, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))

	getTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get a Gmail message including its decoded body"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to fetch"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandlerWithService("gmail_get_message", instrumentation.ServiceGmail, "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMessage(ctx, request, sc)
		}))

	if sc.Yolo() {
		forwardTool := mcp.NewTool("gmail_forward_email",
			mcp.WithDescription("Forward a Gmail message to new recipients immediately, without confirmation. Recipients may be contact names or email addresses"),
			mcp.WithString("messageId",
				mcp.Required(),
				mcp.Description("The ID of the message to forward"),
			),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Comma-separated recipients (contact names or email addresses)"),
			),
			mcp.WithString("note",
				mcp.Description("Optional note to prepend to the forwarded message"),
			),
		)
		s.AddTool(forwardTool, common.InstrumentedToolHandlerWithService("gmail_forward_email", instrumentation.ServiceGmail, "forward", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleForwardEmail(ctx, request, sc)
			}))
	}

	return nil
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := common.StringArg(args, "query")
	if query == "" {
		query = "in:inbox"
	}
	maxResults := common.IntArg(args, "maxResults", 10)

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	messages, err := client.ListMessages(ctx, query, maxResults)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to list messages: %w", err)), nil
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages matched %q.", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d messages:\n", len(messages))
	for i, msg := range messages {
		marker := ""
		if msg.Unread {
			marker = " [unread]"
		}
		fmt.Fprintf(&b, "%d. %s%s\n   From: %s\n   Subject: %s\n   Date: %s\n", i+1, msg.ID, marker, msg.From, msg.Subject, msg.Date)
		if msg.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", msg.Snippet)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID := common.StringArg(args, "messageId")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	msg, err := client.GetMessage(ctx, messageID)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to get message %s: %w", messageID, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	if msg.Cc != "" {
		fmt.Fprintf(&b, "Cc: %s\n", msg.Cc)
	}
	fmt.Fprintf(&b, "Date: %s\n", msg.Date)
	fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	b.WriteString(msg.Body)
	return mcp.NewToolResultText(b.String()), nil
}

func handleForwardEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID := common.StringArg(args, "messageId")
	if messageID == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}
	toRaw := common.StringArg(args, "to")
	if toRaw == "" {
		return mcp.NewToolResultError("to is required"), nil
	}

	recipients, err := sc.Resolver().ResolveEmails(ctx, contacts.SplitList(toRaw))
	if err != nil {
		return common.ToolError(err), nil
	}

	client, err := sc.GmailClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	id, err := client.ForwardEmail(ctx, messageID, recipients, nil, nil, common.StringArg(args, "note"), false)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to forward message: %w", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Message forwarded to %s (id %s).", strings.Join(recipients, ", "), id)), nil
}

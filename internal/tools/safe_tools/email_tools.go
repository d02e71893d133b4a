package safe_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/contacts"
	"github.com/mwolter/workspace-mcp/internal/gateway"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/pending"
	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

func registerEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	prepareTool := mcp.NewTool("prepare_send_email",
		mcp.WithDescription("Stage an email for sending. Recipients may be contact names or email addresses; they are resolved and shown in a preview. Nothing is sent until confirm_send_email"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated recipients (contact names or email addresses)"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated Cc recipients"),
		),
		mcp.WithString("bcc",
			mcp.Description("Comma-separated Bcc recipients"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body"),
		),
		mcp.WithBoolean("isHtml",
			mcp.Description("Body is HTML (default: false)"),
		),
	)
	s.AddTool(prepareTool, common.InstrumentedToolHandler("prepare_send_email", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handlePrepareSendEmail(ctx, request, sc)
		}))

	confirmTool := mcp.NewTool("confirm_send_email",
		mcp.WithDescription("Send a previously staged email. The token and all parameters must exactly match the preview from prepare_send_email, with recipients as the resolved email addresses"),
		mcp.WithString("confirmationToken",
			mcp.Required(),
			mcp.Description("The token returned by prepare_send_email"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Comma-separated resolved recipient email addresses, as shown in the preview"),
		),
		mcp.WithString("cc",
			mcp.Description("Comma-separated resolved Cc addresses"),
		),
		mcp.WithString("bcc",
			mcp.Description("Comma-separated resolved Bcc addresses"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject, exactly as staged"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body, exactly as staged"),
		),
		mcp.WithBoolean("isHtml",
			mcp.Description("Body is HTML, exactly as staged"),
		),
	)
	s.AddTool(confirmTool, common.InstrumentedToolHandlerWithService("confirm_send_email", instrumentation.ServiceGmail, "send", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleConfirmSendEmail(ctx, request, sc)
		}))

	if sc.Yolo() {
		sendTool := mcp.NewTool("send_email",
			mcp.WithDescription("Send an email immediately, without staging or confirmation. Recipients may be contact names or email addresses"),
			mcp.WithString("to",
				mcp.Required(),
				mcp.Description("Comma-separated recipients (contact names or email addresses)"),
			),
			mcp.WithString("cc",
				mcp.Description("Comma-separated Cc recipients"),
			),
			mcp.WithString("bcc",
				mcp.Description("Comma-separated Bcc recipients"),
			),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Email subject"),
			),
			mcp.WithString("body",
				mcp.Required(),
				mcp.Description("Email body"),
			),
			mcp.WithBoolean("isHtml",
				mcp.Description("Body is HTML (default: false)"),
			),
		)
		s.AddTool(sendTool, common.InstrumentedToolHandlerWithService("send_email", instrumentation.ServiceGmail, "send", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleSendEmailNow(ctx, request, sc)
			}))
	}
}

func handlePrepareSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	to := contacts.SplitList(common.StringArg(args, "to"))
	if len(to) == 0 {
		return mcp.NewToolResultError("to is required"), nil
	}
	subject := common.StringArg(args, "subject")
	if subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	body := common.StringArg(args, "body")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	preview, err := sc.Gateway().PrepareSendEmail(ctx,
		to,
		contacts.SplitList(common.StringArg(args, "cc")),
		contacts.SplitList(common.StringArg(args, "bcc")),
		subject, body,
		common.BoolArg(args, "isHtml", false))
	if err != nil {
		return resolutionFailure(err), nil
	}

	recordStaged(ctx, sc, pending.KindSendEmail)
	return previewResult(preview, "confirm_send_email"), nil
}

func handleConfirmSendEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	token := common.StringArg(args, "confirmationToken")
	if token == "" {
		return mcp.NewToolResultError("confirmationToken is required"), nil
	}

	params := gateway.EmailParams{
		To:      splitEmails(common.StringArg(args, "to")),
		Cc:      splitEmails(common.StringArg(args, "cc")),
		Bcc:     splitEmails(common.StringArg(args, "bcc")),
		Subject: common.StringArg(args, "subject"),
		Body:    common.StringArg(args, "body"),
		IsHTML:  common.BoolArg(args, "isHtml", false),
	}

	id, err := sc.Gateway().ConfirmSendEmail(ctx, token, params)
	if err != nil {
		return confirmError(ctx, sc, pending.KindSendEmail, err), nil
	}

	recordConfirmed(ctx, sc, pending.KindSendEmail)
	return mcp.NewToolResultText(fmt.Sprintf("Email sent to %s (id %s).", strings.Join(params.To, ", "), id)), nil
}

func handleSendEmailNow(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	to := contacts.SplitList(common.StringArg(args, "to"))
	if len(to) == 0 {
		return mcp.NewToolResultError("to is required"), nil
	}
	subject := common.StringArg(args, "subject")
	if subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	body := common.StringArg(args, "body")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	id, err := sc.Gateway().SendEmailNow(ctx,
		to,
		contacts.SplitList(common.StringArg(args, "cc")),
		contacts.SplitList(common.StringArg(args, "bcc")),
		subject, body,
		common.BoolArg(args, "isHtml", false))
	if err != nil {
		return resolutionFailure(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Email sent (id %s).", id)), nil
}

package safe_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/gateway"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/pending"
	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

func registerShareTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	prepareTool := mcp.NewTool("prepare_share_file",
		mcp.WithDescription("Stage sharing a Google Drive file. The recipient may be a contact name or email address; it is resolved and shown in a preview. No access is granted until confirm_share_file"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file to share"),
		),
		mcp.WithString("recipient",
			mcp.Required(),
			mcp.Description("Recipient (contact name or email address)"),
		),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Access role to grant: 'reader', 'commenter', or 'writer'"),
		),
		mcp.WithBoolean("notify",
			mcp.Description("Send the recipient a notification email (default: false)"),
		),
		mcp.WithString("message",
			mcp.Description("Message to include in the notification email"),
		),
	)
	s.AddTool(prepareTool, common.InstrumentedToolHandler("prepare_share_file", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handlePrepareShareFile(ctx, request, sc)
		}))

	confirmTool := mcp.NewTool("confirm_share_file",
		mcp.WithDescription("Grant the previously staged file access. The token and all parameters must exactly match the preview from prepare_share_file, with the recipient as the resolved email address"),
		mcp.WithString("confirmationToken",
			mcp.Required(),
			mcp.Description("The token returned by prepare_share_file"),
		),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file, exactly as staged"),
		),
		mcp.WithString("recipient",
			mcp.Required(),
			mcp.Description("Resolved recipient email address, as shown in the preview"),
		),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Access role, exactly as staged"),
		),
		mcp.WithBoolean("notify",
			mcp.Description("Notification setting, exactly as staged"),
		),
		mcp.WithString("message",
			mcp.Description("Notification message, exactly as staged"),
		),
	)
	s.AddTool(confirmTool, common.InstrumentedToolHandlerWithService("confirm_share_file", instrumentation.ServiceDrive, "share", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleConfirmShareFile(ctx, request, sc)
		}))

	if sc.Yolo() {
		shareTool := mcp.NewTool("share_file",
			mcp.WithDescription("Share a Google Drive file immediately, without staging or confirmation. The recipient may be a contact name or email address"),
			mcp.WithString("fileId",
				mcp.Required(),
				mcp.Description("The ID of the file to share"),
			),
			mcp.WithString("recipient",
				mcp.Required(),
				mcp.Description("Recipient (contact name or email address)"),
			),
			mcp.WithString("role",
				mcp.Required(),
				mcp.Description("Access role to grant: 'reader', 'commenter', or 'writer'"),
			),
			mcp.WithBoolean("notify",
				mcp.Description("Send the recipient a notification email (default: false)"),
			),
			mcp.WithString("message",
				mcp.Description("Message to include in the notification email"),
			),
		)
		s.AddTool(shareTool, common.InstrumentedToolHandlerWithService("share_file", instrumentation.ServiceDrive, "share", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleShareFileNow(ctx, request, sc)
			}))
	}
}

func handlePrepareShareFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fileID := common.StringArg(args, "fileId")
	if fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}
	recipient := common.StringArg(args, "recipient")
	if recipient == "" {
		return mcp.NewToolResultError("recipient is required"), nil
	}
	role := common.StringArg(args, "role")
	if role == "" {
		return mcp.NewToolResultError("role is required"), nil
	}

	preview, err := sc.Gateway().PrepareShareFile(ctx, fileID, recipient, role,
		common.BoolArg(args, "notify", false),
		common.StringArg(args, "message"))
	if err != nil {
		return resolutionFailure(err), nil
	}

	recordStaged(ctx, sc, pending.KindShareFile)
	return previewResult(preview, "confirm_share_file"), nil
}

func handleConfirmShareFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	token := common.StringArg(args, "confirmationToken")
	if token == "" {
		return mcp.NewToolResultError("confirmationToken is required"), nil
	}

	params := gateway.ShareParams{
		FileID:    common.StringArg(args, "fileId"),
		Recipient: common.StringArg(args, "recipient"),
		Role:      common.StringArg(args, "role"),
		Notify:    common.BoolArg(args, "notify", false),
		Message:   common.StringArg(args, "message"),
	}

	perm, err := sc.Gateway().ConfirmShareFile(ctx, token, params)
	if err != nil {
		return confirmError(ctx, sc, pending.KindShareFile, err), nil
	}

	recordConfirmed(ctx, sc, pending.KindShareFile)
	return mcp.NewToolResultText(fmt.Sprintf("File %s shared with %s as %s (permission %s).",
		params.FileID, params.Recipient, perm.Role, perm.ID)), nil
}

func handleShareFileNow(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fileID := common.StringArg(args, "fileId")
	if fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}
	recipient := common.StringArg(args, "recipient")
	if recipient == "" {
		return mcp.NewToolResultError("recipient is required"), nil
	}
	role := common.StringArg(args, "role")
	if role == "" {
		return mcp.NewToolResultError("role is required"), nil
	}

	perm, err := sc.Gateway().ShareFileNow(ctx, fileID, recipient, role,
		common.BoolArg(args, "notify", false),
		common.StringArg(args, "message"))
	if err != nil {
		return resolutionFailure(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("File %s shared (%s, permission %s).", fileID, perm.Role, perm.ID)), nil
}

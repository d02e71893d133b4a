package drive_tools

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/drive"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

// maxDownloadBytes bounds file content returned inline in a tool
// result.
const maxDownloadBytes = 256 * 1024

// RegisterDriveTools registers the Google Drive tools with the MCP
// server.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listTool := mcp.NewTool("drive_list_files",
		mcp.WithDescription("List files in Google Drive matching a query"),
		mcp.WithString("query",
			mcp.Description("Drive search query (e.g. \"name contains 'report'\"). Trashed files are excluded"),
		),
		mcp.WithString("folderId",
			mcp.Description("Restrict the listing to a folder"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of files to return (default: 20)"),
		),
	)
	s.AddTool(listTool, common.InstrumentedToolHandlerWithService("drive_list_files", instrumentation.ServiceDrive, "list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFiles(ctx, request, sc)
		}))

	getTool := mcp.NewTool("drive_get_file",
		mcp.WithDescription("Get file metadata from Google Drive, optionally including the file content for text files"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
		mcp.WithBoolean("includeContent",
			mcp.Description("Also download and return the file content (text files only, default: false)"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandlerWithService("drive_get_file", instrumentation.ServiceDrive, "get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFile(ctx, request, sc)
		}))

	uploadTool := mcp.NewTool("drive_upload_file",
		mcp.WithDescription("Upload a text file to Google Drive"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the file to create"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("File content"),
		),
		mcp.WithString("mimeType",
			mcp.Description("MIME type of the content (default: text/plain)"),
		),
		mcp.WithString("folderId",
			mcp.Description("Parent folder ID"),
		),
	)
	s.AddTool(uploadTool, common.InstrumentedToolHandlerWithService("drive_upload_file", instrumentation.ServiceDrive, "upload", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUploadFile(ctx, request, sc)
		}))

	folderTool := mcp.NewTool("drive_create_folder",
		mcp.WithDescription("Create a folder in Google Drive"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the folder to create"),
		),
		mcp.WithString("parentId",
			mcp.Description("Parent folder ID"),
		),
	)
	s.AddTool(folderTool, common.InstrumentedToolHandlerWithService("drive_create_folder", instrumentation.ServiceDrive, "create_folder", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateFolder(ctx, request, sc)
		}))

	permsTool := mcp.NewTool("drive_list_permissions",
		mcp.WithDescription("List who has access to a Google Drive file"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
	)
	s.AddTool(permsTool, common.InstrumentedToolHandlerWithService("drive_list_permissions", instrumentation.ServiceDrive, "list_permissions", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListPermissions(ctx, request, sc)
		}))

	removePermTool := mcp.NewTool("drive_remove_permission",
		mcp.WithDescription("Remove a permission from a Google Drive file, revoking that grantee's access"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The ID of the file"),
		),
		mcp.WithString("permissionId",
			mcp.Required(),
			mcp.Description("The ID of the permission to remove (see drive_list_permissions)"),
		),
	)
	s.AddTool(removePermTool, common.InstrumentedToolHandlerWithService("drive_remove_permission", instrumentation.ServiceDrive, "remove_permission", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRemovePermission(ctx, request, sc)
		}))

	return nil
}

func handleListFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	opts := &drive.ListOptions{
		Query:      common.StringArg(args, "query"),
		MaxResults: int(common.IntArg(args, "maxResults", 20)),
	}
	if folderID := common.StringArg(args, "folderId"); folderID != "" {
		clause := fmt.Sprintf("'%s' in parents", folderID)
		if opts.Query != "" {
			opts.Query = fmt.Sprintf("%s and %s", opts.Query, clause)
		} else {
			opts.Query = clause
		}
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	files, _, err := client.ListFiles(ctx, opts)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to list files: %w", err)), nil
	}

	if len(files) == 0 {
		return mcp.NewToolResultText("No files matched."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d files:\n", len(files))
	for i, f := range files {
		fmt.Fprintf(&b, "%d. %s (ID: %s, %s)\n", i+1, f.Name, f.ID, f.MimeType)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fileID := common.StringArg(args, "fileId")
	if fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	info, err := client.GetFile(ctx, fileID)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to get file %s: %w", fileID, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nID: %s\nMIME type: %s\n", info.Name, info.ID, info.MimeType)
	if info.Size > 0 {
		fmt.Fprintf(&b, "Size: %d bytes\n", info.Size)
	}
	if !info.ModifiedTime.IsZero() {
		fmt.Fprintf(&b, "Modified: %s\n", info.ModifiedTime.Format("2006-01-02 15:04:05"))
	}
	if len(info.Owners) > 0 {
		fmt.Fprintf(&b, "Owners: %s\n", strings.Join(info.Owners, ", "))
	}
	if info.WebViewLink != "" {
		fmt.Fprintf(&b, "Link: %s\n", info.WebViewLink)
	}
	fmt.Fprintf(&b, "Shared: %t\n", info.Shared)

	if common.BoolArg(args, "includeContent", false) {
		if !strings.HasPrefix(info.MimeType, "text/") && info.MimeType != "application/json" {
			fmt.Fprintf(&b, "\nContent not included: %s is not a text type.\n", info.MimeType)
			return mcp.NewToolResultText(b.String()), nil
		}
		body, err := client.DownloadFile(ctx, fileID)
		if err != nil {
			return common.ToolError(fmt.Errorf("failed to download file %s: %w", fileID, err)), nil
		}
		defer body.Close()

		content, err := io.ReadAll(io.LimitReader(body, maxDownloadBytes))
		if err != nil {
			return common.ToolError(fmt.Errorf("failed to read file content: %w", err)), nil
		}
		fmt.Fprintf(&b, "\n--- Content ---\n%s", content)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleUploadFile(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name := common.StringArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	content, ok := args["content"].(string)
	if !ok {
		return mcp.NewToolResultError("content is required"), nil
	}

	opts := &drive.UploadOptions{
		MimeType: common.StringArg(args, "mimeType"),
	}
	if opts.MimeType == "" {
		opts.MimeType = "text/plain"
	}
	if folderID := common.StringArg(args, "folderId"); folderID != "" {
		opts.ParentFolders = []string{folderID}
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	info, err := client.UploadFile(ctx, name, strings.NewReader(content), opts)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to upload file: %w", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Uploaded %s (ID: %s).", info.Name, info.ID)), nil
}

func handleCreateFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name := common.StringArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var parents []string
	if parentID := common.StringArg(args, "parentId"); parentID != "" {
		parents = []string{parentID}
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	info, err := client.CreateFolder(ctx, name, parents)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to create folder: %w", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created folder %s (ID: %s).", info.Name, info.ID)), nil
}

func handleListPermissions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fileID := common.StringArg(args, "fileId")
	if fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	perms, err := client.ListPermissions(ctx, fileID)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to list permissions for %s: %w", fileID, err)), nil
	}

	if len(perms) == 0 {
		return mcp.NewToolResultText("No permissions found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Permissions for %s:\n", fileID)
	for i, p := range perms {
		fmt.Fprintf(&b, "%d. %s: %s", i+1, p.Type, p.Role)
		if p.EmailAddress != "" {
			fmt.Fprintf(&b, " (%s)", p.EmailAddress)
		}
		fmt.Fprintf(&b, " [ID: %s]\n", p.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleRemovePermission(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	fileID := common.StringArg(args, "fileId")
	if fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}
	permissionID := common.StringArg(args, "permissionId")
	if permissionID == "" {
		return mcp.NewToolResultError("permissionId is required"), nil
	}

	client, err := sc.DriveClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	if err := client.RemovePermission(ctx, fileID, permissionID); err != nil {
		return common.ToolError(fmt.Errorf("failed to remove permission: %w", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed permission %s from file %s.", permissionID, fileID)), nil
}

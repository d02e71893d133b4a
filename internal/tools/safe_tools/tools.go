package safe_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/contacts"
	"github.com/mwolter/workspace-mcp/internal/gateway"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/pending"
	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

// RegisterSafeTools registers the prepare/confirm protocol tools with
// the MCP server, plus the direct one-shot variants when direct side
// effects are enabled.
func RegisterSafeTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	registerEmailTools(s, sc)
	registerShareTools(s, sc)
	registerEventTools(s, sc)

	cancelTool := mcp.NewTool("cancel_operation",
		mcp.WithDescription("Cancel the staged operation, if any, so it can no longer be confirmed"),
	)
	s.AddTool(cancelTool, common.InstrumentedToolHandler("cancel_operation", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCancel(ctx, sc)
		}))

	pendingTool := mcp.NewTool("pending_operation",
		mcp.WithDescription("Show the currently staged operation, if any"),
	)
	s.AddTool(pendingTool, common.InstrumentedToolHandler("pending_operation", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handlePending(sc)
		}))

	return nil
}

func handleCancel(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	kind, cancelled := sc.Gateway().Cancel()
	if !cancelled {
		return mcp.NewToolResultText("Nothing to cancel: no operation is staged."), nil
	}
	sc.Metrics().RecordPendingOperation(ctx, string(kind), instrumentation.ActionCancelled)
	return mcp.NewToolResultText(fmt.Sprintf("Staged %s operation cancelled.", kind)), nil
}

func handlePending(sc *server.ServerContext) (*mcp.CallToolResult, error) {
	op := sc.Gateway().Pending()
	if op == nil {
		return mcp.NewToolResultText("No operation is staged."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Staged operation: %s\n", op.Kind)
	fmt.Fprintf(&b, "Token: %s\n", op.Token)
	fmt.Fprintf(&b, "Staged at: %s\n", op.CreatedAt.Format(time.RFC3339))

	switch params := op.Params.(type) {
	case gateway.EmailParams:
		fmt.Fprintf(&b, "To: %s\nSubject: %s\n", strings.Join(params.To, ", "), params.Subject)
	case gateway.ShareParams:
		fmt.Fprintf(&b, "File: %s (%s)\nRecipient: %s\nRole: %s\n", params.FileName, params.FileID, params.Recipient, params.Role)
	case gateway.EventParams:
		fmt.Fprintf(&b, "Event: %s\nWhen: %s - %s\n", params.Summary,
			params.Start.Format(time.RFC3339), params.End.Format(time.RFC3339))
		if len(params.Attendees) > 0 {
			fmt.Fprintf(&b, "Attendees: %s\n", strings.Join(params.Attendees, ", "))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// splitEmails splits a comma-separated list into trimmed entries.
// Used on confirm, where entries are the already-resolved addresses
// from the preview.
func splitEmails(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// previewResult renders a staged-operation preview with confirmation
// instructions.
func previewResult(preview *gateway.Preview, confirmTool string) *mcp.CallToolResult {
	var b strings.Builder
	b.WriteString(preview.Summary)
	fmt.Fprintf(&b, "\nConfirmation token: %s\n", preview.Token)
	fmt.Fprintf(&b, "Nothing has been executed. Review the preview, then call %s with this token and the exact parameters shown above.", confirmTool)
	return mcp.NewToolResultText(b.String())
}

// resolutionFailure renders recipient resolution failures with their
// per-reference detail: candidates for ambiguous references, a plain
// not-found for unknown ones.
func resolutionFailure(err error) *mcp.CallToolResult {
	var batch *contacts.BatchError
	if !errors.As(err, &batch) {
		return common.ToolError(err)
	}

	var b strings.Builder
	b.WriteString("Could not resolve all recipients; nothing was staged.\n")
	for _, failure := range batch.Failures {
		var ambiguous *contacts.AmbiguousError
		if errors.As(failure, &ambiguous) {
			fmt.Fprintf(&b, "- %q is ambiguous:\n", ambiguous.Ref)
			for _, cand := range ambiguous.Candidates {
				fmt.Fprintf(&b, "    %s <%s>", cand.DisplayName, cand.Email)
				if cand.Organization != "" {
					fmt.Fprintf(&b, " (%s)", cand.Organization)
				}
				fmt.Fprintf(&b, "\n")
			}
			continue
		}
		fmt.Fprintf(&b, "- %v\n", failure)
	}
	b.WriteString("Retry with exact email addresses for the failing references.")
	return mcp.NewToolResultError(b.String())
}

// confirmError maps protocol errors to actionable tool results and
// records the mismatch metric.
func confirmError(ctx context.Context, sc *server.ServerContext, kind pending.Kind, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, gateway.ErrConfirmationMismatch):
		sc.Metrics().RecordPendingOperation(ctx, string(kind), instrumentation.ActionMismatch)
		return mcp.NewToolResultError(
			"Confirmation parameters do not match the staged operation. The staged operation is still pending: " +
				"restate the exact parameters from the preview, or cancel_operation and prepare again.")
	case errors.Is(err, pending.ErrExpired):
		return mcp.NewToolResultError("The staged operation has expired. Prepare it again.")
	case errors.Is(err, pending.ErrNoPending):
		return mcp.NewToolResultError("No matching staged operation. Prepare it first, and confirm with the token from the preview.")
	default:
		return common.ToolError(err)
	}
}

func recordStaged(ctx context.Context, sc *server.ServerContext, kind pending.Kind) {
	sc.Metrics().RecordPendingOperation(ctx, string(kind), instrumentation.ActionStaged)
}

func recordConfirmed(ctx context.Context, sc *server.ServerContext, kind pending.Kind) {
	sc.Metrics().RecordPendingOperation(ctx, string(kind), instrumentation.ActionConfirmed)
}

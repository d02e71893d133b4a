package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/auth"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/server"
)

// ToolHandler is the handler signature expected by the MCP server.
type ToolHandler = mcpserver.ToolHandlerFunc

// InstrumentedToolHandler wraps a tool handler with metrics and audit
// logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler
// but also records the Google service and operation, feeding the
// per-service API metrics.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "gmail", "list", sc, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, serviceName, operation, sc, handler)
}

func instrumented(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		if serviceName != "" {
			invocation.WithService(serviceName, operation)
		}

		result, err := handler(ctx, request)
		duration := time.Since(invocation.StartTime)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			invocation.Complete(false, err)
		} else {
			invocation.CompleteSuccess()
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		if serviceName != "" {
			metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)
		}
		sc.AuditLog().LogToolInvocation(invocation)

		return result, err
	}
}

// ToolError converts an error into a tool-result error, attaching
// actionable instructions when authentication is missing.
func ToolError(err error) *mcp.CallToolResult {
	if errors.Is(err, auth.ErrAuthRequired) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Not authenticated with Google. Run 'workspace-mcp auth login' in a terminal, "+
				"complete the browser consent flow, then retry. (%v)", err))
	}
	return mcp.NewToolResultError(err.Error())
}

// StringArg returns the string argument for key, or "" when absent.
func StringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// BoolArg returns the boolean argument for key, or fallback when
// absent.
func BoolArg(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

// IntArg returns the numeric argument for key, or fallback when
// absent. JSON numbers arrive as float64.
func IntArg(args map[string]interface{}, key string, fallback int64) int64 {
	if v, ok := args[key].(float64); ok {
		return int64(v)
	}
	return fallback
}

// Package gmail_tools provides MCP tools for reading Gmail messages.
// Sending goes through the prepare/confirm tools in safe_tools;
// forwarding is registered here only when direct side effects are
// enabled.
package gmail_tools

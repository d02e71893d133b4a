// Package google_tools provides MCP tools for inspecting and
// revoking the stored Google credential.
package google_tools

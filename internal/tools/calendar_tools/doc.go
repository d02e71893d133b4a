// Package calendar_tools provides MCP tools for Google Calendar.
// Event creation goes through the prepare/confirm tools in
// safe_tools.
package calendar_tools

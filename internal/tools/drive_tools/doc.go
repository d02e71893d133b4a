// Package drive_tools provides MCP tools for Google Drive: listing,
// fetching, uploading and organizing files, and inspecting
// permissions. Granting access to files goes through the
// prepare/confirm tools in safe_tools.
package drive_tools

// Package cmd implements the command-line interface for
// workspace-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio or streamable-http transport)
//   - auth: Manage the Google credential (login, status, revoke)
//   - version: Display version information
//
// The serve command is the default when no subcommand is specified.
package cmd

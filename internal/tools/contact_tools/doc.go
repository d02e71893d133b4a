// Package contact_tools provides MCP tools for searching the user's
// Google contacts and resolving free-form references to email
// addresses.
package contact_tools

// Package common provides shared helpers for MCP tool
// implementations: the instrumented handler wrappers and argument
// parsing utilities used across all tool packages.
package common

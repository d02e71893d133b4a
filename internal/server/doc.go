// Package server provides the MCP server context plus the health and
// metrics HTTP endpoints used with the streamable-http transport.
//
// ServerContext owns the credential store and builds Google API
// clients lazily: tools can be registered before the user has
// authenticated, and the first call that needs a client creates it
// from the stored token. The confirmation gateway and contact
// resolver are wired against these lazy clients, so a single
// ServerContext is the only dependency the tool handlers need.
package server

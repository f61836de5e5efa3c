// Package mcp provides an MCP (Model Context Protocol) server adapter for normrag.
// It lets AI assistants query the regulatory corpora and generate technical
// requirements through the same chat service the CLI uses.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// Package driving holds the ports the CLI and the MCP server call into:
// index building, retrieval, chat and settings. The services package
// implements them.
package driving

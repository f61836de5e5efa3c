package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/normrag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools:
  search_norms      Answer a question strictly from the regulatory documents
  generate_tt       Draft technical requirements
  retrieve_context  Return the retrieved context block only

By default, the server communicates over stdio using JSON-RPC. Use --port
to start an HTTP server instead, e.g. for the MCP Inspector.

Examples:
  # Stdio mode (default)
  normrag mcp serve

  # HTTP mode
  normrag mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "normrag": {
        "command": "/path/to/normrag",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := app.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	chat, err := app.Chat(cmd.Context())
	if err != nil {
		return err
	}
	indexer, err := app.Indexer(cmd.Context())
	if err != nil {
		return err
	}

	ports := &mcp.Ports{
		Chat:    chat,
		Indexes: indexer,
		Corpora: settings.Corpora,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
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

The server exposes the ask, ingest_file and summarize tools and the
docqa://session resource. By default it communicates over stdio using
JSON-RPC, which is what desktop assistants expect.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default)
  docqa mcp serve

  # Preload a handbook, then serve over HTTP
  docqa mcp serve --file handbook.pdf --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "docqa": {
        "command": "/path/to/docqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Annotations: map[string]string{servicesAnnotation: needsPipeline},
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringArrayP("file", "f", nil, "file to load before serving (repeatable)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	files, err := cmd.Flags().GetStringArray("file")
	if err != nil {
		return fmt.Errorf("getting file flag: %w", err)
	}

	if len(files) > 0 {
		// Stdout belongs to the JSON-RPC stream in stdio mode.
		if _, err := ingestFiles(cmd.Context(), files); err != nil {
			return err
		}
	}

	ports := &mcp.Ports{
		QA:           qaService,
		Document:     documentService,
		Summary:      summaryService,
		MaxFileBytes: maxFileBytes(),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

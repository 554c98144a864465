package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/dermavision/pkg/mcp"
)

var mcpExportDirFlag string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the DermaVision MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes the skin journal and
the image analyzer as MCP tools via STDIO.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\dermavision\dermavision.db
- macOS: ~/Library/Application Support/dermavision/dermavision.db
- Linux: ~/.local/share/dermavision/dermavision.db

Example:
  dermavision mcp
  dermavision mcp --db ~/skin.db --export-dir ~/Documents`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath()
		if err != nil {
			return err
		}
		repo, dbConn, err := openRepositoryAt(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		srv := mcp.NewDermavisionMCPServer(repo, newAnalyzer(),
			mcp.WithExportDir(mcpExportDirFlag),
			mcp.WithLogger(logger),
		)

		// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
		printMCPBanner(cmd.ErrOrStderr(), dbPath)

		// Run the server (blocks until stdio closes).
		return srv.Start()
	},
}

func printMCPBanner(w io.Writer, dbPath string) {
	fmt.Fprintf(w, "DermaVision MCP server started. DB: %s (WAL: %t, Sync: %s)\n", dbPath, cfg.WAL, cfg.Sync)
	fmt.Fprintf(w, "Available tools: %s\n", strings.Join(mcp.ToolNames(), ", "))
	if cfg.APIKey == "" {
		fmt.Fprintln(w, "Warning: no API key configured, analyze_image will fail until DERMAVISION_API_KEY is set.")
	}
	fmt.Fprintln(w, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")
}

func init() {
	mcpCmd.Flags().StringVar(&mcpExportDirFlag, "export-dir", ".", "Default directory for export_journal")
	rootCmd.AddCommand(mcpCmd)
}

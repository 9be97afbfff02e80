package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"furnish/internal/api"
)

var mcpCatalogFile string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the recommend tool over MCP (stdio)",
	Long: `Run an MCP server on stdin/stdout exposing a single "recommend" tool.
Logs go to stderr so they never corrupt the protocol stream.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpCatalogFile, "catalog-file", "", "catalog file or directory to import at startup")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := logger.WithContext(cmd.Context())

	engine, cat, err := buildEngine(ctx, GetConfig(), mcpCatalogFile)
	if err != nil {
		return err
	}
	defer cat.Close()

	return server.ServeStdio(api.NewMCPServer(engine, logger, Version))
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scraper-llm/internal/logging"
	"scraper-llm/internal/mcp"
)

var mcpDisabled []string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the scraper as MCP tools over stdio",
	Long: fmt.Sprintf(`Start a Model Context Protocol server on stdin/stdout exposing the
conversation as tools. Available tools: %s.`, strings.Join(mcp.AllToolNames(), ", ")),
	RunE: func(cmd *cobra.Command, args []string) error {
		if unknown := mcp.ValidateDisabledTools(mcpDisabled); len(unknown) > 0 {
			return fmt.Errorf("unknown tools: %s", strings.Join(unknown, ", "))
		}
		// stdout carries the protocol
		logging.SetOutput(cmd.ErrOrStderr())
		return withApp(func(a *app) error {
			return mcp.Run(a.svc, version, mcpDisabled...)
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringSliceVar(&mcpDisabled, "disable", nil, "Tools to leave out")
}

package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/mcpserver"
	"github.com/user/hecvat-adk/pkg/wrappers"
)

var serveFlags runFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the assessment tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, closeWS, err := serveFlags.workspace(cmd)
		if err != nil {
			return err
		}
		defer closeWS()

		s := mcpserver.New(wrappers.All(ws), log.Named("mcp"))
		log.Info("serving MCP on stdio", "assessment", ws.Assessment.Current.ID)
		return server.ServeStdio(s)
	},
}

func init() {
	registerSessionFlags(serveCmd, &serveFlags)
	rootCmd.AddCommand(serveCmd)
}

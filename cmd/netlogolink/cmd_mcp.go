package main

import (
	"github.com/richinsley/netlogolink/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve a NetLogo workspace over MCP (stdio)",
		Long: `Start a Model Context Protocol server on standard input and output. The
server exposes netlogo_load_model, netlogo_command, netlogo_report and
netlogo_kill_workspace, plus netlogo_journal when --journal is set.

Logs go to standard error.`,
		Aliases: []string{"mcp"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")

			ctx := cmd.Context()
			s, err := openSession(ctx, cmd, model)
			if err != nil {
				return err
			}
			defer s.close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "netlogolink",
				Version: version,
				Journal: s.journal,
				Session: s.id,
				Logger:  s.logger,
			}, s.sim)
			if err != nil {
				return err
			}
			s.logger.Info("mcp server ready", "workspace", s.link.ID())
			return server.Run(ctx)
		},
	}
	cmd.Flags().String("model", "", "Model file to load first")
	return cmd
}

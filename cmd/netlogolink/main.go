package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	// An interrupt cancels the command's context; each command then stops
	// the engine through session.close before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netlogolink",
		Short: "Drive the NetLogo simulation engine from the command line",
		Long: `netlogolink starts NetLogo inside a managed JVM and runs commands and
reporters against a workspace.

The engine installation is found from --home, NETLOGO_HOME or netlogo.home
in ~/.netlogolink/config.yaml, in that order of precedence.`,
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.Bool("json", false, "Output as JSON")
	flags.String("config", "", "Config file (default ~/.netlogolink/config.yaml)")
	flags.String("home", "", "NetLogo installation directory")
	flags.String("link-jar", "", "Link program archive (default <home>/netlogolink.jar)")
	flags.Bool("gui", false, "Open the workspace with the NetLogo GUI")
	flags.Bool("3d", false, "Open the workspace in 3-D mode")
	flags.String("max-heap", "", "JVM maximum heap, e.g. 2g")
	flags.Duration("timeout", 0, "Per-call timeout (0 waits indefinitely)")
	flags.String("log-level", "", "Log level: warn, info, debug, trace")
	flags.String("journal", "", "Record every engine call in this SQLite file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newEnvCmd(),
		newReportCmd(),
		newCommandCmd(),
		newRunCmd(),
		newREPLCmd(),
		newMCPServerCmd(),
		newJournalCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "netlogolink version %s\n", version)
			}
		},
	}
}

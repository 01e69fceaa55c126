package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/richinsley/netlogolink"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report REPORTER...",
		Short: "Evaluate a reporter and print its value",
		Long: `Evaluate a NetLogo reporter, optionally after loading a model and running
setup commands.

Examples:
  netlogolink report "2 + 2"
  netlogolink report --model wolf-sheep.nlogo --setup setup --setup "repeat 100 [ go ]" "count sheep"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			setup, _ := cmd.Flags().GetStringArray("setup")
			jsonOut, _ := cmd.Flags().GetBool("json")

			ctx := cmd.Context()
			s, err := openSession(ctx, cmd, model)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.commands(ctx, setup); err != nil {
				return err
			}

			callCtx, cancel := s.callContext(ctx)
			defer cancel()
			v, err := s.sim.Query(callCtx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v, jsonOut)
		},
	}
	cmd.Flags().String("model", "", "Model file to load first")
	cmd.Flags().StringArray("setup", nil, "Command to run before the reporter (repeatable)")
	return cmd
}

func newCommandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "command COMMAND...",
		Short: "Run a command in a fresh workspace",
		Long: `Run NetLogo commands, optionally after loading a model. Each argument is
a separate command.

Examples:
  netlogolink command --model fire.nlogo setup "repeat 50 [ go ]"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")

			ctx := cmd.Context()
			s, err := openSession(ctx, cmd, model)
			if err != nil {
				return err
			}
			defer s.close()

			return s.commands(ctx, args)
		},
	}
	cmd.Flags().String("model", "", "Model file to load first")
	return cmd
}

// commands runs each command in order, stopping at the first error.
func (s *session) commands(ctx context.Context, commands []string) error {
	for _, c := range commands {
		callCtx, cancel := s.callContext(ctx)
		err := s.sim.Command(callCtx, c)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
	}
	return nil
}

// printValue writes v as NetLogo prints it, or as {"kind", "value"} JSON.
func printValue(w io.Writer, v netlogolink.Value, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(map[string]interface{}{
			"kind":  v.Kind().String(),
			"value": v,
		})
	}
	_, err := fmt.Fprintln(w, v.String())
	return err
}

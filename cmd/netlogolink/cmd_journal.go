package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/richinsley/netlogolink/internal/journal"
	"github.com/spf13/cobra"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recorded engine calls",
		Long: `List the newest entries of the operation journal, or per-operation totals
with --summary. The journal is chosen with --journal, NETLOGOLINK_JOURNAL or
journal.path in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")
			sessionID, _ := cmd.Flags().GetString("session")
			summary, _ := cmd.Flags().GetBool("summary")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Journal.Path == "" {
				return fmt.Errorf("no journal configured: use --journal or NETLOGOLINK_JOURNAL")
			}
			j, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if summary {
				ops, err := j.Summary(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(ops)
				}
				for _, op := range ops {
					fmt.Fprintf(out, "%-14s %6d calls %6d failed  avg %v\n", op.Op, op.Calls, op.Failures, op.AvgDuration.Round(time.Microsecond))
				}
				return nil
			}

			entries, err := j.Recent(ctx, sessionID, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(entries)
			}
			for _, e := range entries {
				fmt.Fprintln(out, formatEntry(e))
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of entries")
	cmd.Flags().String("session", "", "Only show entries of this session")
	cmd.Flags().Bool("summary", false, "Show per-operation totals")
	return cmd
}

func formatEntry(e journal.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-13s %q", e.StartedAt.Local().Format("15:04:05.000"), e.Op, e.Input)
	switch {
	case e.Failed():
		fmt.Fprintf(&b, " -> %s: %s", e.ErrorClass, e.Error)
	case e.Result != "":
		fmt.Fprintf(&b, " -> %s", e.Result)
	}
	fmt.Fprintf(&b, " (%v)", e.Duration.Round(time.Microsecond))
	return b.String()
}

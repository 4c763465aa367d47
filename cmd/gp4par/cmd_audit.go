package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gp4par/gp4par/pkg/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View run provenance logs",
	Long: `View the provenance log of place-and-route runs.

Every run logs one hash-chained event per stage:
  - Timestamp, run ID, and stage (build_graphs ... emit)
	- Part, netlist path, and seed
  - Cross-connections consumed and final cost
  - Success/failure status

Examples:
  gp4par audit list --run design.json-seed1
  gp4par audit list --stage drc --failures
  gp4par audit list --last 24h`,
}

var (
	auditRunID   string
	auditStage   string
	auditPart    string
	auditLast    string
	auditLimit   int
	auditFailOnl bool
	auditOKOnly  bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			RunID:       auditRunID,
			Stage:       audit.Stage(auditStage),
			Part:        auditPart,
			Limit:       auditLimit,
			FailureOnly: auditFailOnl,
			SuccessOnly: auditOKOnly,
		}

		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if app.jsonOut {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tRUN\tSTAGE\tCOST\tSTATUS")
		fmt.Fprintln(w, "---------\t---\t-----\t----\t------")

		for _, event := range events {
			status := green("ok")
			if !event.Success {
				status = red("failed")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.RunID,
				event.Stage,
				event.Cost,
				status,
			)
		}
		w.Flush()

		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditRunID, "run", "", "Filter by run ID")
	auditListCmd.Flags().StringVar(&auditStage, "stage", "", "Filter by stage (build_graphs, apply_loc, initial_place, anneal, commit, drc, emit)")
	auditListCmd.Flags().StringVar(&auditPart, "part", "", "Filter by part")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 30m, 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailOnl, "failures", false, "Show only failed stages")
	auditListCmd.Flags().BoolVar(&auditOKOnly, "success", false, "Show only successful stages")

	auditCmd.AddCommand(auditListCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the pipeline run history",
	Long: `Runs lists recent pipeline passes, newest first, with their status and
totals. The history is append-only; finalized runs are never rewritten.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	runsCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	store, err := openState()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-8s  %6s  %-14s  %s\n",
		"ID", "Pipeline", "Status", "Added", "Started", "Duration")
	for _, r := range runs {
		dur := "-"
		if !r.Finished.IsZero() {
			dur = r.Finished.Sub(r.Started).Round(time.Second).String()
		}
		fmt.Printf("%-36s  %-10s  %-8s  %6d  %-14s  %s\n",
			r.ID, r.Pipeline, r.Status, r.Added,
			humanize.Time(r.Started), dur)
	}
	return nil
}

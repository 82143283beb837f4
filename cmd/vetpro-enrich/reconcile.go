// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/vetpro-enrich/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <file>",
	Short: "Match an external catalog export against the disease catalog",
	Long: `Reconcile reads an external catalog export (a YAML or JSON list of entries
with a name and optional synonyms) and resolves each entry against the
catalog through the exact, alias, and fuzzy tiers.

With --create-missing, entries no tier could place are written as stub
disease files ready for curation.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().Bool("create-missing", false, "write stub files for unmatched entries")
	reconcileCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	entries, err := reconcile.LoadEntries(args[0])
	if err != nil {
		return err
	}

	repo, store, err := openPipeline()
	if err != nil {
		return err
	}
	defer store.Close()

	createMissing, _ := cmd.Flags().GetBool("create-missing")
	rec := &reconcile.Reconciler{Repo: repo, State: store}
	report, err := rec.Run(cmd.Context(), entries, reconcile.Options{CreateMissing: createMissing})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, r := range report.Results {
		switch {
		case r.Created:
			fmt.Printf("created    %-40s -> %s\n", r.Name, r.Slug)
		case r.Error != "":
			fmt.Printf("failed     %-40s %s\n", r.Name, r.Error)
		case r.Slug == "":
			fmt.Printf("unmatched  %s\n", r.Name)
		default:
			fmt.Printf("matched    %-40s -> %s (%s, %.2f)\n", r.Name, r.Slug, r.Method, r.Score)
		}
	}
	fmt.Printf("\n%d matched, %d unmatched, %d created, %d failed\n",
		report.Matched, report.Unmatched, report.Created, report.Failed)
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vetpro-enrich/internal/linkcheck"
)

var linkcheckCmd = &cobra.Command{
	Use:   "linkcheck",
	Short: "Probe outbound reference links across the catalog",
	Long: `Linkcheck issues a HEAD request (with a ranged GET fallback) against every
reference URL in the catalog through a small worker pool. Dead links are
findings, not errors: the pass always completes and records each failure in
the run history.`,
	RunE: runLinkcheck,
}

func init() {
	linkcheckCmd.Flags().Int("workers", 0, "size of the check pool (default 3)")
	linkcheckCmd.Flags().Duration("timeout", 0, "per-request timeout (default 10s)")

	rootCmd.AddCommand(linkcheckCmd)
}

func runLinkcheck(cmd *cobra.Command, args []string) error {
	repo, store, err := openPipeline()
	if err != nil {
		return err
	}
	defer store.Close()

	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = viper.GetInt("linkcheck.workers")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	c := &linkcheck.Checker{
		Repo:    repo,
		State:   store,
		HTTP:    httpClient(),
		Workers: workers,
		Timeout: timeout,
	}

	report, err := c.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, f := range report.Failures {
		if f.Error != "" {
			fmt.Printf("dead  %-30s %s (%s)\n", f.Slug, f.URL, f.Error)
		} else {
			fmt.Printf("dead  %-30s %s (HTTP %d)\n", f.Slug, f.URL, f.Status)
		}
	}
	fmt.Printf("%d links checked, %d dead\n", report.Checked, len(report.Failures))
	return nil
}

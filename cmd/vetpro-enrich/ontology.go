// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vetpro-enrich/internal/enrich"
	"github.com/pdiddy/vetpro-enrich/internal/ontology"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

var ontologyCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Map catalog entries onto the disease ontology",
	Long: `Ontology searches the term-lookup service for each unmapped disease in the
batch, confirms the best hit against the disease's own names, and appends the
mapping plus its exact cross-references to the disease file.`,
	RunE: runOntology,
}

func init() {
	ontologyCmd.Flags().String("disease", "", "process a single disease by slug")
	ontologyCmd.Flags().Int("batch-size", 0, "bound the batch (default: all eligible)")
	ontologyCmd.Flags().Bool("dry-run", false, "report would-be additions without writing")

	rootCmd.AddCommand(ontologyCmd)
}

func runOntology(cmd *cobra.Command, args []string) error {
	repo, store, err := openPipeline()
	if err != nil {
		return err
	}
	defer store.Close()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	proc := &enrich.Ontology{
		Repo: repo,
		Client: &ontology.Client{
			HTTP: httpClient(),
			Cfg: types.OntologyConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:   viper.GetDuration("http.timeout"),
					UserAgent: defaultUserAgent,
				},
				Ontology: viper.GetString("ontology.ontology"),
			},
		},
		DryRun: dryRun,
	}

	pipe := &enrich.Pipeline{Repo: repo, State: store, Out: os.Stdout}
	run, err := pipe.Run(cmd.Context(), proc, batchOptions(cmd))
	if err != nil {
		return err
	}
	if run.Status == types.RunPartial {
		fmt.Fprintf(os.Stderr, "run %s finished with errors; see the runs subcommand\n", run.ID)
	}
	return nil
}

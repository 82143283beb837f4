// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/enrich"
	"github.com/pdiddy/vetpro-enrich/internal/pubmed"
	"github.com/pdiddy/vetpro-enrich/internal/rank"
	"github.com/pdiddy/vetpro-enrich/internal/secrets"
	"github.com/pdiddy/vetpro-enrich/internal/state"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch literature citations and merge them as reference links",
	Long: `Enrich queries the bibliographic provider for each disease in the batch,
selects the best new citations under the per-entity cap, and appends them to
the disease files. Curated content is never modified; reruns add nothing new.

Without --disease the batch visits the neediest entries first (fewest
pipeline-sourced links). With --resume the batch continues in slug order
after the last checkpoint.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("disease", "", "process a single disease by slug")
	enrichCmd.Flags().Int("batch-size", 0, "bound the batch (default: all eligible)")
	enrichCmd.Flags().Bool("resume", false, "continue after the last checkpoint")
	enrichCmd.Flags().Bool("dry-run", false, "report would-be additions without writing")
	enrichCmd.Flags().Int("min-year", 0, "drop citations published before this year")
	enrichCmd.Flags().String("api-key", "", "NCBI API key (default: .secrets/ncbi-api-key)")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	repo, store, err := openPipeline()
	if err != nil {
		return err
	}
	defer store.Close()

	apiKey, _ := cmd.Flags().GetString("api-key")
	minYear, _ := cmd.Flags().GetInt("min-year")
	if minYear == 0 {
		minYear = viper.GetInt("pubmed.min_year")
	}

	cfg := types.PubMedConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: defaultUserAgent,
		},
		APIKey:     secretDefault(secrets.KeyNCBI, apiKey),
		MaxResults: viper.GetInt("pubmed.max_results"),
		MinYear:    minYear,
	}
	if cfg.APIKey == "" {
		slog.Debug("no NCBI API key; using the shared request rate")
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	proc := &enrich.References{
		Repo:    repo,
		Client:  &pubmed.Client{HTTP: httpClient(), Cfg: cfg},
		Policy:  rank.NewPolicy(rankConfig()),
		MinYear: cfg.MinYear,
		DryRun:  dryRun,
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

// rankConfig builds the admission-cap policy from config.
func rankConfig() types.RankConfig {
	return types.RankConfig{
		MaxPerRun:     viper.GetInt("rank.max_per_run"),
		RareMaxPerRun: viper.GetInt("rank.rare_max_per_run"),
	}
}

// batchOptions reads the batch-selection flags shared by the pipeline
// commands.
func batchOptions(cmd *cobra.Command) enrich.Options {
	slug, _ := cmd.Flags().GetString("disease")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	resume, _ := cmd.Flags().GetBool("resume")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return enrich.Options{
		Slug:      slug,
		BatchSize: batchSize,
		Resume:    resume,
		DryRun:    dryRun,
	}
}

// openPipeline opens the catalog and the state store together.
func openPipeline() (*catalog.Repository, *state.Store, error) {
	repo, err := openCatalog()
	if err != nil {
		return nil, nil, err
	}
	store, err := openState()
	if err != nil {
		return nil, nil, err
	}
	return repo, store, nil
}

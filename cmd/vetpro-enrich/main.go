// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the vetpro-enrich CLI.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/secrets"
	"github.com/pdiddy/vetpro-enrich/internal/state"
	"github.com/pdiddy/vetpro-enrich/pkg/logger"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "vetpro-enrich/0.1"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback
// otherwise. A non-empty fallback (a flag or config value) wins.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the vetpro-enrich CLI.
var rootCmd = &cobra.Command{
	Use:   "vetpro-enrich",
	Short: "Enrich the curated disease catalog from external knowledge sources",
	Long: `vetpro-enrich augments a curated catalog of veterinary disease files with
literature references and ontology mappings fetched from external providers.

Each pipeline is a subcommand: enrich pulls literature citations, ontology maps
catalog entries onto a disease ontology, reconcile matches an external catalog
export, and linkcheck probes outbound reference links. Every pass is recorded
in a local run history; see the runs subcommand.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		slog.SetDefault(logger.New(types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		}))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./vetpro-enrich.yaml or ~/.config/vetpro-enrich/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("vetpro-enrich")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "vetpro-enrich"))
		}
	}

	viper.SetDefault("catalog.diseases_dir", "data/diseases")
	viper.SetDefault("state.db_path", "state/enrich.db")
	viper.SetDefault("http.timeout", 60*time.Second)
	viper.SetDefault("pubmed.max_results", 20)
	viper.SetDefault("ontology.ontology", "vto")
	viper.SetDefault("linkcheck.workers", 3)

	viper.SetEnvPrefix("VETPRO_ENRICH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openCatalog opens the disease catalog named by config.
func openCatalog() (*catalog.Repository, error) {
	return catalog.Open(types.CatalogConfig{
		DiseasesDir: viper.GetString("catalog.diseases_dir"),
	})
}

// openState opens the checkpoint and run-history store named by config,
// creating its parent directory on first use.
func openState() (*state.Store, error) {
	path := viper.GetString("state.db_path")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}
	return state.Open(types.StateConfig{DBPath: path})
}

func httpClient() *http.Client {
	return &http.Client{Timeout: viper.GetDuration("http.timeout")}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

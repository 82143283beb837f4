package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "vetpro-enrich/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the literature provider.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI key; with it the provider allows a
	// higher request rate and the politeness delay tightens accordingly.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults caps how many PMIDs a single search returns (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinYear drops citations published before this year; zero disables
	// the filter.
	MinYear int `json:"min_year" yaml:"min_year"`
}

// OntologyConfig holds settings for the ontology provider.
type OntologyConfig struct {
	HTTPConfig `yaml:",inline"`

	// Ontology is the vocabulary queried for disease terms (default "vto").
	Ontology string `json:"ontology" yaml:"ontology"`
}

// RankConfig holds the admission-cap policy for the selector. The exact
// breakpoints are tuned empirically and configurable; only the shape is
// fixed: fewer existing links means a higher cap, saturating at MaxPerRun.
type RankConfig struct {
	// MaxPerRun is the ordinary per-entity admission ceiling (default 3).
	MaxPerRun int `json:"max_per_run" yaml:"max_per_run"`

	// RareMaxPerRun is the ceiling for diseases flagged rare (default 5).
	RareMaxPerRun int `json:"rare_max_per_run" yaml:"rare_max_per_run"`

	// Breakpoints maps existing-link-count thresholds to caps, evaluated
	// in ascending threshold order. Empty uses the built-in defaults.
	Breakpoints []CapBreakpoint `json:"breakpoints,omitempty" yaml:"breakpoints,omitempty"`
}

// CapBreakpoint grants Cap new admissions to entities holding at most
// UpTo existing qualifying links.
type CapBreakpoint struct {
	UpTo int `json:"up_to" yaml:"up_to"`
	Cap  int `json:"cap" yaml:"cap"`
}

// CatalogConfig holds settings for the disease catalog repository.
type CatalogConfig struct {
	// DiseasesDir is the directory of per-disease YAML files.
	DiseasesDir string `json:"diseases_dir" yaml:"diseases_dir"`
}

// StateConfig holds settings for the checkpoint and run-history store.
type StateConfig struct {
	// DBPath is the SQLite file location (default "state/enrich.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// LinkCheckConfig holds settings for the outbound link health checker.
type LinkCheckConfig struct {
	HTTPConfig `yaml:",inline"`

	// Workers is the fixed size of the check pool (default 3).
	Workers int `json:"workers" yaml:"workers"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
	State     StateConfig     `json:"state" yaml:"state"`
	PubMed    PubMedConfig    `json:"pubmed" yaml:"pubmed"`
	Ontology  OntologyConfig  `json:"ontology" yaml:"ontology"`
	Rank      RankConfig      `json:"rank" yaml:"rank"`
	LinkCheck LinkCheckConfig `json:"linkcheck" yaml:"linkcheck"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

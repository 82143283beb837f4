// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog reads the curated disease YAML files and merges
// pipeline-sourced references into them without touching authored content.
//
// The repository is the only path between the pipeline and the on-disk
// catalog: reads parse whole files, writes are textual block insertions so
// every authored byte survives the round trip.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// Repository is the catalog access object handed to the orchestrator and
// merge engine.
type Repository struct {
	dir string
}

// Open validates the diseases directory and returns a repository over it.
func Open(cfg types.CatalogConfig) (*Repository, error) {
	info, err := os.Stat(cfg.DiseasesDir)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening catalog: %s is not a directory", cfg.DiseasesDir)
	}
	return &Repository{dir: cfg.DiseasesDir}, nil
}

// Dir returns the diseases directory.
func (r *Repository) Dir() string { return r.dir }

func (r *Repository) path(slug string) string {
	return filepath.Join(r.dir, slug+".yaml")
}

// List loads every disease file, sorted by slug. A file that fails to parse
// is a catalog-level error: the caller cannot safely enrich a catalog it
// cannot read.
func (r *Repository) List() ([]*types.Disease, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog directory: %w", err)
	}

	var diseases []*types.Disease
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		d, err := r.load(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		diseases = append(diseases, d)
	}

	sort.Slice(diseases, func(i, j int) bool { return diseases[i].Slug < diseases[j].Slug })
	return diseases, nil
}

// Get loads a single disease by slug.
func (r *Repository) Get(slug string) (*types.Disease, error) {
	return r.load(r.path(slug))
}

func (r *Repository) load(path string) (*types.Disease, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var d types.Disease
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if d.Slug == "" {
		d.Slug = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	return &d, nil
}

// pmidDigits extracts the numeric identifier from any PMID representation.
var pmidDigits = regexp.MustCompile(`[0-9]+`)

// NormalizePMID reduces every identifier representation to its canonical
// bare-digit form: "31452104", "PMID: 31452104", and
// "https://pubmed.ncbi.nlm.nih.gov/31452104/" are the same identifier.
func NormalizePMID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "pubmed.ncbi.nlm.nih.gov/"); i >= 0 {
		s = s[i+len("pubmed.ncbi.nlm.nih.gov/"):]
	}
	return pmidDigits.FindString(s)
}

// PresentPMIDs returns the normalized identifier set of every reference
// already on the disease, curated and pipeline-sourced alike.
func PresentPMIDs(d *types.Disease) map[string]bool {
	present := make(map[string]bool)
	for _, ref := range d.References {
		if id := NormalizePMID(ref.PMID); id != "" {
			present[id] = true
		}
	}
	return present
}

// PubMedLinkCount counts the pipeline-sourced references on a disease; the
// cap policy keys off this, not the curated links.
func PubMedLinkCount(d *types.Disease) int {
	n := 0
	for _, ref := range d.References {
		if ref.Source == types.SourcePubMed {
			n++
		}
	}
	return n
}

// CreateStub writes a new minimal disease file for reconciliation's
// construct-new-entries mode. It refuses to overwrite an existing file.
func (r *Repository) CreateStub(d *types.Disease) error {
	path := r.path(d.Slug)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("creating %s: file already exists", path)
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", d.Slug, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

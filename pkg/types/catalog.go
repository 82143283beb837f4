// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the vetpro-enrich pipeline:
// the disease catalog entities read from the curated YAML files, the normalized
// records produced by external providers, and the run/checkpoint bookkeeping
// persisted between enrichment passes.
package types

import (
	"strings"

	"go.yaml.in/yaml/v3"
)

// Alias is an alternative name for a disease, optionally tagged with a
// language code. Catalog files store aliases either as plain strings or as
// {alias, language} mappings; the repository normalizes both forms into this
// struct.
type Alias struct {
	Alias    string `json:"alias" yaml:"alias"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// UnmarshalYAML accepts both authored forms: a bare string stays an
// untagged alias, a mapping decodes field by field.
func (a *Alias) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&a.Alias)
	}
	type plain Alias
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*a = Alias(p)
	return nil
}

// Enrichment is the provenance marker set on a disease the first time the
// automated pipeline touches it. Curated fields stay byte-identical; this
// block is the only entity-level field the pipeline may write, and only once.
type Enrichment struct {
	// AutoSourced reports that at least one reference or mapping on this
	// disease was added by the pipeline rather than a curator.
	AutoSourced bool `json:"autoSourced" yaml:"autoSourced"`

	// FirstRun is the RFC 3339 date of the run that set the marker.
	FirstRun string `json:"firstRun,omitempty" yaml:"firstRun,omitempty"`
}

// Disease is a canonical catalog entry. The pipeline treats every field not
// owned by it (description, clinical sections, curated references) as
// read-only input; only References, OntologyMappings, and the Enrichment
// marker ever gain new entries, and existing entries are never rewritten.
type Disease struct {
	// Slug is the stable key: lowercase, hyphen-separated, unique across
	// the catalog, and also the YAML filename stem.
	Slug string `json:"slug" yaml:"slug"`

	// NameEn is the primary English name.
	NameEn string `json:"nameEn" yaml:"nameEn"`

	// NameZh is the localized (Chinese) display name, if present.
	NameZh string `json:"nameZh,omitempty" yaml:"nameZh,omitempty"`

	// BodySystem groups diseases for browsing (e.g. "cardiovascular").
	BodySystem string `json:"bodySystem,omitempty" yaml:"bodySystem,omitempty"`

	// Aliases lists alternative names and translations.
	Aliases []Alias `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Rare marks under-represented diseases; the selector grants these a
	// higher per-run admission cap.
	Rare bool `json:"rare,omitempty" yaml:"rare,omitempty"`

	// References holds literature links, curated and pipeline-sourced.
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`

	// OntologyMappings holds term mappings into external vocabularies.
	OntologyMappings []OntologyMapping `json:"ontologyMappings,omitempty" yaml:"ontologyMappings,omitempty"`

	// Enrichment is nil until the pipeline first adds content.
	Enrichment *Enrichment `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
}

// SearchTerms returns the English terms usable as provider queries and
// matching inputs: primary name, slug words, and English (or untagged)
// aliases. Very short terms produce false positives downstream and are left
// to the caller to filter.
func (d *Disease) SearchTerms() []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(t string) {
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			return
		}
		seen[key] = true
		terms = append(terms, t)
	}

	add(d.NameEn)
	if d.Slug != "" {
		add(strings.ReplaceAll(d.Slug, "-", " "))
	}
	for _, a := range d.Aliases {
		if a.Language == "" || a.Language == "en" {
			add(a.Alias)
		}
	}
	return terms
}

// ReferenceSource identifies who created a reference.
const (
	// SourceCurated marks a human-authored reference.
	SourceCurated = "curated"
	// SourcePubMed marks a pipeline-sourced reference.
	SourcePubMed = "pubmed"
)

// Reference is a persisted link between a disease and a citation. No two
// references under one disease may share a PMID once identifiers are
// normalized. Curated references are never removed or altered.
type Reference struct {
	PMID        string   `json:"pmid" yaml:"pmid"`
	DOI         string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	Title       string   `json:"title" yaml:"title"`
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal     string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year        int      `json:"year,omitempty" yaml:"year,omitempty"`
	ArticleType string   `json:"articleType,omitempty" yaml:"articleType,omitempty"`
	OpenAccess  bool     `json:"openAccess,omitempty" yaml:"openAccess,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`

	// Sections tags the curated sections this reference supports
	// (e.g. "diagnosis", "treatment").
	Sections []string `json:"sections,omitempty" yaml:"sections,omitempty"`

	// Source is "curated" for human-authored links, "pubmed" for
	// pipeline-sourced ones.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// OntologyMapping links a disease to a term in an external vocabulary.
type OntologyMapping struct {
	TermID string `json:"termId" yaml:"termId"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`

	// Scope is the confidence tier of the mapping: exact, broad, or narrow.
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`

	// Source is "curated" or the pipeline name that produced the mapping.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

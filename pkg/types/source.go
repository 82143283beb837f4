// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ArticleType classifies a citation by its publication type tags.
type ArticleType string

const (
	TypeConsensus  ArticleType = "consensus"
	TypeGuideline  ArticleType = "guideline"
	TypeReview     ArticleType = "review"
	TypeCaseReport ArticleType = "case-report"
	TypeResearch   ArticleType = "research"
)

// Priority returns the selection rank of the article type; lower sorts first.
// Unknown types rank with research.
func (t ArticleType) Priority() int {
	switch t {
	case TypeConsensus:
		return 0
	case TypeGuideline:
		return 1
	case TypeReview:
		return 2
	case TypeCaseReport:
		return 3
	default:
		return 4
	}
}

// Citation is a normalized bibliographic record from a literature provider.
// Citations are transient: recomputed every run, persisted only once admitted
// as a Reference.
type Citation struct {
	// PMID is the external identifier, bare digits.
	PMID string `json:"pmid" yaml:"pmid"`

	// DOI is set when the provider reports one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMCID is the PubMed Central identifier, when the full text is
	// deposited there.
	PMCID string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`

	// Title is flattened to plain text; inline markup is stripped.
	Title string `json:"title" yaml:"title"`

	// Authors are display strings in "LastName Initials" form.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year    int    `json:"year,omitempty" yaml:"year,omitempty"`

	// ArticleType is derived from publication-type tags, with a
	// title-keyword fallback.
	ArticleType ArticleType `json:"articleType" yaml:"articleType"`

	// OpenAccess is true when a PMCID is present.
	OpenAccess bool `json:"openAccess" yaml:"openAccess"`
}

// CrossRefScope is the confidence tier of an ontology cross-reference.
type CrossRefScope string

const (
	ScopeExact  CrossRefScope = "exact"
	ScopeBroad  CrossRefScope = "broad"
	ScopeNarrow CrossRefScope = "narrow"
)

// CrossRef maps an ontology term into another vocabulary.
type CrossRef struct {
	// Source is the target vocabulary (e.g. "SNOMEDCT", "MESH").
	Source string        `json:"source" yaml:"source"`
	Code   string        `json:"code" yaml:"code"`
	Label  string        `json:"label,omitempty" yaml:"label,omitempty"`
	Scope  CrossRefScope `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// Term is a normalized ontology record.
type Term struct {
	ID         string     `json:"id" yaml:"id"`
	Label      string     `json:"label" yaml:"label"`
	Definition string     `json:"definition,omitempty" yaml:"definition,omitempty"`
	Synonyms   []string   `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	XRefs      []CrossRef `json:"xrefs,omitempty" yaml:"xrefs,omitempty"`
}

// TermHit is one ranked result from the ontology free-text search endpoint.
type TermHit struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ontology queries the term-lookup service and normalizes its
// responses into the pipeline's term shape.
package ontology

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/vetpro-enrich/internal/httputil"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// Endpoints. Declared as vars so tests can substitute an httptest server.
var (
	termBase   = "https://api.ontolookup.org/v2/ontologies"
	searchBase = "https://api.ontolookup.org/v2/search"
)

// Client talks to the ontology provider.
type Client struct {
	HTTP *http.Client
	Cfg  types.OntologyConfig
}

func (c *Client) ontology() string {
	if c.Cfg.Ontology != "" {
		return c.Cfg.Ontology
	}
	return "vto"
}

// termResponse is the JSON shape of the term-lookup endpoint.
type termResponse struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Synonyms    []string `json:"synonyms"`
	XRefs       []struct {
		Database string `json:"database"`
		Code     string `json:"code"`
		Label    string `json:"label"`
		Scope    string `json:"scope"`
	} `json:"xrefs"`
}

// NormalizeID uppercases the prefix and standardizes the separator, so
// "vto_0001234" and "VTO:0001234" name the same term.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.ReplaceAll(id, "_", ":")
	if i := strings.IndexByte(id, ':'); i > 0 {
		return strings.ToUpper(id[:i]) + id[i:]
	}
	return id
}

// Lookup fetches a single term by its normalized identifier.
func (c *Client) Lookup(ctx context.Context, id string) (types.Term, error) {
	id = NormalizeID(id)
	u := fmt.Sprintf("%s/%s/terms/%s", termBase, c.ontology(), url.PathEscape(id))

	body, err := httputil.Fetch(ctx, c.HTTP, u, "application/json")
	if err != nil {
		return types.Term{}, fmt.Errorf("ontology lookup %s: %w", id, err)
	}

	var tr termResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return types.Term{}, fmt.Errorf("parsing ontology term %s: %w", id, err)
	}

	term := types.Term{
		ID:         NormalizeID(tr.ID),
		Label:      strings.TrimSpace(tr.Label),
		Definition: strings.TrimSpace(tr.Description),
		Synonyms:   tr.Synonyms,
	}
	for _, x := range tr.XRefs {
		term.XRefs = append(term.XRefs, types.CrossRef{
			Source: x.Database,
			Code:   x.Code,
			Label:  x.Label,
			Scope:  normalizeScope(x.Scope),
		})
	}
	return term, nil
}

// searchResponse is the JSON shape of the free-text search endpoint.
type searchResponse struct {
	Results []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"results"`
}

// Search runs the free-text endpoint and returns ranked label/identifier
// pairs in provider order.
func (c *Client) Search(ctx context.Context, text string) ([]types.TermHit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty ontology search text")
	}

	params := url.Values{
		"q":        {text},
		"ontology": {c.ontology()},
	}
	body, err := httputil.Fetch(ctx, c.HTTP, searchBase+"?"+params.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("ontology search: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parsing ontology search response: %w", err)
	}

	var hits []types.TermHit
	for _, r := range sr.Results {
		if r.ID == "" {
			continue
		}
		hits = append(hits, types.TermHit{ID: NormalizeID(r.ID), Label: r.Label})
	}
	return hits, nil
}

// normalizeScope maps provider scope spellings onto the catalog's
// confidence tiers, defaulting unknown values to broad.
func normalizeScope(s string) types.CrossRefScope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "equivalent":
		return types.ScopeExact
	case "narrow", "narrower":
		return types.ScopeNarrow
	default:
		return types.ScopeBroad
	}
}

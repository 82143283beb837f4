// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities endpoints and normalizes
// citation payloads into the pipeline's uniform record shape.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/vetpro-enrich/internal/httputil"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// fetchBatchSize is the most identifiers one efetch round trip may carry.
const fetchBatchSize = 100

// Client talks to the literature provider.
type Client struct {
	HTTP *http.Client
	Cfg  types.PubMedConfig
}

// HasKey reports whether an elevated-rate credential is configured; callers
// use it to size their politeness delay.
func (c *Client) HasKey() bool { return c.Cfg.APIKey != "" }

// BuildQuery assembles the boolean search expression for a set of disease
// terms. Terms shorter than four characters are dropped: they match too
// broadly to be useful.
func BuildQuery(terms []string) string {
	var parts []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if len(t) < 4 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%q[Title/Abstract]", t))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " OR ") + ") AND veterinary[sb]"
}

// esearchResponse is the JSON shape of the esearch endpoint.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search runs the query endpoint and returns matching PMIDs, newest first.
// minYear, when nonzero, becomes a publication-date floor.
func (c *Client) Search(ctx context.Context, query string, minYear int) ([]string, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	maxResults := c.Cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmode": {"json"},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"sort":    {"pub_date"},
	}
	if minYear > 0 {
		params.Set("datetype", "pdat")
		params.Set("mindate", fmt.Sprintf("%d", minYear))
		params.Set("maxdate", "3000")
	}
	if c.Cfg.APIKey != "" {
		params.Set("api_key", c.Cfg.APIKey)
	}

	body, err := httputil.Fetch(ctx, c.HTTP, esearchBase+"?"+params.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}

	var esr esearchResponse
	if err := json.Unmarshal(body, &esr); err != nil {
		return nil, fmt.Errorf("parsing pubmed search response: %w", err)
	}
	return esr.Result.IDList, nil
}

// FetchCitations retrieves citation detail for the given PMIDs, batching up
// to 100 identifiers per round trip. Round trips remain sequential; the
// caller inserts its politeness delay between them. Individual malformed
// articles are dropped by the normalizer, never aborting the batch.
func (c *Client) FetchCitations(ctx context.Context, pmids []string) ([]types.Citation, error) {
	var citations []types.Citation
	for start := 0; start < len(pmids); start += fetchBatchSize {
		end := min(start+fetchBatchSize, len(pmids))

		if start > 0 {
			select {
			case <-ctx.Done():
				return citations, ctx.Err()
			case <-time.After(httputil.Politeness(c.HasKey())):
			}
		}

		params := url.Values{
			"db":      {"pubmed"},
			"id":      {strings.Join(pmids[start:end], ",")},
			"retmode": {"xml"},
		}
		if c.Cfg.APIKey != "" {
			params.Set("api_key", c.Cfg.APIKey)
		}

		body, err := httputil.Fetch(ctx, c.HTTP, efetchBase+"?"+params.Encode(), "text/xml")
		if err != nil {
			return citations, fmt.Errorf("pubmed fetch: %w", err)
		}

		batch, err := ParseCitations(body)
		if err != nil {
			return citations, fmt.Errorf("parsing pubmed payload: %w", err)
		}
		citations = append(citations, batch...)
	}
	return citations, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/httputil"
	"github.com/pdiddy/vetpro-enrich/internal/pubmed"
	"github.com/pdiddy/vetpro-enrich/internal/rank"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// References is the literature pass: query the bibliographic provider for
// each disease, select the best citations under the cap policy, and merge
// them as pipeline-sourced reference links.
type References struct {
	Repo    *catalog.Repository
	Client  *pubmed.Client
	Policy  *rank.Policy
	MinYear int
	DryRun  bool
}

func (r *References) Name() string { return "enrich" }

// Delay sizes the pause between diseases to the provider's rate ceiling.
func (r *References) Delay() time.Duration {
	return httputil.Politeness(r.Client.HasKey())
}

// Process runs fetch, normalize, rank, and merge for one disease. The cap
// is computed before fetching; diseases already at their link budget are
// skipped without spending a provider call.
func (r *References) Process(ctx context.Context, d *types.Disease) (int, error) {
	budget := r.Policy.Cap(catalog.PubMedLinkCount(d), d.Rare)
	if budget == 0 {
		return 0, nil
	}

	query := pubmed.BuildQuery(d.SearchTerms())
	if query == "" {
		return 0, nil
	}

	pmids, err := r.Client.Search(ctx, query, r.MinYear)
	if err != nil {
		return 0, fmt.Errorf("searching literature: %w", err)
	}
	if len(pmids) == 0 {
		return 0, nil
	}

	sleep(r.Delay())

	citations, err := r.Client.FetchCitations(ctx, pmids)
	if err != nil {
		return 0, fmt.Errorf("fetching citations: %w", err)
	}

	admitted := rank.Select(citations, catalog.PresentPMIDs(d), budget)
	if r.DryRun {
		return len(admitted), nil
	}

	res, err := r.Repo.MergeCitations(d.Slug, admitted)
	if err != nil {
		return res.Added, fmt.Errorf("merging references: %w", err)
	}
	return res.Added, nil
}

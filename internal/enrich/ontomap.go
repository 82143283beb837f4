// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/httputil"
	"github.com/pdiddy/vetpro-enrich/internal/ontology"
	"github.com/pdiddy/vetpro-enrich/internal/resolve"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// Ontology is the term-mapping pass: search the ontology provider for each
// disease name, confirm the best hit against the disease's own names, and
// merge the mapping plus its exact cross-references.
type Ontology struct {
	Repo   *catalog.Repository
	Client *ontology.Client
	DryRun bool
}

func (o *Ontology) Name() string { return "ontology" }

func (o *Ontology) Delay() time.Duration {
	return httputil.Politeness(false)
}

// Process maps one disease onto the ontology. A hit below the
// reconciliation threshold is not an error; the disease is left unmapped
// for this pass.
func (o *Ontology) Process(ctx context.Context, d *types.Disease) (int, error) {
	if len(d.OntologyMappings) > 0 {
		// Already mapped, curated or earlier pass; nothing to query.
		return 0, nil
	}

	hits, err := o.Client.Search(ctx, d.NameEn)
	if err != nil {
		return 0, fmt.Errorf("searching ontology: %w", err)
	}

	hit, score := bestHit(d, hits)
	if hit == nil {
		return 0, nil
	}

	sleep(o.Delay())

	term, err := o.Client.Lookup(ctx, hit.ID)
	if err != nil {
		return 0, fmt.Errorf("looking up term %s: %w", hit.ID, err)
	}

	scope := types.ScopeBroad
	if score >= 1.0 {
		scope = types.ScopeExact
	}
	mappings := []types.OntologyMapping{{
		TermID: term.ID,
		Label:  term.Label,
		Scope:  string(scope),
		Source: o.Name(),
	}}
	for _, x := range term.XRefs {
		if x.Scope != types.ScopeExact {
			continue
		}
		mappings = append(mappings, types.OntologyMapping{
			TermID: x.Source + ":" + x.Code,
			Label:  x.Label,
			Scope:  string(x.Scope),
			Source: o.Name(),
		})
	}

	if o.DryRun {
		return len(mappings), nil
	}

	res, err := o.Repo.MergeMappings(d.Slug, mappings)
	if err != nil {
		return res.Added, fmt.Errorf("merging mappings: %w", err)
	}
	return res.Added, nil
}

// bestHit scores each ranked hit against the disease's names and returns
// the highest scorer above the reconciliation threshold. Exact normalized
// equality scores 1.0; otherwise the bigram Dice coefficient decides.
func bestHit(d *types.Disease, hits []types.TermHit) (*types.TermHit, float64) {
	names := append([]string{d.NameEn}, func() []string {
		var out []string
		for _, a := range d.Aliases {
			if a.Language == "" || a.Language == "en" {
				out = append(out, a.Alias)
			}
		}
		return out
	}()...)

	var best *types.TermHit
	bestScore := 0.0
	for i := range hits {
		for _, name := range names {
			var score float64
			if resolve.Normalize(name) == resolve.Normalize(hits[i].Label) {
				score = 1.0
			} else {
				score = resolve.DiceCoefficient(name, hits[i].Label)
			}
			if score > bestScore {
				best = &hits[i]
				bestScore = score
			}
		}
	}

	if bestScore > resolve.ThresholdReconcile {
		return best, bestScore
	}
	return nil, 0
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders candidate citations by the admission policy and caps
// how many a disease may gain per run.
package rank

import (
	"sort"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// defaultBreakpoints is the empirically tuned step function: diseases with
// fewer existing links get more admissions, saturating at the per-run
// ceiling.
var defaultBreakpoints = []types.CapBreakpoint{
	{UpTo: 0, Cap: 3},
	{UpTo: 2, Cap: 2},
	{UpTo: 4, Cap: 1},
}

// Policy computes per-disease admission caps.
type Policy struct {
	breakpoints []types.CapBreakpoint
	maxPerRun   int
	rareMax     int
}

// NewPolicy builds a cap policy from config, falling back to the defaults
// for unset fields.
func NewPolicy(cfg types.RankConfig) *Policy {
	p := &Policy{
		breakpoints: cfg.Breakpoints,
		maxPerRun:   cfg.MaxPerRun,
		rareMax:     cfg.RareMaxPerRun,
	}
	if len(p.breakpoints) == 0 {
		p.breakpoints = defaultBreakpoints
	}
	if p.maxPerRun <= 0 {
		p.maxPerRun = 3
	}
	if p.rareMax <= 0 {
		p.rareMax = 5
	}
	sort.Slice(p.breakpoints, func(i, j int) bool {
		return p.breakpoints[i].UpTo < p.breakpoints[j].UpTo
	})
	return p
}

// Cap returns how many new references a disease may admit this run, given
// how many qualifying links it already holds. Rare diseases get a higher
// ceiling; past the last breakpoint the cap is zero.
func (p *Policy) Cap(existing int, rare bool) int {
	for _, bp := range p.breakpoints {
		if existing <= bp.UpTo {
			c := min(bp.Cap, p.maxPerRun)
			if rare {
				c = min(c+p.rareMax-p.maxPerRun, p.rareMax)
			}
			return c
		}
	}
	return 0
}

// Select drops candidates already present under the entity, orders the rest
// by open access, article-type priority, then recency, and returns at most
// cap records. present holds normalized external identifiers.
func Select(candidates []types.Citation, present map[string]bool, cap int) []types.Citation {
	if cap <= 0 {
		return nil
	}

	var eligible []types.Citation
	for _, c := range candidates {
		if c.PMID == "" || present[c.PMID] {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.OpenAccess != b.OpenAccess {
			return a.OpenAccess
		}
		if pa, pb := a.ArticleType.Priority(), b.ArticleType.Priority(); pa != pb {
			return pa < pb
		}
		return a.Year > b.Year
	})

	if len(eligible) > cap {
		eligible = eligible[:cap]
	}
	return eligible
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile matches an external catalog export against the disease
// catalog and optionally constructs stub entries for the leftovers.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/resolve"
	"github.com/pdiddy/vetpro-enrich/internal/state"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// Entry is one record of an external catalog export.
type Entry struct {
	Name       string   `json:"name" yaml:"name"`
	Synonyms   []string `json:"synonyms" yaml:"synonyms"`
	BodySystem string   `json:"bodySystem" yaml:"bodySystem"`
}

// Result pairs an export entry with its resolution outcome.
type Result struct {
	Name    string  `json:"name"`
	Slug    string  `json:"slug,omitempty"`
	Method  string  `json:"method"`
	Score   float64 `json:"score,omitempty"`
	Created bool    `json:"created,omitempty"`

	// Error is set when a stub could not be written for this entry.
	Error string `json:"error,omitempty"`
}

// Report summarizes one reconciliation pass.
type Report struct {
	Matched   int      `json:"matched"`
	Unmatched int      `json:"unmatched"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed,omitempty"`
	Results   []Result `json:"results"`
}

// Options control a reconciliation pass.
type Options struct {
	// CreateMissing writes a stub disease file for every entry the
	// resolver could not place.
	CreateMissing bool
}

// Reconciler wires the catalog, the resolver, and the run history.
type Reconciler struct {
	Repo  *catalog.Repository
	State *state.Store
}

// LoadEntries reads an export file. JSON is detected by extension;
// everything else parses as YAML.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	var entries []Entry
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &entries)
	} else {
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing export %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// Run resolves every export entry at the reconciliation threshold and
// records the pass in the run history. Entries without a name are skipped.
func (r *Reconciler) Run(ctx context.Context, entries []Entry, opts Options) (*Report, error) {
	run, err := r.State.StartRun(ctx, "reconcile")
	if err != nil {
		return nil, err
	}

	diseases, err := r.Repo.List()
	if err != nil {
		detail, _ := json.Marshal(map[string]string{"error": err.Error()})
		if ferr := r.State.FinishRun(ctx, run, types.RunFailed, 0, 0, string(detail)); ferr != nil {
			return nil, fmt.Errorf("%w (finalizing run: %v)", err, ferr)
		}
		return nil, err
	}

	resolver := resolve.New(resolve.ThresholdReconcile)
	report := &Report{}

	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}

		m := resolver.Resolve(e.Name, e.Synonyms, diseases)
		res := Result{
			Name:   e.Name,
			Slug:   m.Slug,
			Method: string(m.Method),
			Score:  m.Score,
		}

		if m.Method == resolve.MethodNone {
			report.Unmatched++
			if opts.CreateMissing {
				// A failed stub write is isolated to its entry;
				// the pass continues and the run still finalizes.
				if err := r.createStub(e); err != nil {
					res.Error = err.Error()
					report.Failed++
				} else {
					res.Slug = resolve.Slugify(e.Name)
					res.Created = true
					report.Created++
				}
			}
		} else {
			report.Matched++
		}
		report.Results = append(report.Results, res)
	}

	detail, _ := json.Marshal(map[string]int{
		"matched":   report.Matched,
		"unmatched": report.Unmatched,
		"created":   report.Created,
		"failed":    report.Failed,
	})
	status := types.RunSuccess
	if report.Failed > 0 {
		status = types.RunPartial
	}
	if err := r.State.FinishRun(ctx, run, status, report.Created, 0, string(detail)); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Reconciler) createStub(e Entry) error {
	d := &types.Disease{
		Slug:       resolve.Slugify(e.Name),
		NameEn:     e.Name,
		BodySystem: e.BodySystem,
	}
	for _, s := range e.Synonyms {
		if strings.TrimSpace(s) == "" {
			continue
		}
		d.Aliases = append(d.Aliases, types.Alias{Alias: s, Language: "en"})
	}
	return r.Repo.CreateStub(d)
}

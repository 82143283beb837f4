// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich drives batches of catalog diseases through the provider,
// resolver, selector, and merge stages, with a resumable checkpoint and a
// per-run audit record.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/state"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// sleep is the politeness pause between entities. Tests override it.
var sleep = time.Sleep

// Processor handles one disease for a named pipeline pass.
type Processor interface {
	// Name labels the pipeline in the run history ("enrich", "ontology").
	Name() string

	// Delay is the politeness pause inserted between entities.
	Delay() time.Duration

	// Process enriches one disease and reports how many records it
	// persisted (or would persist, in dry-run).
	Process(ctx context.Context, d *types.Disease) (added int, err error)
}

// Options selects the batch for one run.
type Options struct {
	// Slug processes a single named disease.
	Slug string

	// BatchSize bounds the batch; zero means every eligible disease.
	BatchSize int

	// Resume starts the slug-ordered batch immediately after the last
	// checkpoint key.
	Resume bool

	// DryRun reports would-be changes without writing. Processors skip
	// their merge step; the run history still records the pass.
	DryRun bool
}

// Pipeline wires the collaborators of a batch run.
type Pipeline struct {
	Repo  *catalog.Repository
	State *state.Store
	Out   io.Writer
}

// entityError is one per-entity failure kept for the run detail payload.
type entityError struct {
	Slug  string `json:"slug"`
	Error string `json:"error"`
}

// runDetail is the free-form payload attached to a finalized run.
type runDetail struct {
	DryRun   bool          `json:"dryRun,omitempty"`
	WouldAdd int           `json:"wouldAdd,omitempty"`
	Errors   []entityError `json:"errors,omitempty"`
}

// Run executes one batch through proc. A failure on one disease is logged
// and does not abort the batch; the run finalizes as success, partial, or
// failed, and the checkpoint is overwritten at batch end.
func (p *Pipeline) Run(ctx context.Context, proc Processor, opts Options) (*types.Run, error) {
	run, err := p.State.StartRun(ctx, proc.Name())
	if err != nil {
		return nil, err
	}

	fail := func(cause error) (*types.Run, error) {
		detail, _ := json.Marshal(runDetail{Errors: []entityError{{Error: cause.Error()}}})
		if ferr := p.State.FinishRun(ctx, run, types.RunFailed, 0, 0, string(detail)); ferr != nil {
			return run, fmt.Errorf("%w (finalizing run: %v)", cause, ferr)
		}
		return run, cause
	}

	batch, resumedFrom, err := p.selectBatch(ctx, proc.Name(), opts)
	if err != nil {
		// Cannot read the entity catalog at all: fatal to the run.
		return fail(err)
	}
	if len(batch) == 0 {
		fmt.Fprintln(p.Out, "nothing to process")
		if err := p.State.FinishRun(ctx, run, types.RunSuccess, 0, 0, ""); err != nil {
			return run, err
		}
		return run, nil
	}

	start := time.Now()
	bar := pb.New(len(batch))
	bar.SetWriter(p.Out)
	bar.Start()

	var detail runDetail
	detail.DryRun = opts.DryRun
	added := 0
	lastSlug := ""

	for i, d := range batch {
		if i > 0 {
			sleep(proc.Delay())
		}

		n, err := proc.Process(ctx, d)
		if err != nil {
			detail.Errors = append(detail.Errors, entityError{Slug: d.Slug, Error: err.Error()})
			fmt.Fprintf(p.Out, "failed  %s: %v\n", d.Slug, err)
		} else {
			if opts.DryRun {
				detail.WouldAdd += n
				fmt.Fprintf(p.Out, "dry-run %s: would add %d\n", d.Slug, n)
			} else {
				added += n
				fmt.Fprintf(p.Out, "done    %s: added %d\n", d.Slug, n)
			}
		}
		lastSlug = d.Slug
		bar.Increment()

		if ctx.Err() != nil {
			break
		}
	}
	bar.Finish()

	if !opts.DryRun && opts.Slug == "" {
		cp := &types.Checkpoint{
			Pipeline:  proc.Name(),
			LastSlug:  lastSlug,
			Processed: len(batch),
			Added:     added,
		}
		if resumedFrom != nil {
			cp.Processed += resumedFrom.Processed
			cp.Added += resumedFrom.Added
		}
		if err := p.State.SaveCheckpoint(ctx, cp); err != nil {
			return fail(err)
		}
	}

	status := types.RunSuccess
	if len(detail.Errors) > 0 {
		status = types.RunPartial
	}

	payload, _ := json.Marshal(detail)
	if err := p.State.FinishRun(ctx, run, status, added, 0, string(payload)); err != nil {
		return run, err
	}

	fmt.Fprintf(p.Out, "\n%s: %s diseases processed, %s added, %d errored in %s\n",
		proc.Name(),
		humanize.Comma(int64(len(batch))),
		humanize.Comma(int64(added)),
		len(detail.Errors),
		time.Since(start).Round(time.Second))
	return run, nil
}

// selectBatch picks the diseases for this run: a single named entity, the
// neediest N (fewest pipeline-sourced links first), or the slug-ordered
// slice after the checkpoint when resuming.
func (p *Pipeline) selectBatch(ctx context.Context, pipeline string, opts Options) ([]*types.Disease, *types.Checkpoint, error) {
	if opts.Slug != "" {
		d, err := p.Repo.Get(opts.Slug)
		if err != nil {
			return nil, nil, err
		}
		return []*types.Disease{d}, nil, nil
	}

	diseases, err := p.Repo.List()
	if err != nil {
		return nil, nil, err
	}

	var resumedFrom *types.Checkpoint
	if opts.Resume {
		cp, err := p.State.LoadCheckpoint(ctx, pipeline)
		if err != nil {
			return nil, nil, err
		}
		if cp != nil {
			resumedFrom = cp
			// List is slug-sorted; skip up to and including the
			// checkpoint key.
			i := sort.Search(len(diseases), func(i int) bool {
				return diseases[i].Slug > cp.LastSlug
			})
			diseases = diseases[i:]
		}
	} else {
		// Need first: fewest existing pipeline links, slug as the
		// deterministic tiebreak.
		sort.SliceStable(diseases, func(i, j int) bool {
			ni, nj := catalog.PubMedLinkCount(diseases[i]), catalog.PubMedLinkCount(diseases[j])
			if ni != nj {
				return ni < nj
			}
			return diseases[i].Slug < diseases[j].Slug
		})
	}

	if opts.BatchSize > 0 && len(diseases) > opts.BatchSize {
		diseases = diseases[:opts.BatchSize]
	}
	return diseases, resumedFrom, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package linkcheck probes every outbound reference link in the catalog
// with a bounded worker pool and records the failures in the run history.
package linkcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/state"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

const (
	defaultWorkers = 3
	defaultTimeout = 10 * time.Second
)

// link is one URL to probe, tagged with the disease that carries it.
type link struct {
	Slug string
	URL  string
}

// Failure is one dead or unreachable link.
type Failure struct {
	Slug   string `json:"slug"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes one probe pass.
type Report struct {
	Checked  int       `json:"checked"`
	Failures []Failure `json:"failures,omitempty"`
}

// Checker wires the catalog, the HTTP client, and the run history.
type Checker struct {
	Repo    *catalog.Repository
	State   *state.Store
	HTTP    *http.Client
	Workers int
	Timeout time.Duration
}

func (c *Checker) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return defaultWorkers
}

func (c *Checker) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// Run probes every reference URL in the catalog. A dead link is a finding,
// not an error: the pass always completes and finalizes its run.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	run, err := c.State.StartRun(ctx, "linkcheck")
	if err != nil {
		return nil, err
	}

	diseases, err := c.Repo.List()
	if err != nil {
		detail, _ := json.Marshal(map[string]string{"error": err.Error()})
		if ferr := c.State.FinishRun(ctx, run, types.RunFailed, 0, 0, string(detail)); ferr != nil {
			return nil, fmt.Errorf("%w (finalizing run: %v)", err, ferr)
		}
		return nil, err
	}

	var links []link
	for _, d := range diseases {
		for _, ref := range d.References {
			if ref.URL == "" {
				continue
			}
			links = append(links, link{Slug: d.Slug, URL: ref.URL})
		}
	}

	report := &Report{Checked: len(links)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for _, l := range links {
		l := l
		g.Go(func() error {
			if f := c.probe(gctx, l); f != nil {
				mu.Lock()
				report.Failures = append(report.Failures, *f)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	// Deterministic report order regardless of worker scheduling.
	sort.Slice(report.Failures, func(i, j int) bool {
		if report.Failures[i].Slug != report.Failures[j].Slug {
			return report.Failures[i].Slug < report.Failures[j].Slug
		}
		return report.Failures[i].URL < report.Failures[j].URL
	})

	status := types.RunSuccess
	if len(report.Failures) > 0 {
		status = types.RunPartial
	}
	detail, _ := json.Marshal(report)
	if err := c.State.FinishRun(ctx, run, status, 0, 0, string(detail)); err != nil {
		return report, err
	}
	return report, nil
}

// probe issues a HEAD request, falling back to a one-byte ranged GET for
// hosts that reject HEAD. Nil means the link is alive.
func (c *Checker) probe(ctx context.Context, l link) *Failure {
	status, err := c.request(ctx, http.MethodHead, l.URL)
	if err == nil && headRejected(status) {
		status, err = c.request(ctx, http.MethodGet, l.URL)
	}
	if err != nil {
		return &Failure{Slug: l.Slug, URL: l.URL, Error: err.Error()}
	}
	if status >= 400 {
		return &Failure{Slug: l.Slug, URL: l.URL, Status: status}
	}
	return nil
}

func (c *Checker) request(ctx context.Context, method, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

// headRejected reports whether the server refused the HEAD method itself
// rather than the resource.
func headRejected(status int) bool {
	return status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented
}

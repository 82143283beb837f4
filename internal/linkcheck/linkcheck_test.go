// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vetpro-enrich/internal/catalog"
	"github.com/pdiddy/vetpro-enrich/internal/state"
	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

func newChecker(t *testing.T, docs map[string]string) *Checker {
	t.Helper()
	dir := t.TempDir()
	for slug, doc := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, slug+".yaml"), []byte(doc), 0o644))
	}

	repo, err := catalog.Open(types.CatalogConfig{DiseasesDir: dir})
	require.NoError(t, err)
	store, err := state.Open(types.StateConfig{DBPath: filepath.Join(t.TempDir(), "state.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &Checker{Repo: repo, State: store, HTTP: &http.Client{}}
}

func diseaseDoc(slug string, urls ...string) string {
	doc := fmt.Sprintf("slug: %s\nnameEn: %s\nbodySystem: digestive\n", slug, slug)
	if len(urls) == 0 {
		return doc
	}
	doc += "references:\n"
	for i, u := range urls {
		doc += fmt.Sprintf("  - pmid: \"%d\"\n    title: Ref\n    url: %s\n    source: pubmed\n", 1000+i, u)
	}
	return doc
}

func TestRun_AllLinksAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newChecker(t, map[string]string{
		"aa": diseaseDoc("aa", srv.URL+"/1", srv.URL+"/2"),
	})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Empty(t, report.Failures)

	runs, err := c.State.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "linkcheck", runs[0].Pipeline)
	assert.Equal(t, types.RunSuccess, runs[0].Status)
}

func TestRun_DeadLinkIsFindingNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newChecker(t, map[string]string{
		"aa": diseaseDoc("aa", srv.URL+"/ok", srv.URL+"/dead"),
		"bb": diseaseDoc("bb", srv.URL+"/ok"),
	})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "aa", report.Failures[0].Slug)
	assert.Equal(t, http.StatusNotFound, report.Failures[0].Status)

	runs, err := c.State.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, types.RunPartial, runs[0].Status)
	assert.Contains(t, runs[0].Detail, "/dead")
}

func TestRun_HeadFallsBackToRangedGet(t *testing.T) {
	var sawRange atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") == "bytes=0-0" {
			sawRange.Store(true)
		}
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer srv.Close()

	c := newChecker(t, map[string]string{"aa": diseaseDoc("aa", srv.URL)})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.True(t, sawRange.Load())
}

func TestRun_UnreachableHost(t *testing.T) {
	c := newChecker(t, map[string]string{
		"aa": diseaseDoc("aa", "http://127.0.0.1:1/nothing"),
	})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.NotEmpty(t, report.Failures[0].Error)
}

func TestRun_BoundedConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", srv.URL, i)
	}
	c := newChecker(t, map[string]string{"aa": diseaseDoc("aa", urls...)})
	c.Workers = 2

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, report.Checked)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_NoLinks(t *testing.T) {
	c := newChecker(t, map[string]string{"aa": diseaseDoc("aa")})

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Checked)
	assert.Empty(t, report.Failures)
}

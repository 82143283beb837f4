// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

func TestSearch(t *testing.T) {
	var gotQuery, gotMindate string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("term")
		gotMindate = r.URL.Query().Get("mindate")
		fmt.Fprint(w, `{"esearchresult":{"count":"2","idlist":["31452104","9876543"]}}`)
	}))
	defer ts.Close()

	old := esearchBase
	esearchBase = ts.URL
	defer func() { esearchBase = old }()

	c := &Client{HTTP: ts.Client(), Cfg: types.PubMedConfig{MaxResults: 10}}
	pmids, err := c.Search(context.Background(), BuildQuery([]string{"Canine Parvovirus"}), 2015)
	require.NoError(t, err)

	assert.Equal(t, []string{"31452104", "9876543"}, pmids)
	assert.Contains(t, gotQuery, "Canine Parvovirus")
	assert.Equal(t, "2015", gotMindate)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := &Client{HTTP: http.DefaultClient}
	_, err := c.Search(context.Background(), "", 0)
	assert.Error(t, err)
}

func TestFetchCitations_Batches(t *testing.T) {
	var batches []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("id")
		batches = append(batches, ids)
		fmt.Fprint(w, `<?xml version="1.0" ?><PubmedArticleSet></PubmedArticleSet>`)
	}))
	defer ts.Close()

	old := efetchBase
	efetchBase = ts.URL
	defer func() { efetchBase = old }()

	pmids := make([]string, 150)
	for i := range pmids {
		pmids[i] = fmt.Sprintf("%d", i+1)
	}

	c := &Client{HTTP: ts.Client(), Cfg: types.PubMedConfig{APIKey: "k"}}
	_, err := c.FetchCitations(context.Background(), pmids)
	require.NoError(t, err)

	// 150 identifiers split into round trips of at most 100.
	require.Len(t, batches, 2)
	assert.Len(t, strings.Split(batches[0], ","), 100)
	assert.Len(t, strings.Split(batches[1], ","), 50)
}

func TestFetchCitations_DecodesPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sampleArticleSet)
	}))
	defer ts.Close()

	old := efetchBase
	efetchBase = ts.URL
	defer func() { efetchBase = old }()

	c := &Client{HTTP: ts.Client()}
	citations, err := c.FetchCitations(context.Background(), []string{"31452104", "9876543"})
	require.NoError(t, err)
	assert.Len(t, citations, 2)
}

func TestHasKey(t *testing.T) {
	assert.False(t, (&Client{}).HasKey())
	assert.True(t, (&Client{Cfg: types.PubMedConfig{APIKey: "k"}}).HasKey())
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

const parvoYAML = `slug: canine-parvovirus
nameEn: Canine Parvovirus
nameZh: 犬细小病毒
bodySystem: gastrointestinal
aliases:
  - alias: Parvo
    language: en
description: |
  A highly contagious viral disease of dogs causing acute

  gastrointestinal illness, most severe in puppies.
diagnosis:
  tests:
    - Fecal antigen ELISA
    - PCR
treatment: Supportive care with aggressive fluid therapy.
references:
  - pmid: "100200"
    title: Curated classic on parvoviral enteritis
    year: 1985
    source: curated
merckManualRef:
  edition: 11
  sectionTitle: "Canine Parvovirus"
  pdfPage: 712
`

func writeCatalog(t *testing.T, files map[string]string) *Repository {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	repo, err := Open(types.CatalogConfig{DiseasesDir: dir})
	require.NoError(t, err)
	return repo
}

func TestOpen_MissingDir(t *testing.T) {
	_, err := Open(types.CatalogConfig{DiseasesDir: "/nonexistent/diseases"})
	assert.Error(t, err)
}

func TestListAndGet(t *testing.T) {
	repo := writeCatalog(t, map[string]string{
		"canine-parvovirus.yaml": parvoYAML,
		"kennel-cough.yaml":      "slug: kennel-cough\nnameEn: Infectious Tracheobronchitis\n",
		"notes.txt":              "ignored",
	})

	diseases, err := repo.List()
	require.NoError(t, err)
	require.Len(t, diseases, 2)
	assert.Equal(t, "canine-parvovirus", diseases[0].Slug)
	assert.Equal(t, "kennel-cough", diseases[1].Slug)

	d, err := repo.Get("canine-parvovirus")
	require.NoError(t, err)
	assert.Equal(t, "Canine Parvovirus", d.NameEn)
	assert.Equal(t, "犬细小病毒", d.NameZh)
	require.Len(t, d.References, 1)
	assert.Equal(t, "100200", d.References[0].PMID)
}

func TestGet_StringFormAliases(t *testing.T) {
	// Legacy files list some aliases as bare strings; both forms load.
	repo := writeCatalog(t, map[string]string{
		"kennel-cough.yaml": "slug: kennel-cough\n" +
			"nameEn: Infectious Tracheobronchitis\n" +
			"aliases:\n" +
			"  - Kennel Cough\n" +
			"  - alias: ITB\n" +
			"    language: en\n",
	})

	d, err := repo.Get("kennel-cough")
	require.NoError(t, err)
	require.Len(t, d.Aliases, 2)
	assert.Equal(t, types.Alias{Alias: "Kennel Cough"}, d.Aliases[0])
	assert.Equal(t, types.Alias{Alias: "ITB", Language: "en"}, d.Aliases[1])

	// One legacy alias must not poison the whole catalog read.
	_, err = repo.List()
	assert.NoError(t, err)
}

func TestList_UnparsableFileIsFatal(t *testing.T) {
	repo := writeCatalog(t, map[string]string{
		"bad.yaml": "slug: [unclosed\n",
	})
	_, err := repo.List()
	assert.Error(t, err)
}

func TestNormalizePMID(t *testing.T) {
	cases := []struct{ in, want string }{
		{"31452104", "31452104"},
		{" PMID: 31452104 ", "31452104"},
		{"https://pubmed.ncbi.nlm.nih.gov/31452104/", "31452104"},
		{"https://pubmed.ncbi.nlm.nih.gov/31452104", "31452104"},
		{"http://www.pubmed.ncbi.nlm.nih.gov/31452104/", "31452104"},
		{"", ""},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, NormalizePMID(tt.in), "input %q", tt.in)
	}
}

func TestPresentPMIDs_NormalizesRepresentations(t *testing.T) {
	d := &types.Disease{References: []types.Reference{
		{PMID: "https://pubmed.ncbi.nlm.nih.gov/42/"},
		{PMID: "PMID: 7"},
	}}
	present := PresentPMIDs(d)
	assert.True(t, present["42"])
	assert.True(t, present["7"])
}

func TestPubMedLinkCount(t *testing.T) {
	d := &types.Disease{References: []types.Reference{
		{PMID: "1", Source: types.SourceCurated},
		{PMID: "2", Source: types.SourcePubMed},
		{PMID: "3", Source: types.SourcePubMed},
	}}
	assert.Equal(t, 2, PubMedLinkCount(d))
}

func TestCreateStub(t *testing.T) {
	repo := writeCatalog(t, nil)
	d := &types.Disease{Slug: "equine-colic", NameEn: "Equine Colic"}
	require.NoError(t, repo.CreateStub(d))

	got, err := repo.Get("equine-colic")
	require.NoError(t, err)
	assert.Equal(t, "Equine Colic", got.NameEn)

	// Refuses to overwrite.
	assert.Error(t, repo.CreateStub(d))
}

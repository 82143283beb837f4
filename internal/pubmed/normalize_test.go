// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

const sampleArticleSet = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">31452104</PMID>
      <Article>
        <Journal>
          <Title>Journal of Veterinary Internal Medicine</Title>
          <JournalIssue><PubDate><Year>2019</Year></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>Treatment of <i>Babesia gibsoni</i> infection: a systematic approach</ArticleTitle>
        <AuthorList>
          <Author><LastName>Smith</LastName><Initials>JA</Initials></Author>
          <Author><LastName>Jones</LastName><Initials>B</Initials></Author>
          <Author><CollectiveName>ACVIM Task Force</CollectiveName></Author>
        </AuthorList>
        <PublicationTypeList>
          <PublicationType UI="D016454">Review</PublicationType>
          <PublicationType UI="D016446">Consensus Development Conference</PublicationType>
        </PublicationTypeList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">31452104</ArticleId>
        <ArticleId IdType="doi">10.1111/jvim.15555</ArticleId>
        <ArticleId IdType="pmc">PMC6768892</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">9876543</PMID>
      <Article>
        <Journal>
          <Title>Veterinary Record</Title>
          <JournalIssue><PubDate><MedlineDate>1998 Dec-1999 Jan</MedlineDate></PubDate></JournalIssue>
        </Journal>
        <ArticleTitle>A case report of atypical presentation</ArticleTitle>
        <AuthorList>
          <Author><LastName>Li</LastName><Initials>W</Initials></Author>
        </AuthorList>
        <PublicationTypeList>
          <PublicationType UI="D016428">Journal Article</PublicationType>
        </PublicationTypeList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList>
        <ArticleId IdType="pubmed">9876543</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseCitations(t *testing.T) {
	citations, err := ParseCitations([]byte(sampleArticleSet))
	require.NoError(t, err)
	require.Len(t, citations, 2)

	first := citations[0]
	assert.Equal(t, "31452104", first.PMID)
	// Inline markup is flattened into the title text, not dropped.
	assert.Equal(t, "Treatment of Babesia gibsoni infection: a systematic approach", first.Title)
	assert.Equal(t, []string{"Smith JA", "Jones B", "ACVIM Task Force"}, first.Authors)
	assert.Equal(t, "Journal of Veterinary Internal Medicine", first.Journal)
	assert.Equal(t, 2019, first.Year)
	assert.Equal(t, "10.1111/jvim.15555", first.DOI)
	assert.Equal(t, "PMC6768892", first.PMCID)
	assert.True(t, first.OpenAccess)
	// Consensus outranks the Review tag.
	assert.Equal(t, types.TypeConsensus, first.ArticleType)

	second := citations[1]
	assert.Equal(t, "9876543", second.PMID)
	// Year recovered from the free-text Medline date.
	assert.Equal(t, 1998, second.Year)
	assert.False(t, second.OpenAccess)
	// No tag matched; the title keyword reclassifies the default.
	assert.Equal(t, types.TypeCaseReport, second.ArticleType)
}

func TestParseCitations_MalformedArticleDropped(t *testing.T) {
	payload := `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article><ArticleTitle>No PMID here</ArticleTitle></Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>11111</PMID>
      <Article><ArticleTitle>Survivor</ArticleTitle></Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

	citations, err := ParseCitations([]byte(payload))
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "11111", citations[0].PMID)
	assert.Equal(t, types.TypeResearch, citations[0].ArticleType)
}

func TestDeriveArticleType(t *testing.T) {
	cases := []struct {
		tags  []string
		title string
		want  types.ArticleType
	}{
		{[]string{"Practice Guideline"}, "", types.TypeGuideline},
		{[]string{"Review", "Case Reports"}, "", types.TypeReview},
		{[]string{"Case Reports"}, "", types.TypeCaseReport},
		{[]string{"Journal Article"}, "", types.TypeResearch},
		{[]string{"Journal Article"}, "A guideline for anesthesia", types.TypeGuideline},
		// Title override applies only when tags left the default.
		{[]string{"Case Reports"}, "A review of something", types.TypeCaseReport},
		{nil, "Consensus statement on feline nutrition", types.TypeConsensus},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, deriveArticleType(tc.tags, tc.title), "tags=%v title=%q", tc.tags, tc.title)
	}
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery([]string{"Canine Parvovirus", "CPV", "Parvo"})
	// "CPV" is under four characters and is dropped.
	assert.Equal(t, `("Canine Parvovirus"[Title/Abstract] OR "Parvo"[Title/Abstract]) AND veterinary[sb]`, q)

	assert.Empty(t, BuildQuery([]string{"cpv"}))
}

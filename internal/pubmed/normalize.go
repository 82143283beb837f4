// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// flatText flattens mixed text/tag XML content into plain text. PubMed
// titles carry inline markup (<i>, <sub>, ...) whose text must be kept,
// not dropped with the tags.
type flatText string

func (f *flatText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*f = flatText(strings.TrimSpace(b.String()))
				return nil
			}
			depth--
		}
	}
}

// XML shapes of the efetch payload. Only the fields the normalizer reads.

type pubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title   flatText `xml:"ArticleTitle"`
			Journal struct {
				Title        string `xml:"Title"`
				JournalIssue struct {
					PubDate struct {
						Year        string `xml:"Year"`
						MedlineDate string `xml:"MedlineDate"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			Authors []struct {
				LastName       string `xml:"LastName"`
				Initials       string `xml:"Initials"`
				CollectiveName string `xml:"CollectiveName"`
			} `xml:"AuthorList>Author"`
			PublicationTypes []string `xml:"PublicationTypeList>PublicationType"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	PubmedData struct {
		ArticleIDs []struct {
			IDType string `xml:"IdType,attr"`
			Value  string `xml:",chardata"`
		} `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

// yearPattern finds the first 4-digit year in a free-text Medline date
// such as "1998 Dec-1999 Jan".
var yearPattern = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// ParseCitations decodes an efetch XML payload into normalized citations.
// Articles are decoded one element at a time so a malformed article is
// dropped without aborting its batch.
func ParseCitations(payload []byte) ([]types.Citation, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	var citations []types.Citation
	sawSet := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if !sawSet {
				return nil, fmt.Errorf("decoding article set: %w", err)
			}
			// Damage past the envelope: keep what parsed so far.
			break
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "PubmedArticleSet":
			sawSet = true
		case "PubmedArticle":
			var a pubmedArticle
			if err := dec.DecodeElement(&a, &start); err != nil {
				continue
			}
			c, err := normalizeArticle(&a)
			if err != nil {
				continue
			}
			citations = append(citations, c)
		default:
			if !sawSet {
				return nil, fmt.Errorf("unexpected root element %q", start.Name.Local)
			}
			dec.Skip()
		}
	}
	return citations, nil
}

func normalizeArticle(a *pubmedArticle) (types.Citation, error) {
	pmid := strings.TrimSpace(a.MedlineCitation.PMID)
	if pmid == "" {
		return types.Citation{}, fmt.Errorf("article without PMID")
	}

	c := types.Citation{
		PMID:    pmid,
		Title:   string(a.MedlineCitation.Article.Title),
		Journal: strings.TrimSpace(a.MedlineCitation.Article.Journal.Title),
	}

	for _, au := range a.MedlineCitation.Article.Authors {
		switch {
		case au.CollectiveName != "":
			c.Authors = append(c.Authors, strings.TrimSpace(au.CollectiveName))
		case au.LastName != "":
			name := au.LastName
			if au.Initials != "" {
				name += " " + au.Initials
			}
			c.Authors = append(c.Authors, name)
		}
	}

	pd := a.MedlineCitation.Article.Journal.JournalIssue.PubDate
	if y, err := strconv.Atoi(strings.TrimSpace(pd.Year)); err == nil {
		c.Year = y
	} else if m := yearPattern.FindString(pd.MedlineDate); m != "" {
		c.Year, _ = strconv.Atoi(m)
	}

	for _, id := range a.PubmedData.ArticleIDs {
		v := strings.TrimSpace(id.Value)
		switch strings.ToLower(id.IDType) {
		case "doi":
			c.DOI = v
		case "pmc":
			c.PMCID = v
		}
	}
	c.OpenAccess = c.PMCID != ""

	c.ArticleType = deriveArticleType(a.MedlineCitation.Article.PublicationTypes, c.Title)
	return c, nil
}

// deriveArticleType maps declared publication-type tags to the catalog's
// article categories with precedence consensus > guideline > review >
// case-report, defaulting to research. When no tag matched, a category word
// in the title itself reclassifies the article; the title override never
// outranks an explicit tag.
func deriveArticleType(tags []string, title string) types.ArticleType {
	joined := strings.ToLower(strings.Join(tags, "|"))
	switch {
	case strings.Contains(joined, "consensus"):
		return types.TypeConsensus
	case strings.Contains(joined, "guideline"):
		return types.TypeGuideline
	case strings.Contains(joined, "review"):
		return types.TypeReview
	case strings.Contains(joined, "case reports"):
		return types.TypeCaseReport
	}

	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "consensus"):
		return types.TypeConsensus
	case strings.Contains(lower, "guideline"):
		return types.TypeGuideline
	case strings.Contains(lower, "review"):
		return types.TypeReview
	case strings.Contains(lower, "case report"):
		return types.TypeCaseReport
	}
	return types.TypeResearch
}

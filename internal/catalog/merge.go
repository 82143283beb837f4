// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// MergeResult reports what one merge call persisted.
type MergeResult struct {
	Added   int
	Skipped int
}

// MergeCitations inserts the admitted citations as pipeline-sourced
// references under the disease, skipping any whose normalized identifier is
// already present. The first insertion also sets the enrichment provenance
// marker. Re-running with an unchanged input set adds nothing.
func (r *Repository) MergeCitations(slug string, admitted []types.Citation) (MergeResult, error) {
	var res MergeResult
	if len(admitted) == 0 {
		return res, nil
	}

	d, err := r.Get(slug)
	if err != nil {
		return res, err
	}
	present := PresentPMIDs(d)

	for _, c := range admitted {
		id := NormalizePMID(c.PMID)
		if id == "" || present[id] {
			res.Skipped++
			continue
		}

		ref := types.Reference{
			PMID:        id,
			DOI:         c.DOI,
			Title:       c.Title,
			Authors:     c.Authors,
			Journal:     c.Journal,
			Year:        c.Year,
			ArticleType: string(c.ArticleType),
			OpenAccess:  c.OpenAccess,
			URL:         "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
			Source:      types.SourcePubMed,
		}
		if err := r.appendBlockEntry(slug, "references", ref); err != nil {
			return res, err
		}
		present[id] = true
		res.Added++
	}

	if res.Added > 0 {
		if err := r.SetProvenance(slug); err != nil {
			return res, err
		}
	}
	return res, nil
}

// MergeMappings inserts ontology mappings the disease does not already
// hold, keyed by normalized term identifier.
func (r *Repository) MergeMappings(slug string, mappings []types.OntologyMapping) (MergeResult, error) {
	var res MergeResult
	if len(mappings) == 0 {
		return res, nil
	}

	d, err := r.Get(slug)
	if err != nil {
		return res, err
	}
	present := make(map[string]bool)
	for _, m := range d.OntologyMappings {
		present[strings.ToUpper(m.TermID)] = true
	}

	for _, m := range mappings {
		key := strings.ToUpper(m.TermID)
		if key == "" || present[key] {
			res.Skipped++
			continue
		}
		if err := r.appendBlockEntry(slug, "ontologyMappings", m); err != nil {
			return res, err
		}
		present[key] = true
		res.Added++
	}

	if res.Added > 0 {
		if err := r.SetProvenance(slug); err != nil {
			return res, err
		}
	}
	return res, nil
}

// SetProvenance appends the enrichment marker block once. A disease that
// already carries any enrichment key is left untouched.
func (r *Repository) SetProvenance(slug string) error {
	path := r.path(slug)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if hasTopLevelKey(string(data), "enrichment") {
		return nil
	}

	block := fmt.Sprintf("enrichment:\n  autoSourced: true\n  firstRun: %q\n",
		time.Now().UTC().Format("2006-01-02"))
	content := strings.TrimRight(string(data), "\n") + "\n" + block
	return writeFile(path, content)
}

// appendBlockEntry inserts one list entry under the named top-level key,
// creating the key at end of file when absent. Only bytes inside the target
// block change; authored content stays byte-identical.
func (r *Repository) appendBlockEntry(slug, key string, entry any) error {
	path := r.path(slug)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	item, err := marshalListItem(entry)
	if err != nil {
		return fmt.Errorf("encoding %s entry: %w", key, err)
	}

	content := string(data)
	lines := strings.Split(content, "\n")

	keyIdx := -1
	for i, line := range lines {
		if !strings.HasPrefix(line, key+":") {
			continue
		}
		rest := strings.TrimSpace(line[len(key)+1:])
		if rest == "[]" {
			// Inline empty list: open it up so entries can follow.
			lines[i] = key + ":"
			rest = ""
		}
		if rest != "" {
			return fmt.Errorf("%s: %s uses flow style; cannot append safely", path, key)
		}
		keyIdx = i
		break
	}

	if keyIdx < 0 {
		content = strings.TrimRight(content, "\n") + "\n" + key + ":\n" + item
		return writeFile(path, content)
	}

	// Find the end of the block: the next top-level key or EOF.
	end := len(lines)
	for i := keyIdx + 1; i < len(lines); i++ {
		line := lines[i]
		if line != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, "#") {
			end = i
			break
		}
	}

	// Drop trailing blank lines inside the block so the entry lands
	// directly after the last existing one.
	insert := end
	for insert > keyIdx+1 && strings.TrimSpace(lines[insert-1]) == "" {
		insert--
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines[:insert], "\n"))
	b.WriteString("\n")
	b.WriteString(item)
	if rest := strings.Join(lines[insert:], "\n"); rest != "" {
		b.WriteString(rest)
	}
	return writeFile(path, b.String())
}

// marshalListItem renders entry as a single YAML list element indented two
// spaces, matching the catalog's house style.
func marshalListItem(entry any) (string, error) {
	data, err := yaml.Marshal([]any{entry})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// hasTopLevelKey reports whether the document already defines key at the
// top level.
func hasTopLevelKey(content, key string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, key+":") {
			return true
		}
	}
	return false
}

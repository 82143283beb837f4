// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps external names onto canonical catalog diseases using
// a tiered exact-then-fuzzy matching strategy.
package resolve

import (
	"strings"
	"unicode"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// Acceptance thresholds for the fuzzy tier. Duplicate detection against an
// existing catalog demands higher confidence than reconciling two
// independently maintained catalogs.
const (
	ThresholdDuplicate = 0.85
	ThresholdReconcile = 0.7
)

// containmentRatio is the minimum shorter/longer length ratio for substring
// containment to count as a probable duplicate. Below it a short generic
// term inside a long specific one is not a match.
const containmentRatio = 0.7

// containmentScore is assigned when one normalized name entirely contains
// the other and the length-ratio guard passes.
const containmentScore = 0.9

// Method names the tier that produced a match.
type Method string

const (
	MethodSlugExact Method = "slug-exact"
	MethodNameExact Method = "name-exact"
	MethodAlias     Method = "alias/synonym"
	MethodFuzzy     Method = "fuzzy"
	MethodNone      Method = "none"
)

// Match is the outcome of resolving one external name against the catalog.
type Match struct {
	// Slug is the chosen disease, empty when Method is "none".
	Slug   string
	Method Method

	// Score is the match confidence in [0,1]. Exact tiers score 1.0.
	Score float64
}

// Matcher is one strategy in the resolver's ordered tier list. Strategies
// report a miss with ok == false; the resolver short-circuits on the first
// hit, so thresholds and new strategies can be added without touching call
// sites.
type Matcher interface {
	Name() Method
	Match(name string, aliases []string, entities []*types.Disease) (m Match, ok bool)
}

// Resolver applies its matchers in order and returns the first hit.
type Resolver struct {
	matchers []Matcher
}

// New builds the standard tier list: slug-exact, name-exact, alias/synonym,
// then bigram-Dice fuzzy at the given acceptance threshold.
func New(threshold float64) *Resolver {
	return &Resolver{matchers: []Matcher{
		slugExact{},
		nameExact{},
		aliasExact{},
		fuzzy{threshold: threshold},
	}}
}

// Resolve matches an external name (plus any known aliases of it) against
// the catalog. A below-threshold fuzzy score is not an error: the result is
// simply method "none" with no disease assigned.
func (r *Resolver) Resolve(name string, aliases []string, entities []*types.Disease) Match {
	for _, m := range r.matchers {
		if match, ok := m.Match(name, aliases, entities); ok {
			return match
		}
	}
	return Match{Method: MethodNone}
}

// Slugify lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			hyphen = false
		} else if b.Len() > 0 && !hyphen {
			b.WriteRune('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Normalize lowercases s, strips punctuation, and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// compact strips everything but letters and digits; the bigram alphabet.
func compact(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// bigrams returns the set of adjacent-character pairs of s.
func bigrams(s string) map[string]bool {
	set := make(map[string]bool)
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = true
	}
	return set
}

// DiceCoefficient scores the similarity of two names over their character
// bigram sets: 2×|intersection| / (|A|+|B|). Both inputs are reduced to
// lowercase alphanumerics first, so "cat" vs "cats" scores exactly 0.8.
func DiceCoefficient(a, b string) float64 {
	ba, bb := bigrams(compact(a)), bigrams(compact(b))
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	inter := 0
	for g := range ba {
		if bb[g] {
			inter++
		}
	}
	return 2 * float64(inter) / float64(len(ba)+len(bb))
}

// containsGuarded reports probable duplication by substring containment,
// guarded by the length ratio so short generic terms do not swallow long
// specific ones.
func containsGuarded(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if !strings.Contains(long, short) {
		return false
	}
	return float64(len(short))/float64(len(long)) > containmentRatio
}

// --- tier implementations ---

type slugExact struct{}

func (slugExact) Name() Method { return MethodSlugExact }

func (slugExact) Match(name string, _ []string, entities []*types.Disease) (Match, bool) {
	slug := Slugify(name)
	for _, d := range entities {
		if d.Slug == slug {
			return Match{Slug: d.Slug, Method: MethodSlugExact, Score: 1.0}, true
		}
	}
	return Match{}, false
}

type nameExact struct{}

func (nameExact) Name() Method { return MethodNameExact }

func (nameExact) Match(name string, _ []string, entities []*types.Disease) (Match, bool) {
	n := Normalize(name)
	if n == "" {
		return Match{}, false
	}
	for _, d := range entities {
		if Normalize(d.NameEn) == n {
			return Match{Slug: d.Slug, Method: MethodNameExact, Score: 1.0}, true
		}
	}
	return Match{}, false
}

type aliasExact struct{}

func (aliasExact) Name() Method { return MethodAlias }

// Match compares the external name and its aliases against every canonical
// alias and the localized name.
func (aliasExact) Match(name string, aliases []string, entities []*types.Disease) (Match, bool) {
	external := make(map[string]bool)
	for _, s := range append([]string{name}, aliases...) {
		if n := Normalize(s); n != "" {
			external[n] = true
		}
	}
	for _, d := range entities {
		var canonical []string
		if d.NameZh != "" {
			canonical = append(canonical, d.NameZh)
		}
		for _, a := range d.Aliases {
			canonical = append(canonical, a.Alias)
		}
		for _, c := range canonical {
			if n := Normalize(c); n != "" && external[n] {
				return Match{Slug: d.Slug, Method: MethodAlias, Score: 1.0}, true
			}
		}
	}
	return Match{}, false
}

type fuzzy struct {
	threshold float64
}

func (fuzzy) Name() Method { return MethodFuzzy }

// Match scores the external name against every canonical name and slug and
// accepts the single best candidate if it clears the threshold. Guarded
// containment short-circuits the bigram score.
func (f fuzzy) Match(name string, _ []string, entities []*types.Disease) (Match, bool) {
	n := compact(name)
	if n == "" {
		return Match{}, false
	}

	best := Match{Method: MethodFuzzy}
	for _, d := range entities {
		for _, c := range []string{d.NameEn, d.Slug} {
			cn := compact(c)
			if cn == "" {
				continue
			}
			score := DiceCoefficient(name, c)
			if containsGuarded(n, cn) && containmentScore > score {
				score = containmentScore
			}
			if score > best.Score {
				best.Slug = d.Slug
				best.Score = score
			}
		}
	}

	if best.Score > f.threshold {
		return best, true
	}
	return Match{}, false
}

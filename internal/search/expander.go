package search

import (
	"strings"
	"unicode"
)

// QueryExpander turns one caller query into the ordered per-tier query
// variants of a Strategy. This addresses vocabulary mismatch between how
// a caller phrases a topic and how each literature database indexes it.
//
// Expansion is deterministic given the static tables and makes no
// network calls:
//
//	Primary:   the verbatim query.
//	Secondary: up to maxVariants substitutions of recognized domain terms
//	           with synonyms and spelling translations.
//	Tertiary:  up to maxVariants broadened variants that drop modifiers
//	           and keep only head concepts.
//
// A query with no recognized domain terms yields empty secondary and
// tertiary lists; escalation then only ever exhausts the primary tier.
type QueryExpander struct {
	synonyms     map[string][]string
	translations map[string][]string
	maxVariants  int
}

// ExpanderOption configures the query expander.
type ExpanderOption func(*QueryExpander)

// WithMaxVariants caps the variant count per expanded tier.
func WithMaxVariants(n int) ExpanderOption {
	return func(e *QueryExpander) {
		if n > 0 {
			e.maxVariants = n
		}
	}
}

// WithCustomSynonyms adds caller synonym mappings on top of the
// built-in academic table. Keys must be lowercase.
func WithCustomSynonyms(synonyms map[string][]string) ExpanderOption {
	return func(e *QueryExpander) {
		for k, v := range synonyms {
			e.synonyms[k] = append(e.synonyms[k], v...)
		}
	}
}

// NewQueryExpander creates an expander backed by the built-in academic
// synonym and translation tables.
func NewQueryExpander(opts ...ExpanderOption) *QueryExpander {
	e := &QueryExpander{
		synonyms:     make(map[string][]string, len(AcademicSynonyms)),
		translations: Translations,
		maxVariants:  3,
	}
	for k, v := range AcademicSynonyms {
		e.synonyms[k] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand builds the per-tier query variants for a raw query.
func (e *QueryExpander) Expand(query string) (primary, secondary, tertiary []string) {
	primary = []string{query}

	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return primary, nil, nil
	}

	terms := e.recognizeTerms(tokens)
	secondary = e.substituteVariants(query, terms)
	tertiary = e.broadenVariants(query, tokens, terms)
	return primary, secondary, tertiary
}

// domainTerm is one recognized table entry inside the query.
type domainTerm struct {
	text  string // matched text, lowercase
	start int    // token offset
	width int    // token count
}

// recognizeTerms scans the token stream for table entries, longest
// match first (trigrams, then bigrams, then single tokens), without
// overlapping matches.
func (e *QueryExpander) recognizeTerms(tokens []string) []domainTerm {
	used := make([]bool, len(tokens))
	var terms []domainTerm

	for width := 3; width >= 1; width-- {
		for start := 0; start+width <= len(tokens); start++ {
			if anyUsed(used, start, width) {
				continue
			}
			candidate := strings.Join(tokens[start:start+width], " ")
			_, inSyn := e.synonyms[candidate]
			_, inTrans := e.translations[candidate]
			if !inSyn && !inTrans {
				continue
			}
			terms = append(terms, domainTerm{text: candidate, start: start, width: width})
			for i := start; i < start+width; i++ {
				used[i] = true
			}
		}
	}

	// Restore query order.
	for i := 1; i < len(terms); i++ {
		for j := i; j > 0 && terms[j].start < terms[j-1].start; j-- {
			terms[j], terms[j-1] = terms[j-1], terms[j]
		}
	}
	return terms
}

// substituteVariants produces secondary variants by replacing one
// recognized term at a time with a synonym or translation. Variants are
// generated term-by-term in query order, synonyms before translations,
// so the cap keeps the most faithful substitutions.
func (e *QueryExpander) substituteVariants(query string, terms []domainTerm) []string {
	if len(terms) == 0 {
		return nil
	}

	lower := strings.ToLower(query)
	seen := map[string]bool{lower: true}
	var variants []string

	add := func(term domainTerm, replacement string) bool {
		v := replaceTermOnce(lower, term.text, strings.ToLower(replacement))
		if v == "" || seen[v] {
			return false
		}
		seen[v] = true
		variants = append(variants, v)
		return len(variants) >= e.maxVariants
	}

	for _, term := range terms {
		for _, syn := range e.synonyms[term.text] {
			if add(term, syn) {
				return variants
			}
		}
	}
	for _, term := range terms {
		for _, tr := range e.translations[term.text] {
			if add(term, tr) {
				return variants
			}
		}
	}
	return variants
}

// broadenVariants produces tertiary variants: the query reduced to its
// head concepts, then each recognized multi-concept term on its own.
func (e *QueryExpander) broadenVariants(query string, tokens []string, terms []domainTerm) []string {
	if len(terms) == 0 {
		return nil
	}

	lower := strings.ToLower(query)
	seen := map[string]bool{lower: true}
	var variants []string

	add := func(v string) bool {
		if v == "" || seen[v] {
			return false
		}
		seen[v] = true
		variants = append(variants, v)
		return len(variants) >= e.maxVariants
	}

	// Drop modifiers and stopwords, keep everything else in order.
	var heads []string
	for _, tok := range tokens {
		if modifierTerms[tok] || queryStopwords[tok] {
			continue
		}
		heads = append(heads, tok)
	}
	if len(heads) > 0 && len(heads) < len(tokens) {
		if add(strings.Join(heads, " ")) {
			return variants
		}
	}

	// Each recognized term alone, broadest first when several exist.
	for _, term := range terms {
		if add(term.text) {
			return variants
		}
	}
	return variants
}

// replaceTermOnce substitutes the first occurrence of term in the
// lowercase query, respecting word boundaries.
func replaceTermOnce(query, term, replacement string) string {
	idx := 0
	for {
		pos := strings.Index(query[idx:], term)
		if pos < 0 {
			return ""
		}
		pos += idx
		end := pos + len(term)
		beforeOK := pos == 0 || !isWordRune(rune(query[pos-1]))
		afterOK := end == len(query) || !isWordRune(rune(query[end]))
		if beforeOK && afterOK {
			return query[:pos] + replacement + query[end:]
		}
		idx = end
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func anyUsed(used []bool, start, width int) bool {
	for i := start; i < start+width; i++ {
		if used[i] {
			return true
		}
	}
	return false
}

// tokenizeQuery lowercases and splits a query on non-word runes,
// keeping hyphenated terms intact ("state-of-the-art", "meta-analysis").
func tokenizeQuery(query string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range strings.ToLower(query) {
		if isWordRune(r) || r == '-' {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			tokens = append(tokens, strings.Trim(current.String(), "-"))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, strings.Trim(current.String(), "-"))
	}

	var out []string
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

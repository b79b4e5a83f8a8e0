package article

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxTitleKeyLen bounds normalized-title keys so pathological titles
// cannot blow up map keys.
const maxTitleKeyLen = 100

// titleStripper removes diacritic marks after NFD decomposition.
var titleStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key returns the deduplication identity of the article.
//
// Key selection priority: normalized DOI, else source plus source-native
// ID, else normalized title. Returns "" when no identity attribute is
// present; callers must treat keyless records as unique.
func (a *Article) Key() string {
	if doi := strings.ToLower(strings.TrimSpace(a.DOI)); doi != "" {
		return "doi:" + doi
	}
	if a.Source != "" && a.SourceID != "" {
		return "src:" + strings.ToLower(a.Source) + ":" + a.SourceID
	}
	if t := NormalizeTitle(a.Title); t != "" {
		return "title:" + t
	}
	return ""
}

// FusionKey returns the identity used when fusing independently ranked
// lists: DOI, else URL, else normalized title. Rankings from the local
// vector and lexical indexes carry URLs more reliably than source IDs,
// hence the different second preference.
func (a *Article) FusionKey() string {
	if doi := strings.ToLower(strings.TrimSpace(a.DOI)); doi != "" {
		return "doi:" + doi
	}
	if u := strings.TrimSpace(a.URL); u != "" {
		return "url:" + u
	}
	if t := NormalizeTitle(a.Title); t != "" {
		return "title:" + t
	}
	return ""
}

// NormalizeTitle lowercases the title, strips accents, removes every
// non-alphanumeric rune and truncates to 100 characters. "Müller-Kranz:
// Federated Learning!" and "muller kranz federated learning" normalize
// to the same key.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	if stripped, _, err := transform.String(titleStripper, title); err == nil {
		title = stripped
	}

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() >= maxTitleKeyLen {
			break
		}
	}

	s := b.String()
	if len(s) > maxTitleKeyLen {
		s = s[:maxTitleKeyLen]
	}
	return s
}

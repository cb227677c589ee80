package relevance

import (
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// fold lowercases s rune by rune so that rune offsets are preserved.
func fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// keywordIndex finds which of a fixed set of keywords occur in a text in a
// single pass. Keywords and text are both folded to lower case; a keyword
// matches anywhere, including inside longer words.
type keywordIndex struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	// the matcher keeps per-call counters, so Match must not run concurrently
	mu sync.Mutex
}

func newKeywordIndex(words []string) *keywordIndex {
	idx := &keywordIndex{}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		k := fold(w)
		if strings.TrimSpace(k) == "" || seen[k] {
			continue
		}
		seen[k] = true
		idx.keywords = append(idx.keywords, k)
	}
	if len(idx.keywords) > 0 {
		idx.matcher = ahocorasick.NewStringMatcher(idx.keywords)
	}
	return idx
}

// find returns the set of folded keywords present in text.
func (x *keywordIndex) find(text string) map[string]bool {
	found := make(map[string]bool)
	if x.matcher == nil || text == "" {
		return found
	}

	folded := []byte(fold(text))

	x.mu.Lock()
	hits := x.matcher.Match(folded)
	x.mu.Unlock()

	for _, i := range hits {
		if i < len(x.keywords) {
			found[x.keywords[i]] = true
		}
	}
	return found
}

// count returns how many distinct keywords occur in text.
func (x *keywordIndex) count(text string) int {
	return len(x.find(text))
}

// any reports whether at least one keyword occurs in text.
func (x *keywordIndex) any(text string) bool {
	return x.count(text) > 0
}

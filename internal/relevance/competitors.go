package relevance

import (
	"sort"
	"unicode"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// contextRadius is the number of runes kept on each side of a brand mention.
const contextRadius = 50

type brand struct {
	name  string
	group string
	runes []rune
}

// CompetitorDetector finds known brand names in text.
type CompetitorDetector struct {
	index  *keywordIndex
	brands map[string][]brand
}

// NewCompetitorDetector builds a detector from brand groups.
func NewCompetitorDetector(groups map[string][]string) *CompetitorDetector {
	d := &CompetitorDetector{brands: make(map[string][]brand)}

	groupNames := make([]string, 0, len(groups))
	for g := range groups {
		groupNames = append(groupNames, g)
	}
	sort.Strings(groupNames)

	var names []string
	for _, g := range groupNames {
		for _, name := range groups[g] {
			k := fold(name)
			d.brands[k] = append(d.brands[k], brand{name: name, group: g, runes: []rune(k)})
			names = append(names, name)
		}
	}
	d.index = newKeywordIndex(names)
	return d
}

// Detect returns one mention per brand found in text, with up to fifty runes
// of surrounding context taken around the first occurrence.
func (d *CompetitorDetector) Detect(text string) []model.CompetitorMention {
	found := d.index.find(text)
	if len(found) == 0 {
		return nil
	}

	original := []rune(text)
	lowered := make([]rune, len(original))
	for i, r := range original {
		lowered[i] = unicode.ToLower(r)
	}

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mentions []model.CompetitorMention
	for _, k := range keys {
		for _, b := range d.brands[k] {
			at := runeIndex(lowered, b.runes)
			if at < 0 {
				continue
			}
			start := max(0, at-contextRadius)
			end := min(len(original), at+len(b.runes)+contextRadius)
			mentions = append(mentions, model.CompetitorMention{
				Brand:   b.name,
				Group:   b.group,
				Context: string(original[start:end]),
			})
		}
	}
	return mentions
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

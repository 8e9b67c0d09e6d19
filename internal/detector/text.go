package detector

import (
	"strings"
	"unicode"
)

const (
	// maxSignificantTokens caps how many text tokens feed the keyword index
	// when narrowing the applicable rule set
	maxSignificantTokens = 50

	// minTokenLength filters out short filler words before the stopword check
	minTokenLength = 4

	// contextRadius is the number of characters kept on each side of a match
	contextRadius = 50
)

// stopwords are common English words excluded from keyword-based rule
// selection. Only words of minTokenLength or more need to be listed.
var stopwords = map[string]bool{
	"about": true, "after": true, "been": true, "before": true,
	"being": true, "does": true, "each": true, "from": true,
	"have": true, "here": true, "into": true, "just": true,
	"more": true, "most": true, "only": true, "other": true,
	"over": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true,
	"those": true, "very": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true,
	"will": true, "with": true, "would": true, "your": true,
}

// synonymGroups lists phrases treated as equivalent when checking whether
// a required element is present in the text. Membership works in both
// directions: any member satisfies a requirement naming any other member.
var synonymGroups = [][]string{
	{"apr", "annual percentage rate", "effective interest rate"},
	{"terms and conditions", "t&c", "tnc"},
	{"grievance", "complaint", "customer service"},
}

// significantTokens extracts up to maxSignificantTokens lowercased words
// from the text, skipping short words and stopwords
func significantTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, maxSignificantTokens)
	for _, field := range fields {
		if len(field) < minTokenLength || stopwords[field] {
			continue
		}
		tokens = append(tokens, field)
		if len(tokens) == maxSignificantTokens {
			break
		}
	}
	return tokens
}

// phraseStarts returns the start offset of every occurrence of needle in
// haystack. The cursor advances one character past each match start, not
// past its end, so overlapping repeats of short phrases are all reported.
// Deliberately permissive: recall is preferred over deduplication here.
func phraseStarts(haystack, needle string) []int {
	if needle == "" {
		return nil
	}
	var starts []int
	cursor := 0
	for cursor < len(haystack) {
		i := strings.Index(haystack[cursor:], needle)
		if i < 0 {
			break
		}
		start := cursor + i
		starts = append(starts, start)
		cursor = start + 1
	}
	return starts
}

// contextWindow returns the text surrounding [start,end) with
// contextRadius characters of padding on each side, clamped to the text
func contextWindow(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	return text[from:to]
}

// elementPresent reports whether the element or any of its synonyms
// appears in the lowercased text
func elementPresent(lowerText, element string) bool {
	for _, candidate := range synonymsFor(element) {
		if strings.Contains(lowerText, candidate) {
			return true
		}
	}
	return false
}

// synonymsFor expands an element name into the set of phrases that count
// as that element being present
func synonymsFor(element string) []string {
	elem := strings.ToLower(strings.TrimSpace(element))
	candidates := []string{elem}
	for _, group := range synonymGroups {
		for _, member := range group {
			if strings.Contains(elem, member) {
				candidates = append(candidates, group...)
				break
			}
		}
	}
	return candidates
}

// similarity is a normalized edit-distance measure between two strings:
// 1.0 for identical input, approaching 0 as they diverge
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(editDistance(a, b))/float64(longest)
}

// editDistance computes the Levenshtein distance with a two-row table
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

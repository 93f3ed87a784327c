package palette

import (
	"sort"
	"strings"
	"unicode"
)

// SearchResult is a matched entry with its score.
type SearchResult struct {
	Entry *Entry

	// Score is the match score (higher is better).
	Score int

	// Field names what matched: "label", "name" or "category".
	Field string

	// Matches holds the byte offsets of matched characters in Field.
	Matches []int
}

// Filter ranks entries against a query with fuzzy matching.
type Filter struct {
	// MinScore is the score a match must exceed to be included.
	MinScore int
}

// NewFilter creates a filter with default settings.
func NewFilter() *Filter {
	return &Filter{}
}

// Search returns the entries matching query, best first. An empty query
// matches everything with score zero in the given order.
func (f *Filter) Search(entries []*Entry, query string, limit int) []SearchResult {
	results := make([]SearchResult, 0, len(entries))
	if query == "" {
		for _, e := range entries {
			results = append(results, SearchResult{Entry: e})
		}
		return truncate(results, limit)
	}

	query = strings.ToLower(query)
	for _, e := range entries {
		if r, ok := f.match(query, e); ok && r.Score > f.MinScore {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return truncate(results, limit)
}

func truncate(results []SearchResult, limit int) []SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

// match tries the label, then the name, then the category. The first
// field that matches decides the score.
func (f *Filter) match(query string, e *Entry) (SearchResult, bool) {
	fields := []struct {
		name  string
		text  string
		bonus int
	}{
		{"label", e.Label, 50},
		{"name", e.Name, 25},
		{"category", e.Category, 0},
	}
	for _, fd := range fields {
		if score, idx := fuzzyMatch(query, fd.text); score > 0 {
			return SearchResult{Entry: e, Score: score + fd.bonus, Field: fd.name, Matches: idx}, true
		}
	}
	return SearchResult{}, false
}

// fuzzyMatch matches query as a subsequence of text. query must already be
// lower case.
func fuzzyMatch(query, text string) (int, []int) {
	if text == "" {
		return 0, nil
	}

	lower := strings.ToLower(text)
	matches := make([]int, 0, len(query))
	qi := 0
	for i := 0; i < len(lower) && qi < len(query); i++ {
		if lower[i] == query[qi] {
			matches = append(matches, i)
			qi++
		}
	}
	if qi != len(query) {
		return 0, nil
	}
	return score(query, text, lower, matches), matches
}

func score(query, text, lower string, matches []int) int {
	if len(matches) == 0 {
		return 0
	}
	s := 100

	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			s += 20
		}
	}
	for _, idx := range matches {
		if isWordBoundary(text, idx) {
			s += 15
		}
	}
	if matches[0] == 0 {
		s += 25
	} else {
		s -= matches[0]
	}

	// Gaps between matched characters
	if gap := matches[len(matches)-1] - matches[0] - len(matches) + 1; gap > 0 {
		s -= gap * 2
	}

	// Shorter text is a more specific match
	if len(text) < 20 {
		s += 20 - len(text)
	}
	if strings.HasPrefix(lower, query) {
		s += 50
	}

	if s < 1 {
		s = 1
	}
	return s
}

// isWordBoundary reports whether text[idx] starts a word.
func isWordBoundary(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(text) {
		return false
	}
	prev, cur := rune(text[idx-1]), rune(text[idx])
	switch prev {
	case ' ', '/', '_', '-', '.', ':', '(':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(cur)
}

// FilterByCategory returns the entries in category, compared without case.
// An empty category returns entries unchanged.
func (f *Filter) FilterByCategory(entries []*Entry, category string) []*Entry {
	if category == "" {
		return entries
	}
	var result []*Entry
	for _, e := range entries {
		if strings.EqualFold(e.Category, category) {
			result = append(result, e)
		}
	}
	return result
}

package crawl

import (
	"sort"
	"strings"
)

const (
	minSegmentTokens = 6
	topSegments      = 6
)

// RankByQuery reorders the sentence-like segments of text by their token
// overlap with the query and keeps the top segments. It is a cheap proxy for
// relevance-weighted truncation; with an empty query it is a no-op.
func RankByQuery(text, query string) string {
	if query == "" {
		return text
	}

	var segments []string
	for _, seg := range strings.Split(text, ".") {
		seg = strings.TrimSpace(seg)
		if len(strings.Fields(seg)) > minSegmentTokens {
			segments = append(segments, seg)
		}
	}

	queryWords := tokenSet(query)
	sort.SliceStable(segments, func(a, b int) bool {
		return segmentOverlap(segments[a], queryWords) > segmentOverlap(segments[b], queryWords)
	})

	if len(segments) > topSegments {
		segments = segments[:topSegments]
	}
	return strings.Join(segments, ". ")
}

// RelevanceHits counts the distinct query terms present in text. The crawler
// stops early once two terms are found, treating that as sufficient evidence.
func RelevanceHits(text, query string) int {
	if query == "" {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	seen := make(map[string]struct{})
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return hits
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func segmentOverlap(segment string, queryWords map[string]struct{}) int {
	count := 0
	for w := range tokenSet(segment) {
		if _, ok := queryWords[w]; ok {
			count++
		}
	}
	return count
}

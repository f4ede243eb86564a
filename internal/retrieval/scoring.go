package retrieval

import (
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\w{3,}`)

// Cosine returns the cosine similarity of two vectors, 0 when either has no
// magnitude or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// KeywordOverlap scores the lexical affinity of a query and a chunk as the
// size of their shared token set normalized by the geometric mean of the set
// sizes, rounded to three decimals. Tokens shorter than three characters are
// ignored.
func KeywordOverlap(query, chunk string) float64 {
	q := tokens(query)
	c := tokens(chunk)
	if len(q) == 0 || len(c) == 0 {
		return 0
	}
	shared := 0
	for t := range q {
		if _, ok := c[t]; ok {
			shared++
		}
	}
	score := float64(shared) / math.Sqrt(float64(len(q))*float64(len(c)))
	return math.Round(score*1000) / 1000
}

func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		set[t] = struct{}{}
	}
	return set
}

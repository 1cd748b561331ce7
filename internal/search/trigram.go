package search

import "strings"

// similarityThreshold is the minimum trigram score for a fuzzy name match.
const similarityThreshold = 0.4

// Trigrams returns the set of all overlapping 3-character windows of s,
// after padding with two leading spaces and one trailing space.
func Trigrams(s string) map[string]struct{} {
	runes := []rune("  " + s + " ")
	set := make(map[string]struct{})

	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}

	return set
}

// Similarity returns a trigram containment score between two strings in
// [0.0, 1.0]: the fraction of a's trigrams that also occur in b.
//
// The score is asymmetric. A result of 1.0 means every trigram of a appears
// in b; 0.0 means no overlap. The direction matters: a is the query, b the
// candidate.
func Similarity(a, b string) float64 {
	triA := Trigrams(a)
	triB := Trigrams(b)

	if len(triA) == 0 {
		return 0
	}

	shared := 0
	for t := range triA {
		if _, ok := triB[t]; ok {
			shared++
		}
	}

	return float64(shared) / float64(len(triA))
}

// MatchName reports whether a candidate name matches a query: either the
// query is a case-insensitive substring of the name, or the query's trigram
// coverage of the name exceeds the similarity threshold.
func MatchName(query, name string) bool {
	q := strings.ToLower(query)
	n := strings.ToLower(name)

	if strings.Contains(n, q) {
		return true
	}

	return Similarity(q, n) > similarityThreshold
}

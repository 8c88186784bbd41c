// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import "strings"

// normalizeTitle prepares a paper title for similarity comparison:
// lowercase, hyphens and colons become spaces, whitespace collapsed.
func normalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", ":", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// similarity scores two strings in [0,1] as one minus the edit distance
// over the longer rune count. Identical strings score 1.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes the edit distance between two rune sequences.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minOf(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

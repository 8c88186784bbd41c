// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keyword evaluates OR-of-AND keyword-group expressions against
// free text.
package keyword

import (
	"sort"
	"strings"
)

// MatchGroups reports whether any group has all of its terms present as
// case-insensitive substrings of text. The returned terms are the union
// of all terms from every fully matching group, sorted; they are used for
// reporting only.
//
// An empty group list returns false. Callers that treat emptiness as
// "accept all" must check before invoking.
func MatchGroups(text string, groups [][]string) (bool, []string) {
	lower := strings.ToLower(text)
	matched := make(map[string]struct{})

	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		all := true
		for _, term := range group {
			if !strings.Contains(lower, strings.ToLower(term)) {
				all = false
				break
			}
		}
		if all {
			for _, term := range group {
				matched[term] = struct{}{}
			}
		}
	}

	if len(matched) == 0 {
		return false, nil
	}
	terms := make([]string, 0, len(matched))
	for t := range matched {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return true, terms
}

// Excluded reports whether any exclude term appears as a case-insensitive
// substring of title, returning the first matching term. A non-empty
// exclude list always applies; there is no override.
func Excluded(title string, terms []string) (bool, string) {
	lower := strings.ToLower(title)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			return true, term
		}
	}
	return false, ""
}

// GroupQuery renders keyword groups as a boolean query string for APIs
// that accept one: terms quoted and ANDed within a group, groups ORed.
// Empty groups are skipped. Example:
//
//	[["LLM","Quantization"],["Pruning"]] → ("LLM" AND "Quantization") OR ("Pruning")
func GroupQuery(groups [][]string) string {
	var outer []string
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		quoted := make([]string, len(group))
		for i, term := range group {
			quoted[i] = `"` + term + `"`
		}
		outer = append(outer, "("+strings.Join(quoted, " AND ")+")")
	}
	return strings.Join(outer, " OR ")
}

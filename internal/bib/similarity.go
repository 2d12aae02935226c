// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bib

import (
	"strings"
	"unicode"
)

// normalizeText lowercases, strips punctuation, and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSet splits normalized text into the set of words longer than two
// characters. Short words (of, an, is) carry no matching signal.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalizeText(s)) {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

// TitleSimilarity computes the Jaccard similarity of the word sets of two
// titles. It is symmetric and returns 1 for identical non-empty titles and
// 0 when either side has no usable tokens.
func TitleSimilarity(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	intersection := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	return float64(intersection) / float64(union)
}

// AuthorOverlap returns the fraction of query authors that match some
// result author. Two names match when they share a token longer than two
// characters by substring containment in either direction, which
// approximates last-name matching across formatting differences.
func AuthorOverlap(queryAuthors, resultAuthors []string) float64 {
	if len(queryAuthors) == 0 || len(resultAuthors) == 0 {
		return 0
	}
	matched := 0
	for _, qa := range queryAuthors {
		if anyAuthorMatch(qa, resultAuthors) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryAuthors))
}

func anyAuthorMatch(queryAuthor string, resultAuthors []string) bool {
	qTokens := strings.Fields(normalizeText(queryAuthor))
	for _, ra := range resultAuthors {
		rTokens := strings.Fields(normalizeText(ra))
		for _, qt := range qTokens {
			if len(qt) <= 2 {
				continue
			}
			for _, rt := range rTokens {
				if len(rt) <= 2 {
					continue
				}
				if strings.Contains(qt, rt) || strings.Contains(rt, qt) {
					return true
				}
			}
		}
	}
	return false
}

// YearBonus returns a proximity bonus scaled into [0,1]: 1 for an exact
// match, decreasing for one and two years of difference, 0 beyond that.
func YearBonus(queryYear, resultYear int) float64 {
	if queryYear == 0 || resultYear == 0 {
		return 0
	}
	diff := queryYear - resultYear
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1
	case 1:
		return 0.5
	case 2:
		return 0.25
	default:
		return 0
	}
}

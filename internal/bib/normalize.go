// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bib extracts and normalizes bibliographic identifiers and computes
// match confidence between queries and candidate results.
package bib

import (
	"regexp"
	"strings"
)

// doiFieldPattern validates an explicit DOI field value.
var doiFieldPattern = regexp.MustCompile(`(?i)^10\.\d{4,}/\S+$`)

// doiScanPattern finds a DOI embedded in free text or URLs.
var doiScanPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiPrefixPattern strips resolver and label prefixes during normalization.
var doiPrefixPattern = regexp.MustCompile(`(?i)^(https?://(dx\.)?doi\.org/|doi:\s*)`)

// arxivNewPattern matches modern arXiv IDs: "2301.07041", "2301.07041v2".
var arxivNewPattern = regexp.MustCompile(`(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)`)

// arxivOldPattern matches legacy arXiv IDs: "cs.DL/0112017", "hep-th/9901001".
var arxivOldPattern = regexp.MustCompile(`([a-z\-]+(?:\.[A-Z]{2})?/\d{7})`)

// isbnScanPattern finds ISBN-10/13 values, with optional separators.
var isbnScanPattern = regexp.MustCompile(`(?i)ISBN[-:\s]*((?:97[89][-\s]?)?(?:\d[-\s]?){9}[\dXx])`)

// NormalizeDOI lowercases a DOI and strips resolver URLs and "doi:" labels.
// Normalization is idempotent; an empty or non-DOI string normalizes to "".
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = doiPrefixPattern.ReplaceAllString(doi, "")
	doi = strings.TrimSpace(strings.ToLower(doi))
	if doi == "" {
		return ""
	}
	if !doiFieldPattern.MatchString(doi) {
		return ""
	}
	return doi
}

// SameDOI reports whether two DOI strings identify the same work after
// normalization. Two empty values never match.
func SameDOI(a, b string) bool {
	na, nb := NormalizeDOI(a), NormalizeDOI(b)
	return na != "" && na == nb
}

// CleanISBN removes hyphens and spaces from an ISBN and uppercases a
// trailing X check digit. Returns "" when the remainder is not a plausible
// ISBN-10 or ISBN-13.
func CleanISBN(isbn string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == 'x' || r == 'X':
			return 'X'
		default:
			return -1
		}
	}, isbn)
	if len(cleaned) != 10 && len(cleaned) != 13 {
		return ""
	}
	return cleaned
}

// FindDOI scans text for an embedded DOI and returns it normalized.
// Trailing punctuation picked up by the pattern is trimmed.
func FindDOI(text string) string {
	m := doiScanPattern.FindString(text)
	if m == "" {
		return ""
	}
	m = strings.TrimRight(m, ".,;)")
	return NormalizeDOI(m)
}

// FindArxivID scans text for an arXiv identifier, modern form first.
func FindArxivID(text string) string {
	if m := arxivNewPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := arxivOldPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// FindISBN scans free text for a labeled ISBN.
func FindISBN(text string) string {
	m := isbnScanPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return CleanISBN(m[1])
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bib

import (
	"strings"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// BuildQuery extracts a normalized SearchQuery from a record. Identifier
// fields are tried in priority order: the explicit field first, then the
// free-text extra field, then the URL. When nothing identifying is found the
// query is not dispatchable and BuildQuery returns types.ErrNoQuery so the
// caller can short-circuit before any network call.
func BuildQuery(rec types.Record) (types.SearchQuery, error) {
	q := types.SearchQuery{
		Title: strings.TrimSpace(rec.Title),
		Year:  rec.Year(),
	}

	q.DOI = extractDOI(rec)
	q.ArxivID = extractArxivID(rec)
	q.ISBN = extractISBN(rec)

	for _, c := range rec.Creators {
		if c.Role != "author" {
			continue
		}
		if name := c.DisplayName(); name != "" {
			q.Authors = append(q.Authors, name)
		}
	}

	if !q.Dispatchable() {
		return types.SearchQuery{}, types.ErrNoQuery
	}
	return q, nil
}

// extractDOI tries the explicit DOI field, then a "DOI:" line or raw DOI in
// the extra field, then a doi.org URL.
func extractDOI(rec types.Record) string {
	if doi := NormalizeDOI(rec.DOI); doi != "" {
		return doi
	}
	for _, line := range strings.Split(rec.Extra, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := cutPrefixFold(trimmed, "doi:"); ok {
			if doi := NormalizeDOI(strings.TrimSpace(rest)); doi != "" {
				return doi
			}
		}
	}
	if doi := FindDOI(rec.Extra); doi != "" {
		return doi
	}
	if strings.Contains(rec.URL, "doi.org/") {
		return FindDOI(rec.URL)
	}
	return ""
}

// extractArxivID checks the URL, the extra field, and the venue/repository
// fields when they mention arXiv.
func extractArxivID(rec types.Record) string {
	if strings.Contains(strings.ToLower(rec.URL), "arxiv") {
		if id := FindArxivID(rec.URL); id != "" {
			return id
		}
	}
	if id := FindArxivID(rec.Extra); id != "" {
		return id
	}
	for _, field := range []string{rec.Venue, rec.Repository} {
		if strings.Contains(strings.ToLower(field), "arxiv") {
			if id := FindArxivID(field); id != "" {
				return id
			}
		}
	}
	return ""
}

func extractISBN(rec types.Record) string {
	if isbn := CleanISBN(rec.ISBN); isbn != "" {
		return isbn
	}
	return FindISBN(rec.Extra)
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding on the prefix.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return s, false
	}
	if strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

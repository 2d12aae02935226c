// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// defaultLibgenMirrors are tried in order; the adapter advances on
// transport errors and blocked interstitials.
var defaultLibgenMirrors = []string{
	"https://libgen.is",
	"https://libgen.rs",
	"https://libgen.st",
}

// md5Pattern gates row acceptance: a row without a 32-hex content hash has
// no retrievable file behind it and is discarded.
var md5Pattern = regexp.MustCompile(`(?i)\b([0-9a-f]{32})\b`)

// Libgen scrapes a LibGen-style HTML results table. Rows are keyed by a
// 32-hex MD5 content hash, which doubles as a direct-lookup identifier.
type Libgen struct {
	cfg     types.AdapterConfig
	client  *client
	mirrors []string
}

// NewLibgen builds the LibGen adapter with its mirror list.
func NewLibgen(hc *http.Client, cfg types.AdapterConfig, userAgent string) *Libgen {
	mirrors := cfg.Mirrors
	if len(mirrors) == 0 {
		mirrors = defaultLibgenMirrors
	}
	return &Libgen{cfg: cfg, client: newClient(hc, cfg, userAgent), mirrors: mirrors}
}

// Name returns the adapter identifier.
func (a *Libgen) Name() string { return "libgen" }

// Search scrapes the results table. A DOI query hits the scientific-article
// index first; otherwise the ISBN or title+author goes to the default
// column. Every mirror blocked or failing surfaces types.ErrBlocked so the
// caller can distinguish "source unusable" from "work absent".
func (a *Libgen) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	if q.DOI != "" {
		results, err := a.scrape(ctx, q, "search.php?req="+url.QueryEscape(q.DOI)+"&column=doi")
		if err != nil || len(results) > 0 {
			return results, err
		}
		// Fall through to title+author when the DOI column is empty.
	}

	var term string
	switch {
	case q.ISBN != "":
		term = q.ISBN
	case q.Title != "":
		term = q.Title
		if len(q.Authors) > 0 {
			term += " " + q.Authors[0]
		}
	default:
		return nil, nil
	}
	return a.scrape(ctx, q, "search.php?req="+url.QueryEscape(term)+"&column=def")
}

// LookupIdentifier treats id as an MD5 content hash and searches the hash
// column directly.
func (a *Libgen) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	hash := strings.ToLower(strings.TrimSpace(id))
	if !md5Pattern.MatchString(hash) {
		return nil, types.ErrNotFound
	}
	results, err := a.scrape(ctx, types.SearchQuery{}, "search.php?req="+hash+"&column=md5")
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, types.ErrNotFound
	}
	r := results[0]
	r.Confidence = 1.0
	return &r, nil
}

func (a *Libgen) scrape(ctx context.Context, q types.SearchQuery, path string) ([]types.SearchResult, error) {
	var lastErr error
	for _, mirror := range a.mirrors {
		body, err := a.client.getHTML(ctx, mirror+"/"+path)
		if err != nil {
			lastErr = err
			continue
		}
		results, err := a.parseTable(mirror, body, q)
		if err != nil {
			lastErr = err
			continue
		}
		return results, nil
	}
	if lastErr == nil {
		return nil, nil
	}
	return nil, fmt.Errorf("all libgen mirrors failed: %w", lastErr)
}

// parseTable walks the results table row by row. Cell layout follows the
// classic LibGen index: id, authors, title, publisher, year, pages,
// language, size, extension, then mirror links carrying the MD5 hash.
func (a *Libgen) parseTable(mirror string, body []byte, q types.SearchQuery) ([]types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing libgen page: %w", err)
	}

	var results []types.SearchResult
	doc.Find("table.c tr, table#tablelibgen tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		html, _ := row.Html()
		m := md5Pattern.FindStringSubmatch(html)
		if m == nil {
			return // no content hash, nothing to download
		}
		hash := strings.ToLower(m[1])

		r := types.SearchResult{
			Authors: splitAuthors(cells.Eq(1).Text()),
			Title:   strings.TrimSpace(cells.Eq(2).Find("a").First().Text()),
			Source:  a.Name(),
			URL:     mirror + "/book/index.php?md5=" + hash,
			PDFURL:  mirror + "/get.php?md5=" + hash,
		}
		if r.Title == "" {
			r.Title = strings.TrimSpace(cells.Eq(2).Text())
		}
		if y, err := strconv.Atoi(strings.TrimSpace(cells.Eq(4).Text())); err == nil {
			r.Year = y
		}
		if q.Dispatchable() {
			r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		}
		results = append(results, r)
	})
	return results, nil
}

func splitAuthors(s string) []string {
	var authors []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

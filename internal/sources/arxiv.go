// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const defaultArxivBaseURL = "https://export.arxiv.org/api/query"

// Arxiv queries the arXiv Atom API by search terms or by identifier.
type Arxiv struct {
	cfg    types.AdapterConfig
	client *client
}

// NewArxiv builds the arXiv adapter from its configuration.
func NewArxiv(hc *http.Client, cfg types.AdapterConfig, userAgent string) *Arxiv {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultArxivBaseURL
	}
	return &Arxiv{cfg: cfg, client: newClient(hc, cfg, userAgent)}
}

// Name returns the adapter identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// arXiv Atom feed structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Published  string          `xml:"published"`
	DOI        string          `xml:"doi"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
	Rel  string `xml:"rel,attr"`
}

// Search queries by title (and author, when present) against the Atom API.
func (a *Arxiv) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	if q.ArxivID != "" {
		r, err := a.LookupIdentifier(ctx, q.ArxivID)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, nil
		}
		return []types.SearchResult{*r}, nil
	}
	if q.Title == "" {
		return nil, nil
	}

	parts := []string{"ti:" + quoteArxivTerm(q.Title)}
	if len(q.Authors) > 0 {
		parts = append(parts, "au:"+quoteArxivTerm(q.Authors[0]))
	}
	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=5",
		a.cfg.BaseURL, url.QueryEscape(strings.Join(parts, " AND ")))

	feed, err := a.getFeed(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, entry := range feed.Entries {
		r := a.toResult(entry)
		if r.ArxivID == "" {
			continue
		}
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier fetches a single entry by arXiv ID.
func (a *Arxiv) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	reqURL := fmt.Sprintf("%s?id_list=%s&max_results=1", a.cfg.BaseURL, url.QueryEscape(id))

	feed, err := a.getFeed(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if len(feed.Entries) == 0 || strings.TrimSpace(feed.Entries[0].Title) == "" {
		return nil, types.ErrNotFound
	}

	r := a.toResult(feed.Entries[0])
	r.Confidence = 1.0
	return &r, nil
}

func (a *Arxiv) getFeed(ctx context.Context, reqURL string) (*arxivFeed, error) {
	body, err := a.client.fetch(ctx, reqURL, nil, false)
	if err != nil {
		return nil, err
	}
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv feed: %w", err)
	}
	return &feed, nil
}

func (a *Arxiv) toResult(entry arxivEntry) types.SearchResult {
	arxivID := bib.FindArxivID(entry.ID)
	r := types.SearchResult{
		Title:   strings.Join(strings.Fields(entry.Title), " "),
		ArxivID: arxivID,
		DOI:     bib.NormalizeDOI(entry.DOI),
		URL:     entry.ID,
		Source:  a.Name(),
	}
	for _, au := range entry.Authors {
		if name := strings.TrimSpace(au.Name); name != "" {
			r.Authors = append(r.Authors, name)
		}
	}
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		r.Year = t.Year()
	}
	if len(entry.Categories) > 0 {
		r.Venue = "arXiv (" + entry.Categories[0].Term + ")"
	}
	for _, l := range entry.Links {
		if l.Type == "application/pdf" {
			r.PDFURL = l.Href
			break
		}
	}
	if r.PDFURL == "" && arxivID != "" {
		r.PDFURL = "https://arxiv.org/pdf/" + arxivID
	}
	return r
}

func quoteArxivTerm(s string) string {
	return `"` + strings.Join(strings.Fields(s), " ") + `"`
}

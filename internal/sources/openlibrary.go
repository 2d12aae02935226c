// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const defaultOpenLibraryBaseURL = "https://openlibrary.org"

// OpenLibrary resolves book metadata by ISBN and searches by title.
type OpenLibrary struct {
	cfg    types.AdapterConfig
	client *client
}

// NewOpenLibrary builds the OpenLibrary adapter.
func NewOpenLibrary(hc *http.Client, cfg types.AdapterConfig, userAgent string) *OpenLibrary {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenLibraryBaseURL
	}
	return &OpenLibrary{cfg: cfg, client: newClient(hc, cfg, userAgent)}
}

// Name returns the adapter identifier.
func (a *OpenLibrary) Name() string { return "openlibrary" }

type openLibraryBook struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	PublishDate string `json:"publish_date"`
	URL         string `json:"url"`
	Ebooks      []struct {
		PreviewURL string `json:"preview_url"`
		Formats    struct {
			PDF *struct {
				URL string `json:"url"`
			} `json:"pdf"`
		} `json:"formats"`
	} `json:"ebooks"`
}

type openLibrarySearchResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		ISBN             []string `json:"isbn"`
		Key              string   `json:"key"`
	} `json:"docs"`
}

// Search uses the search endpoint by title+author, or the books endpoint
// when the query carries an ISBN.
func (a *OpenLibrary) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	if q.ISBN != "" {
		r, err := a.LookupIdentifier(ctx, q.ISBN)
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

	reqURL := fmt.Sprintf("%s/search.json?title=%s&limit=5", a.cfg.BaseURL, url.QueryEscape(q.Title))
	if len(q.Authors) > 0 {
		reqURL += "&author=" + url.QueryEscape(q.Authors[0])
	}

	var resp openLibrarySearchResponse
	if err := a.client.getJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, doc := range resp.Docs {
		r := types.SearchResult{
			Title:   doc.Title,
			Authors: doc.AuthorName,
			Year:    doc.FirstPublishYear,
			URL:     a.cfg.BaseURL + doc.Key,
			Source:  a.Name(),
		}
		for _, isbn := range doc.ISBN {
			if cleaned := bib.CleanISBN(isbn); len(cleaned) == 13 {
				r.ISBN = cleaned
				break
			} else if cleaned != "" && r.ISBN == "" {
				r.ISBN = cleaned
			}
		}
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier fetches book metadata for one ISBN through the
// bibkeys/jscmd=data endpoint.
func (a *OpenLibrary) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	isbn := bib.CleanISBN(id)
	if isbn == "" {
		return nil, types.ErrNotFound
	}

	reqURL := fmt.Sprintf("%s/api/books?bibkeys=ISBN:%s&format=json&jscmd=data", a.cfg.BaseURL, isbn)
	books := map[string]openLibraryBook{}
	if err := a.client.getJSON(ctx, reqURL, nil, &books); err != nil {
		return nil, err
	}

	book, ok := books["ISBN:"+isbn]
	if !ok {
		return nil, types.ErrNotFound
	}

	r := types.SearchResult{
		Title:      book.Title,
		URL:        book.URL,
		ISBN:       isbn,
		Confidence: 1.0,
		Source:     a.Name(),
	}
	for _, au := range book.Authors {
		if au.Name != "" {
			r.Authors = append(r.Authors, au.Name)
		}
	}
	if y := yearFromText(book.PublishDate); y != 0 {
		r.Year = y
	}
	for _, e := range book.Ebooks {
		if e.Formats.PDF != nil && e.Formats.PDF.URL != "" {
			r.PDFURL = e.Formats.PDF.URL
			break
		}
	}
	return &r, nil
}

// yearFromText pulls a four-digit year out of loose date strings like
// "May 1994" or "1994".
func yearFromText(s string) int {
	for _, f := range strings.Fields(s) {
		if len(f) == 4 {
			y := 0
			if _, err := fmt.Sscanf(f, "%d", &y); err == nil && y > 1000 {
				return y
			}
		}
	}
	return 0
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const defaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1/volumes"

// GoogleBooks queries the Books volumes endpoint. Besides metadata it
// occasionally exposes a direct PDF download link for public-domain books.
type GoogleBooks struct {
	cfg    types.AdapterConfig
	client *client

	// APIKey raises quota limits; anonymous queries also work.
	APIKey string
}

// NewGoogleBooks builds the Google Books adapter.
func NewGoogleBooks(hc *http.Client, cfg types.AdapterConfig, userAgent, apiKey string) *GoogleBooks {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGoogleBooksBaseURL
	}
	return &GoogleBooks{cfg: cfg, client: newClient(hc, cfg, userAgent), APIKey: apiKey}
}

// Name returns the adapter identifier.
func (a *GoogleBooks) Name() string { return "googlebooks" }

type googleBooksResponse struct {
	Items []googleBooksVolume `json:"items"`
}

type googleBooksVolume struct {
	VolumeInfo struct {
		Title               string   `json:"title"`
		Authors             []string `json:"authors"`
		PublishedDate       string   `json:"publishedDate"`
		InfoLink            string   `json:"infoLink"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
	} `json:"volumeInfo"`
	AccessInfo struct {
		Pdf struct {
			IsAvailable  bool   `json:"isAvailable"`
			DownloadLink string `json:"downloadLink"`
		} `json:"pdf"`
	} `json:"accessInfo"`
}

// Search queries by ISBN when present, else by title and author terms.
func (a *GoogleBooks) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	var term string
	switch {
	case q.ISBN != "":
		term = "isbn:" + q.ISBN
	case q.Title != "":
		term = "intitle:" + q.Title
		if len(q.Authors) > 0 {
			term += " inauthor:" + q.Authors[0]
		}
	default:
		return nil, nil
	}

	reqURL := fmt.Sprintf("%s?q=%s&maxResults=5", a.cfg.BaseURL, url.QueryEscape(term))
	if a.APIKey != "" {
		reqURL += "&key=" + url.QueryEscape(a.APIKey)
	}

	var resp googleBooksResponse
	if err := a.client.getJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, v := range resp.Items {
		r := a.toResult(v)
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier treats id as an ISBN.
func (a *GoogleBooks) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	isbn := bib.CleanISBN(id)
	if isbn == "" {
		return nil, types.ErrNotFound
	}

	results, err := a.Search(ctx, types.SearchQuery{ISBN: isbn})
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

func (a *GoogleBooks) toResult(v googleBooksVolume) types.SearchResult {
	info := v.VolumeInfo
	r := types.SearchResult{
		Title:   info.Title,
		Authors: info.Authors,
		URL:     info.InfoLink,
		Source:  a.Name(),
	}
	if len(info.PublishedDate) >= 4 {
		fmt.Sscanf(info.PublishedDate[:4], "%d", &r.Year)
	}
	if v.AccessInfo.Pdf.IsAvailable && v.AccessInfo.Pdf.DownloadLink != "" {
		r.PDFURL = v.AccessInfo.Pdf.DownloadLink
	}
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			r.ISBN = bib.CleanISBN(id.Identifier)
			break
		}
		if id.Type == "ISBN_10" && r.ISBN == "" {
			r.ISBN = bib.CleanISBN(id.Identifier)
		}
	}
	return r
}

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

// defaultCrossrefBaseURL is the CrossRef works endpoint.
const defaultCrossrefBaseURL = "https://api.crossref.org/works"

// Crossref queries the CrossRef REST API by free query or by DOI.
type Crossref struct {
	cfg    types.AdapterConfig
	client *client
}

// NewCrossref builds the CrossRef adapter from its configuration.
func NewCrossref(hc *http.Client, cfg types.AdapterConfig, userAgent string) *Crossref {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCrossrefBaseURL
	}
	return &Crossref{cfg: cfg, client: newClient(hc, cfg, userAgent)}
}

// Name returns the adapter identifier.
func (a *Crossref) Name() string { return "crossref" }

type crossrefSearchResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWorkResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	Author         []crossrefAuthor `json:"author"`
	DOI            string           `json:"DOI"`
	URL            string           `json:"URL"`
	Type           string           `json:"type"`
	ContainerTitle []string         `json:"container-title"`
	Issued         crossrefDate     `json:"issued"`
	Link           []crossrefLink   `json:"link"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

type crossrefLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// Search issues a bibliographic query built from title and authors.
func (a *Crossref) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	if q.DOI != "" {
		r, err := a.LookupIdentifier(ctx, q.DOI)
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

	terms := q.Title
	if len(q.Authors) > 0 {
		terms += " " + strings.Join(q.Authors, " ")
	}
	reqURL := fmt.Sprintf("%s?query.bibliographic=%s&rows=5", a.cfg.BaseURL, url.QueryEscape(terms))

	var resp crossrefSearchResponse
	if err := a.client.getJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, w := range resp.Message.Items {
		r := a.toResult(w)
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier fetches a single work by DOI.
func (a *Crossref) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	doi := bib.NormalizeDOI(id)
	if doi == "" {
		return nil, types.ErrNotFound
	}

	var resp crossrefWorkResponse
	err := a.client.getJSON(ctx, a.cfg.BaseURL+"/"+url.PathEscape(doi), nil, &resp)
	if err != nil {
		return nil, err
	}

	r := a.toResult(resp.Message)
	r.Confidence = 1.0
	return &r, nil
}

func (a *Crossref) toResult(w crossrefWork) types.SearchResult {
	r := types.SearchResult{
		DOI:      bib.NormalizeDOI(w.DOI),
		URL:      w.URL,
		WorkType: w.Type,
		Source:   a.Name(),
	}
	if len(w.Title) > 0 {
		r.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		r.Venue = w.ContainerTitle[0]
	}
	for _, au := range w.Author {
		name := strings.TrimSpace(au.Given + " " + au.Family)
		if name != "" {
			r.Authors = append(r.Authors, name)
		}
	}
	if len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 {
		r.Year = w.Issued.DateParts[0][0]
	}
	for _, l := range w.Link {
		if l.ContentType == "application/pdf" {
			r.PDFURL = l.URL
			break
		}
	}
	return r
}

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

const defaultSemanticBaseURL = "https://api.semanticscholar.org/graph/v1/paper"

// semanticFields is the field list requested on every Semantic Scholar call.
const semanticFields = "title,authors,year,venue,externalIds,openAccessPdf,publicationTypes,url"

// SemanticScholar queries the Semantic Scholar Graph API.
type SemanticScholar struct {
	cfg    types.AdapterConfig
	client *client

	// APIKey raises the rate budget when present.
	APIKey string
}

// NewSemanticScholar builds the Semantic Scholar adapter.
func NewSemanticScholar(hc *http.Client, cfg types.AdapterConfig, userAgent, apiKey string) *SemanticScholar {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSemanticBaseURL
	}
	return &SemanticScholar{cfg: cfg, client: newClient(hc, cfg, userAgent), APIKey: apiKey}
}

// Name returns the adapter identifier.
func (a *SemanticScholar) Name() string { return "semanticscholar" }

type semanticSearchResponse struct {
	Data []semanticPaper `json:"data"`
}

type semanticPaper struct {
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Venue   string `json:"venue"`
	URL     string `json:"url"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	OpenAccessPdf *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
	PublicationTypes []string `json:"publicationTypes"`
}

// Search queries the graph-search endpoint with title and author terms.
func (a *SemanticScholar) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	if q.Title == "" {
		return nil, nil
	}

	terms := q.Title
	if len(q.Authors) > 0 {
		terms += " " + strings.Join(q.Authors, " ")
	}
	reqURL := fmt.Sprintf("%s/search?query=%s&fields=%s&limit=5",
		a.cfg.BaseURL, url.QueryEscape(terms), semanticFields)

	var resp semanticSearchResponse
	if err := a.client.getJSON(ctx, reqURL, a.headers(), &resp); err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, p := range resp.Data {
		r := a.toResult(p)
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier fetches a single paper by prefixed identifier, e.g.
// "DOI:10.1000/xyz" or "arXiv:2301.07041". Bare DOIs are prefixed
// automatically.
func (a *SemanticScholar) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	if doi := bib.NormalizeDOI(id); doi != "" {
		id = "DOI:" + doi
	}
	reqURL := fmt.Sprintf("%s/%s?fields=%s", a.cfg.BaseURL, url.PathEscape(id), semanticFields)

	var p semanticPaper
	if err := a.client.getJSON(ctx, reqURL, a.headers(), &p); err != nil {
		return nil, err
	}

	r := a.toResult(p)
	r.Confidence = 1.0
	return &r, nil
}

func (a *SemanticScholar) headers() map[string]string {
	if a.APIKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": a.APIKey}
}

func (a *SemanticScholar) toResult(p semanticPaper) types.SearchResult {
	r := types.SearchResult{
		Title:   p.Title,
		Year:    p.Year,
		Venue:   p.Venue,
		URL:     p.URL,
		DOI:     bib.NormalizeDOI(p.ExternalIDs.DOI),
		ArxivID: p.ExternalIDs.ArXiv,
		Source:  a.Name(),
	}
	for _, au := range p.Authors {
		if au.Name != "" {
			r.Authors = append(r.Authors, au.Name)
		}
	}
	if p.OpenAccessPdf != nil {
		r.PDFURL = p.OpenAccessPdf.URL
	}
	if len(p.PublicationTypes) > 0 {
		r.WorkType = p.PublicationTypes[0]
	}
	return r
}

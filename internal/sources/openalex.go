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

const defaultOpenAlexBaseURL = "https://api.openalex.org/works"

// OpenAlex queries the OpenAlex works endpoint. OpenAlex exposes a per-work
// open-access location, which makes it useful for both resolution and
// retrieval.
type OpenAlex struct {
	cfg    types.AdapterConfig
	client *client

	// Mailto joins the polite pool and raises the rate budget.
	Mailto string
}

// NewOpenAlex builds the OpenAlex adapter from its configuration.
func NewOpenAlex(hc *http.Client, cfg types.AdapterConfig, userAgent, mailto string) *OpenAlex {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAlexBaseURL
	}
	return &OpenAlex{cfg: cfg, client: newClient(hc, cfg, userAgent), Mailto: mailto}
}

// Name returns the adapter identifier.
func (a *OpenAlex) Name() string { return "openalex" }

type openAlexListResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	DisplayName     string             `json:"display_name"`
	PublicationYear int                `json:"publication_year"`
	DOI             string             `json:"doi"`
	Type            string             `json:"type"`
	Authorships     []openAlexAuthship `json:"authorships"`
	BestOALocation  *openAlexLocation  `json:"best_oa_location"`
	PrimaryLocation *openAlexLocation  `json:"primary_location"`
}

type openAlexAuthship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	PDFURL      string `json:"pdf_url"`
	LandingURL  string `json:"landing_page_url"`
	SourceTitle struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

// Search uses the filter-query endpoint with a title search.
func (a *OpenAlex) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
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

	reqURL := fmt.Sprintf("%s?filter=title.search:%s&per-page=5", a.cfg.BaseURL, url.QueryEscape(q.Title))
	reqURL = a.withMailto(reqURL)

	var resp openAlexListResponse
	if err := a.client.getJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, w := range resp.Results {
		r := a.toResult(w)
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier fetches a single work by DOI through the resolver-URL
// form of the works endpoint.
func (a *OpenAlex) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	doi := bib.NormalizeDOI(id)
	if doi == "" {
		return nil, types.ErrNotFound
	}

	reqURL := a.withMailto(a.cfg.BaseURL + "/https://doi.org/" + doi)
	var w openAlexWork
	if err := a.client.getJSON(ctx, reqURL, nil, &w); err != nil {
		return nil, err
	}

	r := a.toResult(w)
	r.Confidence = 1.0
	return &r, nil
}

func (a *OpenAlex) withMailto(reqURL string) string {
	if a.Mailto == "" {
		return reqURL
	}
	sep := "?"
	for _, c := range reqURL {
		if c == '?' {
			sep = "&"
			break
		}
	}
	return reqURL + sep + "mailto=" + url.QueryEscape(a.Mailto)
}

func (a *OpenAlex) toResult(w openAlexWork) types.SearchResult {
	r := types.SearchResult{
		Title:    w.DisplayName,
		Year:     w.PublicationYear,
		DOI:      bib.NormalizeDOI(w.DOI),
		WorkType: w.Type,
		Source:   a.Name(),
	}
	for _, as := range w.Authorships {
		if as.Author.DisplayName != "" {
			r.Authors = append(r.Authors, as.Author.DisplayName)
		}
	}
	if loc := w.BestOALocation; loc != nil {
		r.PDFURL = loc.PDFURL
		r.URL = loc.LandingURL
	}
	if loc := w.PrimaryLocation; loc != nil {
		if r.URL == "" {
			r.URL = loc.LandingURL
		}
		r.Venue = loc.SourceTitle.DisplayName
	}
	return r
}

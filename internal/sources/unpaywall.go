// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const defaultUnpaywallBaseURL = "https://api.unpaywall.org/v2"

// Unpaywall looks up open-access locations by DOI. It is purely
// identifier-keyed: records without a DOI get nothing from this source.
type Unpaywall struct {
	cfg    types.AdapterConfig
	client *client

	// Email is required by the Unpaywall API terms.
	Email string
}

// NewUnpaywall builds the Unpaywall adapter.
func NewUnpaywall(hc *http.Client, cfg types.AdapterConfig, userAgent, email string) *Unpaywall {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultUnpaywallBaseURL
	}
	return &Unpaywall{cfg: cfg, client: newClient(hc, cfg, userAgent), Email: email}
}

// Name returns the adapter identifier.
func (a *Unpaywall) Name() string { return "unpaywall" }

type unpaywallResponse struct {
	DOI            string `json:"doi"`
	Title          string `json:"title"`
	Year           int    `json:"year"`
	Genre          string `json:"genre"`
	JournalName    string `json:"journal_name"`
	BestOALocation *struct {
		URLForPDF string `json:"url_for_pdf"`
		URL       string `json:"url"`
	} `json:"best_oa_location"`
	ZAuthors []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"z_authors"`
}

// Search is DOI-keyed only; a query without a DOI yields no results.
func (a *Unpaywall) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	if q.DOI == "" {
		return nil, nil
	}
	r, err := a.LookupIdentifier(ctx, q.DOI)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return []types.SearchResult{*r}, nil
}

// LookupIdentifier fetches the open-access record for a DOI.
func (a *Unpaywall) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	doi := bib.NormalizeDOI(id)
	if doi == "" {
		return nil, types.ErrNotFound
	}

	reqURL := a.cfg.BaseURL + "/" + url.PathEscape(doi)
	if a.Email != "" {
		reqURL += "?email=" + url.QueryEscape(a.Email)
	}

	var resp unpaywallResponse
	if err := a.client.getJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}

	r := types.SearchResult{
		Title:      resp.Title,
		Year:       resp.Year,
		DOI:        bib.NormalizeDOI(resp.DOI),
		Venue:      resp.JournalName,
		WorkType:   resp.Genre,
		Confidence: 1.0,
		Source:     a.Name(),
	}
	for _, au := range resp.ZAuthors {
		name := strings.TrimSpace(au.Given + " " + au.Family)
		if name != "" {
			r.Authors = append(r.Authors, name)
		}
	}
	if loc := resp.BestOALocation; loc != nil {
		r.PDFURL = loc.URLForPDF
		r.URL = loc.URL
	}
	return &r, nil
}

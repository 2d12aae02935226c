// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const defaultPubmedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pmcArticleBase is where a PMCID turns into a full-text page and PDF.
const pmcArticleBase = "https://www.ncbi.nlm.nih.gov/pmc/articles/"

// PubmedCentral queries the NCBI eutils two-step protocol: esearch for
// matching PMC IDs, then esummary for their metadata in one batch call.
// The eutils budget is 3 requests per second without an API key.
type PubmedCentral struct {
	cfg    types.AdapterConfig
	client *client
}

// NewPubmedCentral builds the PubMed Central adapter.
func NewPubmedCentral(hc *http.Client, cfg types.AdapterConfig, userAgent string) *PubmedCentral {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultPubmedBaseURL
	}
	return &PubmedCentral{cfg: cfg, client: newClient(hc, cfg, userAgent)}
}

// Name returns the adapter identifier.
func (a *PubmedCentral) Name() string { return "pubmedcentral" }

type pmcSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pmcSummaryResponse struct {
	// Result values are RawMessage because the map carries a "uids"
	// bookkeeping array alongside the per-ID summary objects.
	Result map[string]json.RawMessage `json:"result"`
}

type pmcSummary struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	PubDate string `json:"pubdate"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIDs []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
	FullJournalName string `json:"fulljournalname"`
}

// Search runs esearch with title (or DOI) terms, then esummary for the
// returned IDs.
func (a *PubmedCentral) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	var term string
	switch {
	case q.DOI != "":
		term = q.DOI
	case q.Title != "":
		term = q.Title
	default:
		return nil, nil
	}

	searchURL := fmt.Sprintf("%s/esearch.fcgi?db=pmc&term=%s&retmax=5&retmode=json",
		a.cfg.BaseURL, url.QueryEscape(term))
	var search pmcSearchResponse
	if err := a.client.getJSON(ctx, searchURL, nil, &search); err != nil {
		return nil, err
	}
	if len(search.ESearchResult.IDList) == 0 {
		return nil, nil
	}

	summaries, err := a.summaries(ctx, search.ESearchResult.IDList)
	if err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, id := range search.ESearchResult.IDList {
		s, ok := summaries[id]
		if !ok {
			continue
		}
		r := a.toResult(s)
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier resolves a PMCID ("PMC1234567") or PMID directly via
// esummary.
func (a *PubmedCentral) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	id = strings.TrimPrefix(strings.TrimSpace(id), "PMC")
	if id == "" {
		return nil, types.ErrNotFound
	}

	summaries, err := a.summaries(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	s, ok := summaries[id]
	if !ok || s.Title == "" {
		return nil, types.ErrNotFound
	}

	r := a.toResult(s)
	r.Confidence = 1.0
	return &r, nil
}

func (a *PubmedCentral) summaries(ctx context.Context, ids []string) (map[string]pmcSummary, error) {
	summaryURL := fmt.Sprintf("%s/esummary.fcgi?db=pmc&id=%s&retmode=json",
		a.cfg.BaseURL, strings.Join(ids, ","))
	var resp pmcSummaryResponse
	if err := a.client.getJSON(ctx, summaryURL, nil, &resp); err != nil {
		return nil, err
	}

	summaries := make(map[string]pmcSummary, len(resp.Result))
	for uid, raw := range resp.Result {
		if uid == "uids" {
			continue
		}
		var s pmcSummary
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parsing esummary entry %s: %w", uid, err)
		}
		summaries[uid] = s
	}
	return summaries, nil
}

func (a *PubmedCentral) toResult(s pmcSummary) types.SearchResult {
	r := types.SearchResult{
		Title:  s.Title,
		Venue:  s.FullJournalName,
		Source: a.Name(),
	}
	for _, au := range s.Authors {
		if au.Name != "" {
			r.Authors = append(r.Authors, au.Name)
		}
	}
	if len(s.PubDate) >= 4 {
		fmt.Sscanf(s.PubDate[:4], "%d", &r.Year)
	}
	for _, aid := range s.ArticleIDs {
		switch aid.IDType {
		case "doi":
			r.DOI = bib.NormalizeDOI(aid.Value)
		case "pmcid":
			pmcid := strings.TrimSpace(aid.Value)
			r.URL = pmcArticleBase + pmcid + "/"
			r.PDFURL = pmcArticleBase + pmcid + "/pdf/"
		}
	}
	if r.URL == "" && s.UID != "" {
		r.URL = pmcArticleBase + "PMC" + s.UID + "/"
		r.PDFURL = pmcArticleBase + "PMC" + s.UID + "/pdf/"
	}
	return r
}

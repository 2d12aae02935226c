// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const (
	defaultArchiveSearchURL = "https://archive.org/advancedsearch.php"
	archiveMetadataBase     = "https://archive.org/metadata/"
	archiveDownloadBase     = "https://archive.org/download/"
)

// InternetArchive searches the archive.org full-text collection and walks
// each item's file manifest for a listed PDF.
type InternetArchive struct {
	cfg    types.AdapterConfig
	client *client

	// metadataBase and downloadBase are split out so tests can point both
	// steps of the protocol at one httptest server.
	metadataBase string
	downloadBase string
}

// NewInternetArchive builds the Internet Archive adapter.
func NewInternetArchive(hc *http.Client, cfg types.AdapterConfig, userAgent string) *InternetArchive {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultArchiveSearchURL
	}
	a := &InternetArchive{cfg: cfg, client: newClient(hc, cfg, userAgent)}
	a.metadataBase = archiveMetadataBase
	a.downloadBase = archiveDownloadBase
	if cfg.BaseURL != defaultArchiveSearchURL {
		// Test server substitution: derive sibling endpoints from the base.
		root := strings.TrimSuffix(cfg.BaseURL, "/advancedsearch.php")
		a.metadataBase = root + "/metadata/"
		a.downloadBase = root + "/download/"
	}
	return a
}

// Name returns the adapter identifier.
func (a *InternetArchive) Name() string { return "internetarchive" }

type archiveSearchResponse struct {
	Response struct {
		Docs []archiveDoc `json:"docs"`
	} `json:"response"`
}

type archiveDoc struct {
	Identifier string   `json:"identifier"`
	Title      string   `json:"title"`
	Creator    []string `json:"creator"`
	Year       string   `json:"year"`
}

type archiveMetadataResponse struct {
	Files []struct {
		Name   string `json:"name"`
		Format string `json:"format"`
	} `json:"files"`
}

// Search queries by ISBN when present, else by title, and resolves each
// hit's file manifest to a direct PDF link.
func (a *InternetArchive) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
	var term string
	switch {
	case q.ISBN != "":
		term = "isbn:" + q.ISBN
	case q.Title != "":
		term = "title:(" + q.Title + ")"
	default:
		return nil, nil
	}

	reqURL := fmt.Sprintf("%s?q=%s&fl[]=identifier&fl[]=title&fl[]=creator&fl[]=year&rows=5&output=json",
		a.cfg.BaseURL, url.QueryEscape(term))

	var resp archiveSearchResponse
	if err := a.client.getJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}

	var results []types.SearchResult
	for _, doc := range resp.Response.Docs {
		r := a.toResult(ctx, doc)
		r.Confidence = bib.Score(q, r, a.cfg.Scoring)
		results = append(results, r)
	}
	return results, nil
}

// LookupIdentifier fetches one item's metadata by archive identifier.
func (a *InternetArchive) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, types.ErrNotFound
	}

	pdfURL, err := a.findPDF(ctx, id)
	if err != nil {
		return nil, err
	}
	if pdfURL == "" {
		return nil, types.ErrNotFound
	}

	return &types.SearchResult{
		URL:        "https://archive.org/details/" + id,
		PDFURL:     pdfURL,
		Confidence: 1.0,
		Source:     a.Name(),
	}, nil
}

func (a *InternetArchive) toResult(ctx context.Context, doc archiveDoc) types.SearchResult {
	r := types.SearchResult{
		Title:   doc.Title,
		Authors: doc.Creator,
		URL:     "https://archive.org/details/" + doc.Identifier,
		Source:  a.Name(),
	}
	if y, err := strconv.Atoi(doc.Year); err == nil {
		r.Year = y
	}
	// Best effort: a missing or unreadable manifest just leaves PDFURL empty.
	if pdfURL, err := a.findPDF(ctx, doc.Identifier); err == nil {
		r.PDFURL = pdfURL
	}
	return r
}

// findPDF walks the item's file manifest for the first listed PDF.
func (a *InternetArchive) findPDF(ctx context.Context, identifier string) (string, error) {
	var meta archiveMetadataResponse
	if err := a.client.getJSON(ctx, a.metadataBase+identifier, nil, &meta); err != nil {
		return "", err
	}
	for _, f := range meta.Files {
		if strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
			return a.downloadBase + identifier + "/" + f.Name, nil
		}
	}
	return "", nil
}

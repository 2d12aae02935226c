// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// defaultResolverMirrors for the DOI-keyed resolver; hosts rotate often,
// so the list is configuration first and defaults second.
var defaultResolverMirrors = []string{
	"https://sci-hub.se",
	"https://sci-hub.st",
	"https://sci-hub.ru",
}

// Resolver is a DOI-keyed full-text resolver scraped from a single-page
// HTML response: the embedded PDF URL is pulled from an embed/iframe
// element. It carries no metadata of its own, only a file location.
type Resolver struct {
	cfg     types.AdapterConfig
	client  *client
	mirrors []string
}

// NewResolver builds the mirror-based resolver adapter.
func NewResolver(hc *http.Client, cfg types.AdapterConfig, userAgent string) *Resolver {
	mirrors := cfg.Mirrors
	if len(mirrors) == 0 {
		mirrors = defaultResolverMirrors
	}
	return &Resolver{cfg: cfg, client: newClient(hc, cfg, userAgent), mirrors: mirrors}
}

// Name returns the adapter identifier.
func (a *Resolver) Name() string { return "resolver" }

// Search is DOI-keyed only.
func (a *Resolver) Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error) {
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

// LookupIdentifier fetches the resolver page for a DOI on each mirror in
// turn and extracts the embedded PDF URL. A blocked mirror advances to the
// next; only when every mirror is blocked or failing does the error
// surface.
func (a *Resolver) LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error) {
	doi := bib.NormalizeDOI(id)
	if doi == "" {
		return nil, types.ErrNotFound
	}

	var lastErr error
	for _, mirror := range a.mirrors {
		body, err := a.client.getHTML(ctx, mirror+"/"+doi)
		if err != nil {
			lastErr = err
			continue
		}

		pdfURL, err := extractEmbeddedPDF(body, mirror)
		if err != nil {
			lastErr = err
			continue
		}
		if pdfURL == "" {
			return nil, types.ErrNotFound
		}

		return &types.SearchResult{
			DOI:        doi,
			URL:        mirror + "/" + doi,
			PDFURL:     pdfURL,
			Confidence: 1.0,
			Source:     a.Name(),
		}, nil
	}
	if lastErr == nil {
		return nil, types.ErrNotFound
	}
	return nil, fmt.Errorf("all resolver mirrors failed: %w", lastErr)
}

// extractEmbeddedPDF pulls the PDF location out of the page's embed or
// iframe element and normalizes scheme-relative and path-relative forms.
func extractEmbeddedPDF(body []byte, mirror string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing resolver page: %w", err)
	}

	var src string
	for _, sel := range []string{"embed#pdf", "iframe#pdf", "embed[type='application/pdf']", "iframe"} {
		if v, ok := doc.Find(sel).First().Attr("src"); ok && v != "" {
			src = v
			break
		}
	}
	if src == "" {
		return "", nil
	}

	src = strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(src, "//"):
		return "https:" + src, nil
	case strings.HasPrefix(src, "/"):
		base, err := url.Parse(mirror)
		if err != nil {
			return "", err
		}
		return base.Scheme + "://" + base.Host + src, nil
	default:
		return src, nil
	}
}

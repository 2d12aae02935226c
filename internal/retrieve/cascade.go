// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve locates, downloads, and validates full-text files for
// bibliographic records, trying an ordered cascade of providers with
// per-source mirror failover.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/internal/httputil"
	"github.com/pdiddy/reference-engine/internal/sources"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// maxDownloadBytes caps a single file download.
const maxDownloadBytes = 128 << 20

// Download is a validated file with its provenance.
type Download struct {
	Data       []byte
	SourceName string
	URL        string
}

// Strategy yields download candidates for one provider. Returning no
// candidates and no error means the provider has nothing for this record.
type Strategy interface {
	Name() string
	Candidates(ctx context.Context, rec types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error)
}

// Cascade tries strategies in order until a candidate survives validation.
type Cascade struct {
	registry  *sources.Registry
	client    *http.Client
	cfg       types.RetrieveConfig
	validator Validator
}

// NewCascade builds the retrieval cascade.
func NewCascade(hc *http.Client, registry *sources.Registry, cfg types.RetrieveConfig) *Cascade {
	return &Cascade{
		registry:  registry,
		client:    hc,
		cfg:       cfg,
		validator: NewValidator(cfg),
	}
}

// strategies returns the provider order for a record kind. Papers lead
// with open-access lookups; books lead with archive metadata.
func (c *Cascade) strategies(kind types.RecordKind) []Strategy {
	r := c.registry
	if kind == types.KindBook {
		return []Strategy{
			archiveStrategy{r.InternetArchive},
			openLibraryStrategy{r.OpenLibrary},
			repoSearchStrategy{r.Libgen},
			booksLinkStrategy{r.GoogleBooks},
			resolverStrategy{r.Resolver},
		}
	}
	return []Strategy{
		openAccessStrategy{r.Unpaywall},
		arxivStrategy{r.Arxiv},
		fullTextStrategy{r.SemanticScholar},
		repoSearchStrategy{r.Libgen},
		resolverStrategy{r.Resolver},
	}
}

// Fetch walks the cascade for rec and returns the first download that
// validates. Every source and mirror exhausted maps to types.ErrNotFound;
// the caller records that outcome, it is not exceptional.
func (c *Cascade) Fetch(ctx context.Context, rec types.Record, w io.Writer) (*Download, error) {
	q, err := bib.BuildQuery(rec)
	if err != nil {
		return nil, err
	}

	for _, s := range c.strategies(rec.Kind()) {
		candidates, err := s.Candidates(ctx, rec, q)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(w, "warning: %s lookup failed: %v\n", s.Name(), err)
			}
			continue
		}

		for _, cand := range candidates {
			data, url, err := c.tryCandidate(ctx, cand, w)
			if err != nil {
				fmt.Fprintf(w, "warning: %s: %v\n", s.Name(), err)
				continue
			}
			fmt.Fprintf(w, "retrieved %d bytes from %s\n", len(data), s.Name())
			return &Download{Data: data, SourceName: cand.SourceName, URL: url}, nil
		}
	}
	return nil, types.ErrNotFound
}

// tryCandidate downloads the candidate's URL, advancing through its
// mirrors on transport failure, blocked interstitials, or invalid bytes.
func (c *Cascade) tryCandidate(ctx context.Context, cand types.DownloadCandidate, w io.Writer) ([]byte, string, error) {
	urls := append([]string{cand.URL}, cand.Mirrors...)
	var lastErr error
	for _, u := range urls {
		data, err := c.download(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		if err := c.validator.ValidatePDF(data, w); err != nil {
			lastErr = fmt.Errorf("%s: %w", u, err)
			continue
		}
		return data, u, nil
	}
	return nil, "", fmt.Errorf("all mirrors exhausted: %w", lastErr)
}

func (c *Cascade) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("reading download: %w", err)
	}
	if httputil.IsBlockedPage(data) {
		return nil, types.ErrBlocked
	}
	return data, nil
}

// openAccessStrategy asks the open-access index for a DOI's best PDF.
type openAccessStrategy struct{ adapter *sources.Unpaywall }

func (s openAccessStrategy) Name() string { return s.adapter.Name() }

func (s openAccessStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	if q.DOI == "" {
		return nil, nil
	}
	r, err := s.adapter.LookupIdentifier(ctx, q.DOI)
	if err != nil {
		return nil, err
	}
	return candidateFromResult(r, s.Name()), nil
}

// arxivStrategy resolves an arXiv id, or falls back to a title search.
type arxivStrategy struct{ adapter *sources.Arxiv }

func (s arxivStrategy) Name() string { return s.adapter.Name() }

func (s arxivStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	if q.ArxivID != "" {
		r, err := s.adapter.LookupIdentifier(ctx, q.ArxivID)
		if err != nil {
			return nil, err
		}
		return arxivCandidates(r), nil
	}
	if q.Title == "" {
		return nil, nil
	}
	results, err := s.adapter.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []types.DownloadCandidate
	for i := range results {
		out = append(out, arxivCandidates(&results[i])...)
	}
	return out, nil
}

// arxivCandidates adds the export host as a mirror for arxiv.org links.
func arxivCandidates(r *types.SearchResult) []types.DownloadCandidate {
	if r == nil || r.PDFURL == "" {
		return nil
	}
	cand := types.DownloadCandidate{URL: r.PDFURL, SourceName: r.Source}
	if strings.Contains(r.PDFURL, "://arxiv.org/") {
		cand.Mirrors = []string{strings.Replace(r.PDFURL, "://arxiv.org/", "://export.arxiv.org/", 1)}
	}
	return []types.DownloadCandidate{cand}
}

// fullTextStrategy asks the graph-search provider for its open-access PDF.
type fullTextStrategy struct{ adapter *sources.SemanticScholar }

func (s fullTextStrategy) Name() string { return s.adapter.Name() }

func (s fullTextStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	if q.DOI == "" {
		return nil, nil
	}
	r, err := s.adapter.LookupIdentifier(ctx, q.DOI)
	if err != nil {
		return nil, err
	}
	return candidateFromResult(r, s.Name()), nil
}

// repoSearchStrategy searches the mirror-backed repository by identifier
// first, then by title and author.
type repoSearchStrategy struct{ adapter *sources.Libgen }

func (s repoSearchStrategy) Name() string { return s.adapter.Name() }

func (s repoSearchStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	results, err := s.adapter.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []types.DownloadCandidate
	for _, r := range results {
		if r.PDFURL != "" {
			out = append(out, types.DownloadCandidate{URL: r.PDFURL, SourceName: r.Source})
		}
	}
	return out, nil
}

// archiveStrategy locates a PDF in the full-text archive's file manifest.
type archiveStrategy struct{ adapter *sources.InternetArchive }

func (s archiveStrategy) Name() string { return s.adapter.Name() }

func (s archiveStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	results, err := s.adapter.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []types.DownloadCandidate
	for _, r := range results {
		if r.PDFURL != "" {
			out = append(out, types.DownloadCandidate{URL: r.PDFURL, SourceName: r.Source})
		}
	}
	return out, nil
}

// openLibraryStrategy looks a book up by ISBN.
type openLibraryStrategy struct{ adapter *sources.OpenLibrary }

func (s openLibraryStrategy) Name() string { return s.adapter.Name() }

func (s openLibraryStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	if q.ISBN == "" {
		return nil, nil
	}
	r, err := s.adapter.LookupIdentifier(ctx, q.ISBN)
	if err != nil {
		return nil, err
	}
	return candidateFromResult(r, s.Name()), nil
}

// booksLinkStrategy uses the books provider's direct download link when
// one is exposed.
type booksLinkStrategy struct{ adapter *sources.GoogleBooks }

func (s booksLinkStrategy) Name() string { return s.adapter.Name() }

func (s booksLinkStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	results, err := s.adapter.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []types.DownloadCandidate
	for _, r := range results {
		if r.PDFURL != "" {
			out = append(out, types.DownloadCandidate{URL: r.PDFURL, SourceName: r.Source})
		}
	}
	return out, nil
}

// resolverStrategy is DOI-keyed; the adapter handles its own mirror list.
type resolverStrategy struct{ adapter *sources.Resolver }

func (s resolverStrategy) Name() string { return s.adapter.Name() }

func (s resolverStrategy) Candidates(ctx context.Context, _ types.Record, q types.SearchQuery) ([]types.DownloadCandidate, error) {
	if q.DOI == "" {
		return nil, nil
	}
	r, err := s.adapter.LookupIdentifier(ctx, q.DOI)
	if err != nil {
		return nil, err
	}
	return candidateFromResult(r, s.Name()), nil
}

func candidateFromResult(r *types.SearchResult, sourceName string) []types.DownloadCandidate {
	if r == nil || r.PDFURL == "" {
		return nil
	}
	return []types.DownloadCandidate{{URL: r.PDFURL, SourceName: sourceName}}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preprint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reference-engine/internal/refstore"
	"github.com/pdiddy/reference-engine/internal/retrieve"
	"github.com/pdiddy/reference-engine/internal/sources"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// testManager wires every provider at the given server, one path prefix
// per provider, with 404 for everything unhandled.
func testManager(t *testing.T, ts *httptest.Server) (*Manager, *refstore.Store) {
	t.Helper()

	store, err := refstore.NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	configs := sources.DefaultConfigs()
	for name, cfg := range configs {
		cfg.BaseURL = ts.URL + "/" + name
		cfg.Mirrors = []string{ts.URL + "/" + name}
		cfg.Rate = types.RateLimit{RequestCount: 1000, Window: time.Second}
		configs[name] = cfg
	}
	registry := sources.NewRegistry(ts.Client(), configs, "reference-engine/test", nil)
	cascade := retrieve.NewCascade(ts.Client(), registry, types.RetrieveConfig{MinFileSize: 64})

	return NewManager(store, registry, cascade, types.ResolveConfig{}, types.RetrieveConfig{MinFileSize: 64}), store
}

func arxivRecord(t *testing.T, store *refstore.Store) types.Record {
	t.Helper()
	rec := types.Record{
		Type:       types.TypePreprint,
		Title:      "Attention Is All You Need",
		Creators:   []types.Creator{{FirstName: "Ashish", LastName: "Vaswani", Role: "author"}},
		Venue:      "arXiv",
		Repository: "arXiv",
		URL:        "https://arxiv.org/abs/1706.03762",
	}
	require.NoError(t, store.AddRecord(context.Background(), &rec))
	return rec
}

func TestProcessRejectsNonPreprint(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	m, store := testManager(t, ts)

	rec := types.Record{Type: types.TypeJournalArticle, Title: "A Journal Paper", DOI: "10.1000/xyz"}
	require.NoError(t, store.AddRecord(context.Background(), &rec))

	_, err := m.Process(context.Background(), rec, io.Discard)
	assert.True(t, errors.Is(err, ErrNotPreprint))
}

func TestConvertWhenNoPublishedVersionExists(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	m, store := testManager(t, ts)
	ctx := context.Background()
	rec := arxivRecord(t, store)

	out, err := m.Process(ctx, rec, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, StateConvertedPreprint, out.State)

	got, err := store.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TypePreprint, got.Type)
	assert.Empty(t, got.Venue)
	assert.True(t, got.HasTag(types.TagNoPublishedVersion))
}

func TestPromoteWhenPublishedDOIFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/crossref", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"message": {"items": [{
			"title": ["Attention Is All You Need"],
			"author": [{"given": "Ashish", "family": "Vaswani"}],
			"DOI": "10.5555/3295222",
			"type": "proceedings-article",
			"container-title": ["Advances in Neural Information Processing Systems"],
			"issued": {"date-parts": [[2017]]}
		}]}}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	m, store := testManager(t, ts)
	ctx := context.Background()
	rec := arxivRecord(t, store)

	_, err := store.ImportFile(ctx, rec.ID, "old.pdf", "Full Text PDF", "arxiv", []byte("%PDF-1.4 old preprint file %%EOF"))
	require.NoError(t, err)

	out, err := m.Process(ctx, rec, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, StatePublishedKnown, out.State)
	assert.Equal(t, "10.5555/3295222", out.DOI)

	got, err := store.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TypeConferencePaper, got.Type)
	assert.Equal(t, "10.5555/3295222", got.DOI)
	assert.Equal(t, "Advances in Neural Information Processing Systems", got.Venue)
	assert.Empty(t, got.Repository)

	// The carried-over preprint file keeps its audit trail.
	attachments, err := store.Attachments(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "Full Text PDF (preprint)", attachments[0].Title)

	// Every download source 404s, so the pass records the missing PDF.
	assert.False(t, out.Downloaded)
	assert.True(t, got.HasTag(types.TagNoPublishedPDFFound))
}

func TestVenueOnlyMatchKeepsTypeAndSetsVenue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/crossref", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"message": {"items": [{
			"title": ["Attention Is All You Need"],
			"author": [{"given": "Ashish", "family": "Vaswani"}],
			"container-title": ["NeurIPS 2017"],
			"issued": {"date-parts": [[2017]]}
		}]}}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	m, store := testManager(t, ts)
	ctx := context.Background()
	rec := arxivRecord(t, store)

	out, err := m.Process(ctx, rec, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, StatePublishedKnown, out.State)
	assert.Equal(t, "NeurIPS 2017", out.Venue)
	assert.Empty(t, out.DOI)

	got, err := store.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TypePreprint, got.Type, "type only changes when a DOI is found")
	assert.Equal(t, "NeurIPS 2017", got.Venue)
}

func TestPreprintVenueResultsAreExcluded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/crossref", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"message": {"items": [{
			"title": ["Attention Is All You Need"],
			"DOI": "10.48550/arXiv.1706.03762",
			"container-title": ["arXiv preprint"]
		}]}}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	m, store := testManager(t, ts)
	rec := arxivRecord(t, store)

	out, err := m.Process(context.Background(), rec, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, StateConvertedPreprint, out.State, "a preprint-venue hit is not a published version")
}

func TestDissimilarTitleIsRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/crossref", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"message": {"items": [{
			"title": ["A Completely Different Survey About Databases"],
			"DOI": "10.5555/999",
			"container-title": ["VLDB"]
		}]}}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	m, store := testManager(t, ts)
	rec := arxivRecord(t, store)

	out, err := m.Process(context.Background(), rec, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, StateConvertedPreprint, out.State)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/reference-engine/pkg/types"
)

func testAdapterConfig(baseURL string) types.AdapterConfig {
	return types.AdapterConfig{
		BaseURL: baseURL,
		Rate:    types.RateLimit{RequestCount: 1000, Window: time.Second},
		Cache:   types.CacheConfig{TTL: time.Minute, MaxEntries: 16},
		Scoring: types.ScoringConfig{BaseConfidence: 0.8, MaxConfidence: 0.95, TitleWeight: 0.3, AuthorWeight: 0.25},
		Enabled: true,
	}
}

const crossrefSearchBody = `{
	"message": {
		"items": [{
			"title": ["Attention Is All You Need"],
			"author": [{"given": "Ashish", "family": "Vaswani"}],
			"DOI": "10.5555/3295222",
			"URL": "https://doi.org/10.5555/3295222",
			"type": "proceedings-article",
			"container-title": ["NIPS"],
			"issued": {"date-parts": [[2017, 12]]}
		}]
	}
}`

func TestCrossrefSearchScoresResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query.bibliographic"); got == "" {
			t.Errorf("missing query.bibliographic param")
		}
		fmt.Fprint(w, crossrefSearchBody)
	}))
	defer ts.Close()

	a := NewCrossref(ts.Client(), testAdapterConfig(ts.URL), "reference-engine/test")
	q := types.SearchQuery{Title: "Attention Is All You Need", Authors: []string{"Vaswani"}, Year: 2017}

	results, err := a.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Confidence < 0.95 {
		t.Errorf("confidence = %v, want >= 0.95 for identical title and author", r.Confidence)
	}
	if r.DOI != "10.5555/3295222" {
		t.Errorf("DOI = %q", r.DOI)
	}
	if r.Source != "crossref" {
		t.Errorf("Source = %q", r.Source)
	}
	if r.Venue != "NIPS" || r.Year != 2017 {
		t.Errorf("venue/year = %q/%d", r.Venue, r.Year)
	}
}

func TestCrossrefLookupNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	a := NewCrossref(ts.Client(), testAdapterConfig(ts.URL), "reference-engine/test")
	_, err := a.LookupIdentifier(context.Background(), "10.1000/missing")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCrossrefLookupExactMatchConfidence(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"message": {"title": ["Some Work"], "DOI": "10.1000/XYZ"}}`)
	}))
	defer ts.Close()

	a := NewCrossref(ts.Client(), testAdapterConfig(ts.URL), "reference-engine/test")
	r, err := a.LookupIdentifier(context.Background(), "https://doi.org/10.1000/xyz")
	if err != nil {
		t.Fatalf("LookupIdentifier: %v", err)
	}
	if r.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for identifier lookup", r.Confidence)
	}
	if r.DOI != "10.1000/xyz" {
		t.Errorf("DOI = %q, want normalized form", r.DOI)
	}
}

func TestCrossrefCachesRepeatedRequests(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, crossrefSearchBody)
	}))
	defer ts.Close()

	a := NewCrossref(ts.Client(), testAdapterConfig(ts.URL), "reference-engine/test")
	q := types.SearchQuery{Title: "Attention Is All You Need"}

	for i := 0; i < 3; i++ {
		if _, err := a.Search(context.Background(), q); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1 (cached)", got)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/reference-engine/pkg/types"
)

const pmcSummaryBody = `{
	"result": {
		"uids": ["7654321"],
		"7654321": {
			"uid": "7654321",
			"title": "Deep Mutational Scanning of Viral Proteins",
			"pubdate": "2023 Mar 14",
			"authors": [{"name": "Bloom JD"}, {"name": "Matsen FA"}],
			"articleids": [
				{"idtype": "doi", "value": "10.1093/ve/vead012"},
				{"idtype": "pmcid", "value": "PMC7654321"}
			],
			"fulljournalname": "Virus Evolution"
		}
	}
}`

func TestPubmedCentralTwoStepSearch(t *testing.T) {
	var esearchHits, esummaryHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		esearchHits++
		if got := r.URL.Query().Get("db"); got != "pmc" {
			t.Errorf("esearch db = %q, want pmc", got)
		}
		if got := r.URL.Query().Get("retmode"); got != "json" {
			t.Errorf("esearch retmode = %q, want json", got)
		}
		fmt.Fprint(w, `{"esearchresult": {"idlist": ["7654321"]}}`)
	})
	mux.HandleFunc("/esummary.fcgi", func(w http.ResponseWriter, r *http.Request) {
		esummaryHits++
		if got := r.URL.Query().Get("id"); got != "7654321" {
			t.Errorf("esummary id = %q, want 7654321", got)
		}
		fmt.Fprint(w, pmcSummaryBody)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	a := NewPubmedCentral(ts.Client(), testAdapterConfig(ts.URL), "reference-engine/test")
	q := types.SearchQuery{Title: "Deep Mutational Scanning of Viral Proteins", Authors: []string{"Bloom"}, Year: 2023}

	results, err := a.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if esearchHits != 1 || esummaryHits != 1 {
		t.Errorf("esearch hits = %d, esummary hits = %d, want 1 each", esearchHits, esummaryHits)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	r := results[0]
	if r.DOI != "10.1093/ve/vead012" {
		t.Errorf("DOI = %q", r.DOI)
	}
	if r.Year != 2023 {
		t.Errorf("Year = %d, want 2023", r.Year)
	}
	if !strings.Contains(r.PDFURL, "PMC7654321") || !strings.HasSuffix(r.PDFURL, "/pdf/") {
		t.Errorf("PDFURL = %q, want PMCID-keyed pdf path", r.PDFURL)
	}
	if r.Venue != "Virus Evolution" {
		t.Errorf("Venue = %q", r.Venue)
	}
	if r.Confidence < 0.9 {
		t.Errorf("Confidence = %v, want strong match", r.Confidence)
	}
}

func TestPubmedCentralLookupStripsPMCPrefix(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "esummary.fcgi") {
			t.Errorf("lookup should go straight to esummary, got %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "7654321" {
			t.Errorf("id = %q, want bare numeric id", got)
		}
		fmt.Fprint(w, pmcSummaryBody)
	}))
	defer ts.Close()

	a := NewPubmedCentral(ts.Client(), testAdapterConfig(ts.URL), "reference-engine/test")
	r, err := a.LookupIdentifier(context.Background(), "PMC7654321")
	if err != nil {
		t.Fatalf("LookupIdentifier: %v", err)
	}
	if r.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", r.Confidence)
	}
	if len(r.Authors) != 2 {
		t.Errorf("Authors = %v, want 2 entries", r.Authors)
	}
}

func TestPubmedCentralEmptySearchResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"idlist": []}}`)
	}))
	defer ts.Close()

	a := NewPubmedCentral(ts.Client(), testAdapterConfig(ts.URL), "reference-engine/test")
	results, err := a.Search(context.Background(), types.SearchQuery{Title: "nothing matches this"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

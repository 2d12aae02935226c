// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/reference-engine/pkg/types"
)

const libgenTableBody = `<html><body><table class="c">
<tr><td>ID</td><td>Authors</td><td>Title</td><td>Publisher</td><td>Year</td><td>Pages</td><td>Lang</td><td>Size</td><td>Ext</td><td>Mirror</td></tr>
<tr>
  <td>1234</td>
  <td>Donald E. Knuth</td>
  <td><a href="book/index.php?md5=0123456789abcdef0123456789abcdef">The Art of Computer Programming</a></td>
  <td>Addison-Wesley</td>
  <td>1997</td><td>650</td><td>en</td><td>5 MB</td><td>pdf</td>
  <td><a href="http://mirror/get?md5=0123456789ABCDEF0123456789ABCDEF">[1]</a></td>
</tr>
<tr>
  <td>5678</td>
  <td>Nobody</td>
  <td><a href="book/index.php?id=5678">Row Without Hash</a></td>
  <td>None</td>
  <td>2001</td><td>1</td><td>en</td><td>1 KB</td><td>pdf</td>
  <td></td>
</tr>
</table></body></html>`

func libgenConfig(mirrors ...string) types.AdapterConfig {
	cfg := testAdapterConfig("")
	cfg.Mirrors = mirrors
	cfg.Scoring = types.ScoringConfig{BaseConfidence: 0.6, MaxConfidence: 0.9, TitleWeight: 0.4, AuthorWeight: 0.2}
	return cfg
}

func TestLibgenSearchRequiresContentHash(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, libgenTableBody)
	}))
	defer ts.Close()

	a := NewLibgen(ts.Client(), libgenConfig(ts.URL), "reference-engine/test")
	q := types.SearchQuery{Title: "The Art of Computer Programming", Authors: []string{"Knuth"}}

	results, err := a.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (row without hash discarded)", len(results))
	}
	r := results[0]
	if r.Title != "The Art of Computer Programming" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Year != 1997 {
		t.Errorf("Year = %d", r.Year)
	}
	if r.PDFURL == "" {
		t.Errorf("PDFURL empty, want hash-keyed download link")
	}
}

func TestLibgenSearchByDOIHitsArticleIndex(t *testing.T) {
	var columns []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		columns = append(columns, r.URL.Query().Get("column"))
		fmt.Fprint(w, libgenTableBody)
	}))
	defer ts.Close()

	a := NewLibgen(ts.Client(), libgenConfig(ts.URL), "reference-engine/test")
	results, err := a.Search(context.Background(), types.SearchQuery{DOI: "10.1000/xyz"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if len(columns) != 1 || columns[0] != "doi" {
		t.Errorf("columns queried = %v, want [doi]", columns)
	}
}

func TestLibgenSearchFallsBackToTitleWhenDOIColumnEmpty(t *testing.T) {
	var columns []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		col := r.URL.Query().Get("column")
		columns = append(columns, col)
		if col == "doi" {
			fmt.Fprint(w, `<html><body><table class="c"><tr><td>ID</td></tr></table></body></html>`)
			return
		}
		fmt.Fprint(w, libgenTableBody)
	}))
	defer ts.Close()

	a := NewLibgen(ts.Client(), libgenConfig(ts.URL), "reference-engine/test")
	q := types.SearchQuery{DOI: "10.1000/absent", Title: "The Art of Computer Programming"}
	results, err := a.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results from title fallback, want 1", len(results))
	}
	if len(columns) != 2 || columns[0] != "doi" || columns[1] != "def" {
		t.Errorf("columns queried = %v, want [doi def]", columns)
	}
}

func TestLibgenBlockedMirrorAdvancesToNext(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><title>DDoS-Guard</title><body>checking your browser</body></html>`)
	}))
	defer blocked.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, libgenTableBody)
	}))
	defer good.Close()

	a := NewLibgen(good.Client(), libgenConfig(blocked.URL, good.URL), "reference-engine/test")
	results, err := a.Search(context.Background(), types.SearchQuery{Title: "Art of Computer Programming"})
	if err != nil {
		t.Fatalf("Search should fail over to second mirror, got: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results from failover mirror, want 1", len(results))
	}
}

func TestLibgenAllMirrorsBlockedSurfacesErrBlocked(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>Checking your browser before accessing</body></html>`)
	}))
	defer blocked.Close()

	a := NewLibgen(blocked.Client(), libgenConfig(blocked.URL, blocked.URL), "reference-engine/test")
	_, err := a.Search(context.Background(), types.SearchQuery{Title: "anything"})
	if !errors.Is(err, types.ErrBlocked) {
		t.Errorf("err = %v, want wrapped ErrBlocked", err)
	}
}

func TestLibgenLookupByHash(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("column"); got != "md5" {
			t.Errorf("column = %q, want md5", got)
		}
		fmt.Fprint(w, libgenTableBody)
	}))
	defer ts.Close()

	a := NewLibgen(ts.Client(), libgenConfig(ts.URL), "reference-engine/test")
	r, err := a.LookupIdentifier(context.Background(), "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("LookupIdentifier: %v", err)
	}
	if r.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for hash lookup", r.Confidence)
	}
}

func TestLibgenLookupRejectsNonHash(t *testing.T) {
	a := NewLibgen(http.DefaultClient, libgenConfig("http://unused"), "reference-engine/test")
	_, err := a.LookupIdentifier(context.Background(), "not-a-hash")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

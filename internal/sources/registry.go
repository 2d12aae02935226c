// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"net/http"
	"time"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// DefaultConfigs returns the per-provider budgets and scoring parameters.
// Rate budgets follow each provider's published limits (CrossRef tolerates
// burst traffic, eutils caps at 3 req/s without a key); confidence
// ceilings deliberately differ between providers and stay configurable.
func DefaultConfigs() map[string]types.AdapterConfig {
	cache := types.CacheConfig{TTL: 10 * time.Minute, MaxEntries: 256}
	return map[string]types.AdapterConfig{
		"crossref": {
			Name:    "crossref",
			Rate:    types.RateLimit{RequestCount: 50, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.8, MaxConfidence: 0.95, TitleWeight: 0.3, AuthorWeight: 0.25},
			Enabled: true,
		},
		"openalex": {
			Name:    "openalex",
			Rate:    types.RateLimit{RequestCount: 10, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.75, MaxConfidence: 0.95, TitleWeight: 0.3, AuthorWeight: 0.25},
			Enabled: true,
		},
		"semanticscholar": {
			Name:    "semanticscholar",
			Rate:    types.RateLimit{RequestCount: 1, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.7, MaxConfidence: 0.9, TitleWeight: 0.35, AuthorWeight: 0.25},
			Enabled: true,
		},
		"arxiv": {
			Name:    "arxiv",
			Rate:    types.RateLimit{RequestCount: 1, Window: 3 * time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.65, MaxConfidence: 0.9, TitleWeight: 0.4, AuthorWeight: 0.2},
			Enabled: true,
		},
		"pubmedcentral": {
			Name:    "pubmedcentral",
			Rate:    types.RateLimit{RequestCount: 3, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.7, MaxConfidence: 0.9, TitleWeight: 0.3, AuthorWeight: 0.25},
			Enabled: true,
		},
		"unpaywall": {
			Name:    "unpaywall",
			Rate:    types.RateLimit{RequestCount: 10, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.85, MaxConfidence: 0.95},
			Enabled: true,
		},
		"libgen": {
			Name:    "libgen",
			Rate:    types.RateLimit{RequestCount: 1, Window: 2 * time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.6, MaxConfidence: 0.9, TitleWeight: 0.4, AuthorWeight: 0.2},
			Enabled: true,
		},
		"resolver": {
			Name:    "resolver",
			Rate:    types.RateLimit{RequestCount: 1, Window: 3 * time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.85, MaxConfidence: 0.95},
			Enabled: true,
		},
		"internetarchive": {
			Name:    "internetarchive",
			Rate:    types.RateLimit{RequestCount: 5, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.6, MaxConfidence: 0.9, TitleWeight: 0.35, AuthorWeight: 0.2},
			Enabled: true,
		},
		"openlibrary": {
			Name:    "openlibrary",
			Rate:    types.RateLimit{RequestCount: 5, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.7, MaxConfidence: 0.9, TitleWeight: 0.3, AuthorWeight: 0.25},
			Enabled: true,
		},
		"googlebooks": {
			Name:    "googlebooks",
			Rate:    types.RateLimit{RequestCount: 5, Window: time.Second},
			Cache:   cache,
			Scoring: types.ScoringConfig{BaseConfidence: 0.7, MaxConfidence: 0.9, TitleWeight: 0.3, AuthorWeight: 0.25},
			Enabled: true,
		},
	}
}

// Registry holds constructed adapters in explicit declaration order, one
// ordering per use case. It replaces call-site switching on provider names.
type Registry struct {
	Crossref        *Crossref
	OpenAlex        *OpenAlex
	SemanticScholar *SemanticScholar
	Arxiv           *Arxiv
	PubmedCentral   *PubmedCentral
	Unpaywall       *Unpaywall
	Libgen          *Libgen
	Resolver        *Resolver
	InternetArchive *InternetArchive
	OpenLibrary     *OpenLibrary
	GoogleBooks     *GoogleBooks

	configs map[string]types.AdapterConfig
}

// NewRegistry constructs every enabled adapter. Secrets keys follow the
// .secrets/ file names: semantic-scholar-api-key, google-books-api-key,
// unpaywall-email, openalex-email.
func NewRegistry(hc *http.Client, configs map[string]types.AdapterConfig, userAgent string, secrets map[string]string) *Registry {
	if configs == nil {
		configs = DefaultConfigs()
	}
	return &Registry{
		Crossref:        NewCrossref(hc, configs["crossref"], userAgent),
		OpenAlex:        NewOpenAlex(hc, configs["openalex"], userAgent, secrets["openalex-email"]),
		SemanticScholar: NewSemanticScholar(hc, configs["semanticscholar"], userAgent, secrets["semantic-scholar-api-key"]),
		Arxiv:           NewArxiv(hc, configs["arxiv"], userAgent),
		PubmedCentral:   NewPubmedCentral(hc, configs["pubmedcentral"], userAgent),
		Unpaywall:       NewUnpaywall(hc, configs["unpaywall"], userAgent, secrets["unpaywall-email"]),
		Libgen:          NewLibgen(hc, configs["libgen"], userAgent),
		Resolver:        NewResolver(hc, configs["resolver"], userAgent),
		InternetArchive: NewInternetArchive(hc, configs["internetarchive"], userAgent),
		OpenLibrary:     NewOpenLibrary(hc, configs["openlibrary"], userAgent),
		GoogleBooks:     NewGoogleBooks(hc, configs["googlebooks"], userAgent, secrets["google-books-api-key"]),
		configs:         configs,
	}
}

// Metadata returns the adapters used for identifier resolution, in
// priority order for the fallback strategy.
func (r *Registry) Metadata() []Adapter {
	var out []Adapter
	for _, a := range []struct {
		name    string
		adapter Adapter
	}{
		{"crossref", r.Crossref},
		{"openalex", r.OpenAlex},
		{"semanticscholar", r.SemanticScholar},
		{"arxiv", r.Arxiv},
		{"pubmedcentral", r.PubmedCentral},
	} {
		if r.enabled(a.name) {
			out = append(out, a.adapter)
		}
	}
	return out
}

// BookMetadata returns the adapters used for book (ISBN) resolution.
func (r *Registry) BookMetadata() []Adapter {
	var out []Adapter
	for _, a := range []struct {
		name    string
		adapter Adapter
	}{
		{"openlibrary", r.OpenLibrary},
		{"googlebooks", r.GoogleBooks},
		{"internetarchive", r.InternetArchive},
	} {
		if r.enabled(a.name) {
			out = append(out, a.adapter)
		}
	}
	return out
}

func (r *Registry) enabled(name string) bool {
	cfg, ok := r.configs[name]
	return ok && cfg.Enabled
}

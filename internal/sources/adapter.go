// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements one adapter per external provider, each with
// its own rate limit, response cache, and response-format parser. Adapters
// expose a uniform search and identifier-lookup capability so the
// aggregation and retrieval layers never branch on provider names.
package sources

import (
	"context"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// Adapter is the uniform capability implemented by every provider.
//
// Search returns zero or more scored candidates. "No results" is an empty
// slice with a nil error; errors are reserved for transport and parsing
// failures, which callers treat as empty contributions.
//
// LookupIdentifier performs a direct lookup (DOI, PMID, arXiv ID, MD5)
// bypassing fuzzy search. A 404-class response is types.ErrNotFound, a
// normal outcome.
type Adapter interface {
	Name() string
	Search(ctx context.Context, q types.SearchQuery) ([]types.SearchResult, error)
	LookupIdentifier(ctx context.Context, id string) (*types.SearchResult, error)
}

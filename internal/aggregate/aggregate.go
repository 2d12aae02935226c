// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate combines search results from multiple source adapters
// under a selectable dispatch strategy and picks the best candidate.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdiddy/reference-engine/internal/sources"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// Strategy selects how adapters are dispatched for one aggregation call.
type Strategy string

const (
	// StrategyParallel queries every adapter concurrently and keeps all
	// non-empty result sets. Coverage over latency.
	StrategyParallel Strategy = "parallel"

	// StrategyFallback queries adapters sequentially in declaration order
	// and stops at the first non-empty result set.
	StrategyFallback Strategy = "fallback"

	// StrategyBestResult runs the parallel strategy, then keeps only the
	// result set whose best candidate scores highest. Avoids diluting a
	// strong match with noise from weaker sources.
	StrategyBestResult Strategy = "best_result"
)

// Options tune one aggregation call.
type Options struct {
	Strategy Strategy

	// OpenAccessOnly prefers results that carry a PDF location. When no
	// result carries one, the highest-confidence result overall is still
	// returned rather than nothing.
	OpenAccessOnly bool
}

// Output holds the ranked results and per-adapter failure notes.
type Output struct {
	Results       []types.SearchResult
	AdapterErrors []string
}

// Best returns the top-ranked result, or nil when the call found nothing.
func (o Output) Best() *types.SearchResult {
	if len(o.Results) == 0 {
		return nil
	}
	return &o.Results[0]
}

// Search dispatches q to the adapters under opts.Strategy, flattens the
// kept result sets, and sorts by confidence descending with adapter
// declaration order breaking ties. A failing adapter is reported on w and
// contributes zero results; it never aborts the aggregation.
func Search(ctx context.Context, q types.SearchQuery, adapters []sources.Adapter, opts Options, w io.Writer) (Output, error) {
	if !q.Dispatchable() {
		return Output{}, types.ErrNoQuery
	}
	if len(adapters) == 0 {
		return Output{}, fmt.Errorf("no source adapters configured")
	}

	var sets [][]types.SearchResult
	var adapterErrors []string

	switch opts.Strategy {
	case StrategyFallback:
		sets, adapterErrors = searchFallback(ctx, q, adapters, w)
	case StrategyBestResult:
		sets, adapterErrors = searchParallel(ctx, q, adapters, w)
		sets = keepBestSet(sets)
	default:
		sets, adapterErrors = searchParallel(ctx, q, adapters, w)
	}

	results := flatten(sets)
	if opts.OpenAccessOnly {
		results = preferOpenAccess(results)
	}

	return Output{Results: results, AdapterErrors: adapterErrors}, nil
}

// Lookup resolves an identifier through the adapters in declaration
// order, returning the first hit. A "not found" from one adapter moves on
// to the next; transport failures are reported on w and likewise skipped.
// Every adapter exhausted maps to types.ErrNotFound.
func Lookup(ctx context.Context, id string, adapters []sources.Adapter, w io.Writer) (*types.SearchResult, error) {
	for _, a := range adapters {
		r, err := a.LookupIdentifier(ctx, id)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(w, "warning: source %s failed: %v\n", a.Name(), err)
			}
			continue
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, types.ErrNotFound
}

// searchParallel fans the query out to every adapter concurrently. Result
// sets are kept in adapter declaration order so ranking stays deterministic
// regardless of completion order.
func searchParallel(ctx context.Context, q types.SearchQuery, adapters []sources.Adapter, w io.Writer) ([][]types.SearchResult, []string) {
	sets := make([][]types.SearchResult, len(adapters))
	errs := make([]error, len(adapters))

	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a sources.Adapter) {
			defer wg.Done()
			sets[i], errs[i] = a.Search(ctx, q)
		}(i, a)
	}
	wg.Wait()

	var adapterErrors []string
	for i, err := range errs {
		if err != nil {
			adapterErrors = append(adapterErrors, fmt.Sprintf("%s: %v", adapters[i].Name(), err))
			fmt.Fprintf(w, "warning: source %s failed: %v\n", adapters[i].Name(), err)
			sets[i] = nil
		}
	}
	return sets, adapterErrors
}

// searchFallback tries adapters in order and stops at the first non-empty
// result set.
func searchFallback(ctx context.Context, q types.SearchQuery, adapters []sources.Adapter, w io.Writer) ([][]types.SearchResult, []string) {
	var adapterErrors []string
	for _, a := range adapters {
		results, err := a.Search(ctx, q)
		if err != nil {
			adapterErrors = append(adapterErrors, fmt.Sprintf("%s: %v", a.Name(), err))
			fmt.Fprintf(w, "warning: source %s failed: %v\n", a.Name(), err)
			continue
		}
		if len(results) > 0 {
			return [][]types.SearchResult{results}, adapterErrors
		}
	}
	return nil, adapterErrors
}

// keepBestSet drops every result set except the one whose best candidate
// has the highest confidence. Earlier adapters win ties.
func keepBestSet(sets [][]types.SearchResult) [][]types.SearchResult {
	bestIdx := -1
	bestConf := -1.0
	for i, set := range sets {
		for _, r := range set {
			if r.Confidence > bestConf {
				bestConf = r.Confidence
				bestIdx = i
			}
		}
	}
	if bestIdx < 0 {
		return nil
	}
	return [][]types.SearchResult{sets[bestIdx]}
}

// flatten concatenates the sets in declaration order and sorts stably by
// confidence descending, so equal-confidence results keep adapter order.
func flatten(sets [][]types.SearchResult) []types.SearchResult {
	var all []types.SearchResult
	for _, set := range sets {
		all = append(all, set...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})
	return all
}

// preferOpenAccess moves results carrying a PDF location to the front,
// keeping relative order within each group. When none carry a file the
// input is returned unchanged.
func preferOpenAccess(results []types.SearchResult) []types.SearchResult {
	var withFile, withoutFile []types.SearchResult
	for _, r := range results {
		if r.PDFURL != "" {
			withFile = append(withFile, r)
		} else {
			withoutFile = append(withoutFile, r)
		}
	}
	if len(withFile) == 0 {
		return results
	}
	return append(withFile, withoutFile...)
}

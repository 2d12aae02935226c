// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bib

import (
	"github.com/pdiddy/reference-engine/pkg/types"
)

// Default scoring parameters used when an adapter does not override them.
const (
	defaultBaseConfidence = 0.5
	defaultMaxConfidence  = 0.95
	defaultTitleWeight    = 0.3
	defaultAuthorWeight   = 0.25

	// yearWeight and pdfBonus are shared across providers.
	yearWeight = 0.1
	pdfBonus   = 0.1
)

// Score computes the match confidence between a query and one candidate
// result from a single source. The model is additive: a provider base
// reflecting source precision, plus weighted title similarity, author
// overlap, year proximity, and a small open-access bonus. The sum is capped
// at the provider ceiling. An exact DOI match overrides everything and
// scores exactly 1.0. The returned value is always in [0,1].
func Score(q types.SearchQuery, r types.SearchResult, cfg types.ScoringConfig) float64 {
	if SameDOI(q.DOI, r.DOI) {
		return 1.0
	}

	base := cfg.BaseConfidence
	if base == 0 {
		base = defaultBaseConfidence
	}
	titleWeight := cfg.TitleWeight
	if titleWeight == 0 {
		titleWeight = defaultTitleWeight
	}
	authorWeight := cfg.AuthorWeight
	if authorWeight == 0 {
		authorWeight = defaultAuthorWeight
	}
	ceiling := cfg.MaxConfidence
	if ceiling == 0 {
		ceiling = defaultMaxConfidence
	}

	score := base
	if q.Title != "" && r.Title != "" {
		score += titleWeight * TitleSimilarity(q.Title, r.Title)
	}
	if len(q.Authors) > 0 {
		score += authorWeight * AuthorOverlap(q.Authors, r.Authors)
	}
	score += yearWeight * YearBonus(q.Year, r.Year)
	if r.PDFURL != "" {
		score += pdfBonus
	}

	if score > ceiling {
		score = ceiling
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

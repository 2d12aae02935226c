// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bib

import (
	"testing"

	"github.com/pdiddy/reference-engine/pkg/types"
)

func TestTitleSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Attention Is All You Need", "Attention is all you need!"},
		{"Deep Residual Learning", "Residual Networks for Image Recognition"},
		{"alpha beta gamma", "delta epsilon"},
	}
	for _, p := range pairs {
		ab := TitleSimilarity(p[0], p[1])
		ba := TitleSimilarity(p[1], p[0])
		if ab != ba {
			t.Errorf("similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestTitleSimilarityIdentity(t *testing.T) {
	if got := TitleSimilarity("Attention Is All You Need", "Attention Is All You Need"); got != 1 {
		t.Errorf("similarity of identical titles = %v, want 1", got)
	}
	if got := TitleSimilarity("", "anything"); got != 0 {
		t.Errorf("similarity with empty title = %v, want 0", got)
	}
}

func TestAuthorOverlap(t *testing.T) {
	tests := []struct {
		name   string
		query  []string
		result []string
		want   float64
	}{
		{"exact last names", []string{"Ashish Vaswani"}, []string{"A. Vaswani"}, 1},
		{"half matched", []string{"Vaswani", "Nobody"}, []string{"Ashish Vaswani"}, 0.5},
		{"no overlap", []string{"Smith"}, []string{"Jones"}, 0},
		{"empty result side", []string{"Smith"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthorOverlap(tt.query, tt.result); got != tt.want {
				t.Errorf("AuthorOverlap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearBonus(t *testing.T) {
	tests := []struct {
		q, r int
		want float64
	}{
		{2017, 2017, 1},
		{2017, 2018, 0.5},
		{2017, 2015, 0.25},
		{2017, 2010, 0},
		{0, 2017, 0},
	}
	for _, tt := range tests {
		if got := YearBonus(tt.q, tt.r); got != tt.want {
			t.Errorf("YearBonus(%d, %d) = %v, want %v", tt.q, tt.r, got, tt.want)
		}
	}
}

func TestScoreExactDOIOverridesEverything(t *testing.T) {
	q := types.SearchQuery{Title: "Completely Different", DOI: "10.1000/xyz"}
	r := types.SearchResult{Title: "Unrelated Result", DOI: "https://doi.org/10.1000/XYZ"}
	got := Score(q, r, types.ScoringConfig{BaseConfidence: 0.5, MaxConfidence: 0.9})
	if got != 1.0 {
		t.Errorf("Score with exact DOI = %v, want exactly 1.0", got)
	}
}

func TestScoreStrongTitleAuthorMatch(t *testing.T) {
	q := types.SearchQuery{
		Title:   "Attention Is All You Need",
		Authors: []string{"Vaswani"},
		Year:    2017,
	}
	r := types.SearchResult{
		Title:   "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani"},
		Year:    2017,
		Source:  "crossref",
	}
	cfg := types.ScoringConfig{BaseConfidence: 0.8, MaxConfidence: 0.95, TitleWeight: 0.3, AuthorWeight: 0.25}
	got := Score(q, r, cfg)
	if got < 0.95 {
		t.Errorf("Score = %v, want >= 0.95 for identical title and author", got)
	}
}

func TestScoreRespectsProviderCeiling(t *testing.T) {
	q := types.SearchQuery{Title: "Attention Is All You Need", Authors: []string{"Vaswani"}, Year: 2017}
	r := types.SearchResult{Title: "Attention Is All You Need", Authors: []string{"Vaswani"}, Year: 2017, PDFURL: "https://x/pdf"}
	cfg := types.ScoringConfig{BaseConfidence: 0.8, MaxConfidence: 0.9}
	if got := Score(q, r, cfg); got > 0.9 {
		t.Errorf("Score = %v exceeds provider ceiling 0.9", got)
	}
}

func TestScoreAlwaysInUnitInterval(t *testing.T) {
	queries := []types.SearchQuery{
		{},
		{Title: "x"},
		{Title: "Attention", Authors: []string{"Vaswani"}, Year: 2017},
	}
	results := []types.SearchResult{
		{},
		{Title: "Attention", Authors: []string{"Vaswani"}, Year: 2017, PDFURL: "u"},
	}
	cfgs := []types.ScoringConfig{
		{},
		{BaseConfidence: 0.99, MaxConfidence: 1.0},
		{BaseConfidence: -1, MaxConfidence: 2},
	}
	for _, q := range queries {
		for _, r := range results {
			for _, cfg := range cfgs {
				got := Score(q, r, cfg)
				if got < 0 || got > 1 {
					t.Errorf("Score(%+v, %+v, %+v) = %v outside [0,1]", q, r, cfg, got)
				}
			}
		}
	}
}

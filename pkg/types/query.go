// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the value objects and configuration shared across the
// resolution and retrieval stages.
package types

// SearchQuery is the normalized form of a bibliographic record used to query
// external sources. All fields are optional, but a query with no title and no
// identifier is not dispatchable.
type SearchQuery struct {
	// Title is the work title, as stored on the record.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Authors lists author display names in record order ("First Last",
	// or bare last name when no first name is known).
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the normalized DOI (lowercase, no resolver prefix).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ISBN is the ISBN with hyphens and spaces removed.
	ISBN string `json:"isbn,omitempty" yaml:"isbn,omitempty"`

	// ArxivID is the arXiv identifier ("2301.07041" or "cs/0112017").
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
}

// HasIdentifier reports whether the query carries any exact identifier.
func (q SearchQuery) HasIdentifier() bool {
	return q.DOI != "" || q.ISBN != "" || q.ArxivID != ""
}

// Dispatchable reports whether the query carries enough information to be
// sent to a source. Queries that fail this check must short-circuit before
// any network call.
func (q SearchQuery) Dispatchable() bool {
	return q.Title != "" || q.HasIdentifier()
}

// SearchResult is one candidate match from a single source. Results are
// value objects: adapters build them once and nothing mutates them after
// scoring.
type SearchResult struct {
	// Title is the candidate's title as reported by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, zero when the source omits it.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the candidate's DOI in normalized form, if any.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the candidate's arXiv identifier, if any.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// ISBN is the candidate's ISBN without separators, if any. Book
	// sources prefer the 13-digit form when both are reported.
	ISBN string `json:"isbn,omitempty" yaml:"isbn,omitempty"`

	// URL is the candidate's landing page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is a direct full-text link when the source exposes one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Venue is the journal or proceedings name, if reported.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// WorkType is the source's work-type field (e.g. "journal-article",
	// "proceedings-article"), used when converting preprints.
	WorkType string `json:"work_type,omitempty" yaml:"work_type,omitempty"`

	// Confidence is the match confidence in [0,1] assigned by the scorer.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Source is the adapter name that produced this result.
	Source string `json:"source" yaml:"source"`
}

// DownloadCandidate is one URL a retrieval strategy proposes for a record,
// with alternate hosts serving the same resource.
type DownloadCandidate struct {
	// URL is the primary download URL.
	URL string `json:"url" yaml:"url"`

	// SourceName identifies the strategy or provider that produced it.
	SourceName string `json:"source_name" yaml:"source_name"`

	// Mirrors are alternate hosts tried in order after URL fails.
	Mirrors []string `json:"mirrors,omitempty" yaml:"mirrors,omitempty"`
}

// RecordKind partitions records for retrieval ordering: papers and books
// cascade through different source lists.
type RecordKind string

const (
	KindPaper RecordKind = "paper"
	KindBook  RecordKind = "book"
)

// Record type names used by the reference store and the preprint lifecycle.
const (
	TypeJournalArticle  = "journalArticle"
	TypeConferencePaper = "conferencePaper"
	TypePreprint        = "preprint"
	TypeBook            = "book"
)

// Outcome tags written to records when every configured path is exhausted.
// Exhaustion is an expected terminal state, not an error.
const (
	TagNoDOIFound          = "No DOI Found"
	TagNoPDFFound          = "No PDF Found"
	TagNoPublishedPDFFound = "No Published PDF Found"
	TagNoPublishedVersion  = "No Published Version Found"
)

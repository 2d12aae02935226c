// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Creator is one contributor on a record.
type Creator struct {
	// FirstName may be empty for single-name or institutional authors.
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`

	// LastName is the family or full name.
	LastName string `json:"last_name" yaml:"last_name"`

	// Role distinguishes authors from editors, translators, etc.
	// Query building only considers "author".
	Role string `json:"role" yaml:"role"`
}

// DisplayName formats the creator as "First Last", or the last name alone
// when no first name is known.
func (c Creator) DisplayName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

// Attachment is a file owned by a record in the reference store.
type Attachment struct {
	// ID is the attachment's store identifier.
	ID int64 `json:"id" yaml:"id"`

	// Title is the display title shown next to the record.
	Title string `json:"title" yaml:"title"`

	// Path is the local filesystem path of the stored copy. Attachments
	// produced by retrieval are always stored copies, never remote links.
	Path string `json:"path" yaml:"path"`

	// SourceName records which provider supplied the bytes.
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`
}

// Record is a bibliographic record as held by the reference store. The
// resolution engine reads fields into a SearchQuery and writes back only
// identifiers, type changes, venue fields, and tags.
type Record struct {
	// ID is the store identifier.
	ID int64 `json:"id" yaml:"id"`

	// Type is the record type (journalArticle, conferencePaper, preprint, book).
	Type string `json:"type" yaml:"type"`

	// Title is the work title.
	Title string `json:"title" yaml:"title"`

	// Creators lists contributors in record order.
	Creators []Creator `json:"creators,omitempty" yaml:"creators,omitempty"`

	// Date is the publication date; zero when unknown.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// Venue is the journal or proceedings name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Repository is the preprint repository name (e.g. "arXiv"), cleared
	// when a record converts to its published form.
	Repository string `json:"repository,omitempty" yaml:"repository,omitempty"`

	// DOI is the DOI field, normalized on write.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ISBN is the ISBN field, cleaned of separators on write.
	ISBN string `json:"isbn,omitempty" yaml:"isbn,omitempty"`

	// URL is the record's URL field.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Extra holds free-form notes; identifier extraction scans it for
	// "DOI:" lines, raw DOI patterns, arXiv IDs, and ISBNs.
	Extra string `json:"extra,omitempty" yaml:"extra,omitempty"`

	// Tags are free-form labels, including terminal-outcome markers.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Attachments lists the record's stored files.
	Attachments []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// Year returns the record's publication year, zero when the date is unset.
func (r Record) Year() int {
	if r.Date.IsZero() {
		return 0
	}
	return r.Date.Year()
}

// Kind classifies the record for retrieval ordering.
func (r Record) Kind() RecordKind {
	if r.Type == TypeBook {
		return KindBook
	}
	return KindPaper
}

// HasTag reports whether the record carries the given tag.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

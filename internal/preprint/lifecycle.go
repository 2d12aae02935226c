// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preprint drives a preprint record toward its published form: it
// looks for a published version, mutates the record's type and identifiers
// when one is found, and normalizes the record to an explicit preprint
// type when none exists.
package preprint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/reference-engine/internal/aggregate"
	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/internal/refstore"
	"github.com/pdiddy/reference-engine/internal/retrieve"
	"github.com/pdiddy/reference-engine/internal/sources"
	"github.com/pdiddy/reference-engine/pkg/types"
)

// State is a record's position in the preprint lifecycle.
type State string

const (
	// StatePreprint is the initial state: an arXiv-type record with no
	// known published version.
	StatePreprint State = "preprint"

	// StatePublishedKnown means a published DOI or venue was found and
	// written to the record.
	StatePublishedKnown State = "published_known"

	// StateConvertedPreprint is terminal: no published version exists,
	// the record's type was normalized to the canonical preprint type.
	StateConvertedPreprint State = "converted_preprint"
)

// publishedTitleThreshold gates how similar a candidate's title must be
// before it is accepted as the published version.
const publishedTitleThreshold = 0.75

// preprintVenueMarkers name venues that are themselves preprint servers;
// results from these never count as a published version.
var preprintVenueMarkers = []string{
	"arxiv", "biorxiv", "medrxiv", "chemrxiv", "ssrn", "preprint", "research square",
}

// ErrNotPreprint is returned for records that do not look like preprints.
var ErrNotPreprint = errors.New("record is not a preprint")

// Outcome reports what one lifecycle pass did to a record.
type Outcome struct {
	State      State
	DOI        string
	Venue      string
	Downloaded bool
}

// Manager composes aggregation, retrieval, and record mutation for the
// preprint lifecycle.
type Manager struct {
	store       *refstore.Store
	registry    *sources.Registry
	cascade     *retrieve.Cascade
	resolveCfg  types.ResolveConfig
	retrieveCfg types.RetrieveConfig
}

// NewManager builds the lifecycle manager.
func NewManager(store *refstore.Store, registry *sources.Registry, cascade *retrieve.Cascade, resolveCfg types.ResolveConfig, retrieveCfg types.RetrieveConfig) *Manager {
	return &Manager{
		store:       store,
		registry:    registry,
		cascade:     cascade,
		resolveCfg:  resolveCfg,
		retrieveCfg: retrieveCfg,
	}
}

// Process runs one lifecycle pass over rec. Records that are not
// preprints return ErrNotPreprint untouched.
func (m *Manager) Process(ctx context.Context, rec types.Record, w io.Writer) (Outcome, error) {
	if !IsPreprint(rec) {
		return Outcome{}, ErrNotPreprint
	}

	match, err := m.findPublished(ctx, rec, w)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return Outcome{State: StatePreprint}, err
	}

	switch {
	case match != nil && match.DOI != "":
		return m.promote(ctx, rec, match, w)
	case match != nil && match.Venue != "":
		return m.recordVenue(ctx, rec, match, w)
	default:
		return m.convert(ctx, rec, w)
	}
}

// IsPreprint detects arXiv-ness from the record's venue, repository, URL,
// extra field, or an arXiv id in any of them.
func IsPreprint(rec types.Record) bool {
	if rec.Type == types.TypePreprint {
		return true
	}
	for _, field := range []string{rec.Venue, rec.Repository, rec.URL, rec.Extra, rec.Title} {
		if strings.Contains(strings.ToLower(field), "arxiv") {
			return true
		}
	}
	return false
}

// findPublished tries, in order: an identifier search keyed by the arXiv
// id, a title+author search excluding preprint venues, and a secondary
// metadata provider with the same exclusion. First sufficiently-similar
// match wins.
func (m *Manager) findPublished(ctx context.Context, rec types.Record, w io.Writer) (*types.SearchResult, error) {
	q, err := bib.BuildQuery(rec)
	if err != nil {
		return nil, err
	}

	if q.ArxivID != "" {
		r, err := m.registry.SemanticScholar.LookupIdentifier(ctx, "arXiv:"+q.ArxivID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			fmt.Fprintf(w, "warning: arXiv id lookup failed: %v\n", err)
		}
		if accepted := m.acceptPublished(rec, r); accepted != nil {
			return accepted, nil
		}
	}

	if q.Title == "" {
		return nil, types.ErrNotFound
	}
	titleQuery := types.SearchQuery{Title: q.Title, Authors: q.Authors, Year: q.Year}

	for _, adapter := range []sources.Adapter{m.registry.Crossref, m.registry.OpenAlex} {
		out, err := aggregate.Search(ctx, titleQuery, []sources.Adapter{adapter}, aggregate.Options{Strategy: aggregate.StrategyFallback}, w)
		if err != nil {
			fmt.Fprintf(w, "warning: published-version search via %s failed: %v\n", adapter.Name(), err)
			continue
		}
		for i := range out.Results {
			if accepted := m.acceptPublished(rec, &out.Results[i]); accepted != nil {
				return accepted, nil
			}
		}
	}
	return nil, types.ErrNotFound
}

// acceptPublished applies the venue exclusion and title similarity gate.
func (m *Manager) acceptPublished(rec types.Record, r *types.SearchResult) *types.SearchResult {
	if r == nil {
		return nil
	}
	if isPreprintVenue(r.Venue) {
		return nil
	}
	if r.DOI == "" && r.Venue == "" {
		return nil
	}
	if bib.TitleSimilarity(rec.Title, r.Title) < publishedTitleThreshold {
		return nil
	}
	return r
}

func isPreprintVenue(venue string) bool {
	v := strings.ToLower(venue)
	for _, marker := range preprintVenueMarkers {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}

// promote writes the published DOI and metadata onto the record, clears
// the preprint repository field, annotates carried-over attachments, and
// fetches the published PDF when the download gate allows it.
func (m *Manager) promote(ctx context.Context, rec types.Record, match *types.SearchResult, w io.Writer) (Outcome, error) {
	newType := publishedType(match.WorkType)
	typeChanged := rec.Type != newType

	rec.Type = newType
	if rec.DOI == "" || m.resolveCfg.Overwrite {
		rec.DOI = match.DOI
	}
	if match.Venue != "" {
		rec.Venue = match.Venue
	}
	rec.Repository = ""

	if err := m.store.SaveRecord(ctx, rec); err != nil {
		return Outcome{State: StatePreprint}, fmt.Errorf("saving promoted record: %w", err)
	}
	if typeChanged {
		if err := m.annotateAttachments(ctx, rec.ID); err != nil {
			return Outcome{State: StatePublishedKnown}, err
		}
	}
	fmt.Fprintf(w, "published version found: %s (%s)\n", rec.DOI, rec.Venue)

	downloaded, err := m.fetchPublished(ctx, rec, typeChanged, w)
	if err != nil {
		return Outcome{State: StatePublishedKnown, DOI: rec.DOI, Venue: rec.Venue}, err
	}
	return Outcome{State: StatePublishedKnown, DOI: rec.DOI, Venue: rec.Venue, Downloaded: downloaded}, nil
}

// recordVenue handles the DOI-less case common for conference papers: the
// venue string is written directly and the arXiv PDF remains the full text.
func (m *Manager) recordVenue(ctx context.Context, rec types.Record, match *types.SearchResult, w io.Writer) (Outcome, error) {
	rec.Venue = match.Venue
	if err := m.store.SaveRecord(ctx, rec); err != nil {
		return Outcome{State: StatePreprint}, fmt.Errorf("saving venue: %w", err)
	}
	fmt.Fprintf(w, "published venue found without DOI: %s\n", rec.Venue)

	downloaded, err := m.fetchPublished(ctx, rec, false, w)
	if err != nil {
		return Outcome{State: StatePublishedKnown, Venue: rec.Venue}, err
	}
	return Outcome{State: StatePublishedKnown, Venue: rec.Venue, Downloaded: downloaded}, nil
}

// convert is the terminal no-published-version transition: the record's
// type becomes the canonical preprint type and the venue field is cleared.
func (m *Manager) convert(ctx context.Context, rec types.Record, w io.Writer) (Outcome, error) {
	rec.Type = types.TypePreprint
	rec.Venue = ""
	if err := m.store.SaveRecord(ctx, rec); err != nil {
		return Outcome{State: StatePreprint}, fmt.Errorf("converting record: %w", err)
	}
	if err := m.store.AddTag(ctx, rec.ID, types.TagNoPublishedVersion); err != nil {
		return Outcome{State: StateConvertedPreprint}, err
	}
	fmt.Fprintf(w, "no published version found, converted to preprint type\n")
	return Outcome{State: StateConvertedPreprint}, nil
}

// annotateAttachments suffixes existing attachment titles so the audit
// trail survives the type change.
func (m *Manager) annotateAttachments(ctx context.Context, recordID int64) error {
	attachments, err := m.store.Attachments(ctx, recordID)
	if err != nil {
		return err
	}
	for _, att := range attachments {
		if strings.HasSuffix(att.Title, "(preprint)") {
			continue
		}
		if err := m.store.RenameAttachment(ctx, att.ID, att.Title+" (preprint)"); err != nil {
			return fmt.Errorf("annotating attachment %d: %w", att.ID, err)
		}
	}
	return nil
}

// fetchPublished runs the download cascade when the selective-download
// gate allows it. A "not found" outcome is recorded as a tag, not an error.
func (m *Manager) fetchPublished(ctx context.Context, rec types.Record, typeChanged bool, w io.Writer) (bool, error) {
	ok, err := retrieve.ShouldDownload(ctx, m.store, rec, typeChanged, m.retrieveCfg)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	d, err := m.cascade.Fetch(ctx, rec, w)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrNoQuery) {
			if tagErr := m.store.AddTag(ctx, rec.ID, types.TagNoPublishedPDFFound); tagErr != nil {
				return false, tagErr
			}
			return false, nil
		}
		return false, err
	}

	if _, err := retrieve.Materialize(ctx, m.store, rec, d, w); err != nil {
		return false, err
	}
	return true, nil
}

// publishedType maps a provider work-type string onto a record type.
func publishedType(workType string) string {
	t := strings.ToLower(workType)
	switch {
	case strings.Contains(t, "proceedings"), strings.Contains(t, "conference"):
		return types.TypeConferencePaper
	default:
		return types.TypeJournalArticle
	}
}

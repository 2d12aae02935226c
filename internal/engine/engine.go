// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine wires the reference store, source adapters, and
// retrieval cascade into the operations the CLI exposes. All collaborators
// are constructed explicitly here and passed down; nothing reaches for
// process-global state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/reference-engine/internal/aggregate"
	"github.com/pdiddy/reference-engine/internal/bib"
	"github.com/pdiddy/reference-engine/internal/preprint"
	"github.com/pdiddy/reference-engine/internal/refstore"
	"github.com/pdiddy/reference-engine/internal/retrieve"
	"github.com/pdiddy/reference-engine/internal/sources"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const defaultHTTPTimeout = 60 * time.Second

// Engine holds every long-lived collaborator for one process.
type Engine struct {
	Store    *refstore.Store
	Registry *sources.Registry
	Cascade  *retrieve.Cascade
	Preprint *preprint.Manager

	cfg types.PipelineConfig
}

// New constructs an engine from config and loaded secrets. The caller
// owns Close.
func New(cfg types.PipelineConfig, adapterConfigs map[string]types.AdapterConfig, secrets map[string]string) (*Engine, error) {
	store, err := refstore.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening reference store: %w", err)
	}

	timeout := cfg.Retrieve.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	hc := &http.Client{Timeout: timeout}

	registry := sources.NewRegistry(hc, adapterConfigs, cfg.Resolve.UserAgent, secrets)
	cascade := retrieve.NewCascade(hc, registry, cfg.Retrieve)
	manager := preprint.NewManager(store, registry, cascade, cfg.Resolve, cfg.Retrieve)

	return &Engine{
		Store:    store,
		Registry: registry,
		Cascade:  cascade,
		Preprint: manager,
		cfg:      cfg,
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// Resolve finds a canonical identifier for one record and writes it back.
// At most one identifier field (DOI or ISBN) is written per pass, and only
// when the field was empty unless Overwrite is set. A record that yields
// no match is tagged rather than failed.
func (e *Engine) Resolve(ctx context.Context, recordID int64, w io.Writer) error {
	rec, err := e.Store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}

	q, err := bib.BuildQuery(rec)
	if err != nil {
		if errors.Is(err, types.ErrNoQuery) {
			fmt.Fprintf(w, "record %d has no identifying information, skipping\n", recordID)
			return e.Store.AddTag(ctx, recordID, types.TagNoDOIFound)
		}
		return err
	}

	adapters := e.Registry.Metadata()
	if rec.Kind() == types.KindBook {
		adapters = e.Registry.BookMetadata()
	}

	out, err := aggregate.Search(ctx, q, adapters, aggregate.Options{
		Strategy:       aggregate.Strategy(e.cfg.Resolve.Strategy),
		OpenAccessOnly: e.cfg.Resolve.OpenAccessOnly,
	}, w)
	if err != nil {
		return err
	}

	best := out.Best()
	if best == nil {
		fmt.Fprintf(w, "no match found for record %d\n", recordID)
		return e.Store.AddTag(ctx, recordID, types.TagNoDOIFound)
	}

	if !e.writeIdentifier(&rec, best) {
		fmt.Fprintf(w, "record %d already carries an identifier, nothing written\n", recordID)
		return nil
	}
	if err := e.Store.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("saving resolved record: %w", err)
	}
	fmt.Fprintf(w, "resolved record %d via %s (confidence %.2f)\n", recordID, best.Source, best.Confidence)
	return nil
}

// writeIdentifier applies the one-identifier-per-pass rule and reports
// whether the record changed.
func (e *Engine) writeIdentifier(rec *types.Record, best *types.SearchResult) bool {
	overwrite := e.cfg.Resolve.Overwrite
	if best.DOI != "" && (rec.DOI == "" || overwrite) {
		rec.DOI = bib.NormalizeDOI(best.DOI)
		return true
	}
	if best.DOI == "" && best.ISBN != "" && (rec.ISBN == "" || overwrite) {
		rec.ISBN = best.ISBN
		return true
	}
	return false
}

// Fetch retrieves and materializes a full-text file for one record,
// honoring the selective-download gate. An exhausted cascade tags the
// record and returns nil.
func (e *Engine) Fetch(ctx context.Context, recordID int64, w io.Writer) error {
	rec, err := e.Store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}

	ok, err := retrieve.ShouldDownload(ctx, e.Store, rec, false, e.cfg.Retrieve)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(w, "record %d already has a valid file, skipping\n", recordID)
		return nil
	}

	d, err := e.Cascade.Fetch(ctx, rec, w)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrNoQuery) {
			fmt.Fprintf(w, "no file found for record %d\n", recordID)
			return e.Store.AddTag(ctx, recordID, types.TagNoPDFFound)
		}
		return err
	}

	if _, err := retrieve.Materialize(ctx, e.Store, rec, d, w); err != nil {
		return err
	}
	return nil
}

// ProcessPreprint runs one preprint lifecycle pass for a record.
func (e *Engine) ProcessPreprint(ctx context.Context, recordID int64, w io.Writer) error {
	rec, err := e.Store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	out, err := e.Preprint.Process(ctx, rec, w)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "record %d: %s\n", recordID, out.State)
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/reference-engine/internal/refstore"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const maxFilenameLen = 120

// Materialize turns a validated download into a durable local attachment
// on the record and tags the record with the originating source name.
// When the primary import path fails, the bytes are staged to a scratch
// file and imported from there before surfacing failure.
func Materialize(ctx context.Context, store *refstore.Store, rec types.Record, d *Download, w io.Writer) (types.Attachment, error) {
	filename := SanitizeFilename(rec.Title) + ".pdf"
	title := "Full Text PDF"

	att, err := store.ImportFile(ctx, rec.ID, filename, title, d.SourceName, d.Data)
	if err != nil {
		fmt.Fprintf(w, "warning: direct import failed (%v), staging through scratch file\n", err)
		att, err = importViaScratch(ctx, store, rec.ID, filename, title, d)
		if err != nil {
			return types.Attachment{}, fmt.Errorf("materializing attachment: %w", err)
		}
	}

	if err := store.AddTag(ctx, rec.ID, "source:"+d.SourceName); err != nil {
		return att, fmt.Errorf("tagging provenance: %w", err)
	}
	return att, nil
}

// importViaScratch stages the bytes in a scratch file, re-reads them, and
// retries the import. The scratch file is removed regardless of outcome.
func importViaScratch(ctx context.Context, store *refstore.Store, recordID int64, filename, title string, d *Download) (types.Attachment, error) {
	scratch, err := os.CreateTemp("", "retrieve-*.pdf")
	if err != nil {
		return types.Attachment{}, fmt.Errorf("creating scratch file: %w", err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	_, writeErr := scratch.Write(d.Data)
	closeErr := scratch.Close()
	if writeErr != nil {
		return types.Attachment{}, fmt.Errorf("writing scratch file: %w", writeErr)
	}
	if closeErr != nil {
		return types.Attachment{}, fmt.Errorf("closing scratch file: %w", closeErr)
	}

	data, err := os.ReadFile(scratchPath)
	if err != nil {
		return types.Attachment{}, fmt.Errorf("reading scratch file: %w", err)
	}
	return store.ImportFile(ctx, recordID, filename, title, d.SourceName, data)
}

// ShouldDownload reports whether a download should be attempted for rec:
// when no valid local file exists, or when a pending type change makes the
// existing file's provenance stale.
func ShouldDownload(ctx context.Context, store *refstore.Store, rec types.Record, typeChanging bool, cfg types.RetrieveConfig) (bool, error) {
	if cfg.Force || typeChanging {
		return true, nil
	}

	attachments, err := store.Attachments(ctx, rec.ID)
	if err != nil {
		return false, fmt.Errorf("listing attachments: %w", err)
	}
	for _, att := range attachments {
		if hasValidFile(att.Path) {
			return false, nil
		}
	}
	return true, nil
}

// hasValidFile checks that the attachment's file exists on disk and
// carries the PDF signature.
func hasValidFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return string(head) == string(pdfMagic)
}

// SanitizeFilename replaces characters that are invalid in filenames and
// bounds the length.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "attachment"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	return strings.TrimSpace(filepath.Base(out))
}

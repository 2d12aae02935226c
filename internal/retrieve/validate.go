// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// pdfMagic is the 5-byte signature every PDF starts with.
var pdfMagic = []byte("%PDF-")

// eofMarker should appear near the end of a well-formed PDF, but files
// with trailing bytes after it are still widely readable.
var eofMarker = []byte("%%EOF")

const defaultMinFileSize = 1024

// Validator rejects downloads that are not the file they claim to be:
// error pages served with status 200, interstitials, truncated bodies.
type Validator struct {
	// MinSize is the smallest byte count accepted as a plausible file.
	MinSize int64

	// Deep additionally parses the PDF cross-reference structure.
	Deep bool
}

// NewValidator builds a Validator from the retrieval config.
func NewValidator(cfg types.RetrieveConfig) Validator {
	min := cfg.MinFileSize
	if min <= 0 {
		min = defaultMinFileSize
	}
	return Validator{MinSize: min, Deep: cfg.DeepValidate}
}

// ValidatePDF checks that data is a structurally plausible PDF. A missing
// end-of-file marker is reported on w as a warning but does not reject the
// file. Rejections wrap types.ErrBadFile.
func (v Validator) ValidatePDF(data []byte, w io.Writer) error {
	if int64(len(data)) < v.MinSize {
		return fmt.Errorf("%w: %d bytes is below the %d byte minimum", types.ErrBadFile, len(data), v.MinSize)
	}

	if kind := sniffTextPayload(data); kind != "" {
		return fmt.Errorf("%w: payload is %s, not a PDF", types.ErrBadFile, kind)
	}

	if !bytes.HasPrefix(data, pdfMagic) {
		return fmt.Errorf("%w: missing %%PDF- signature", types.ErrBadFile)
	}

	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	if !bytes.Contains(tail, eofMarker) {
		fmt.Fprintf(w, "warning: PDF is missing its %%%%EOF marker, accepting anyway\n")
	}

	if v.Deep {
		if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
			return fmt.Errorf("%w: parsing PDF structure: %v", types.ErrBadFile, err)
		}
	}
	return nil
}

// sniffTextPayload classifies leading bytes that betray an HTML or JSON
// error page. Returns "" when the payload does not look like either.
func sniffTextPayload(data []byte) string {
	head := bytes.TrimLeft(data, " \t\r\n")
	if len(head) == 0 {
		return "empty"
	}
	lower := bytes.ToLower(head)
	switch {
	case bytes.HasPrefix(lower, []byte("<!doctype")),
		bytes.HasPrefix(lower, []byte("<html")),
		bytes.HasPrefix(lower, []byte("<head")),
		bytes.HasPrefix(lower, []byte("<body")):
		return "an HTML page"
	case head[0] == '{' || head[0] == '[':
		return "a JSON document"
	}
	return ""
}

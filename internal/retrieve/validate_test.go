// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// pdfBytes builds a plausible PDF payload of at least n bytes.
func pdfBytes(n int, withEOF bool) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	for b.Len() < n {
		b.WriteString("0 obj stream padding\n")
	}
	if withEOF {
		b.WriteString("\n%%EOF\n")
	}
	return b.Bytes()
}

func TestValidatePDFAcceptsWellFormedFile(t *testing.T) {
	v := Validator{MinSize: 64}
	if err := v.ValidatePDF(pdfBytes(256, true), io.Discard); err != nil {
		t.Errorf("ValidatePDF: %v", err)
	}
}

func TestValidatePDFAcceptsTrailingGarbage(t *testing.T) {
	data := append(pdfBytes(256, true), []byte("\ntrailing bytes after the marker")...)
	v := Validator{MinSize: 64}
	if err := v.ValidatePDF(data, io.Discard); err != nil {
		t.Errorf("ValidatePDF with trailing bytes: %v", err)
	}
}

func TestValidatePDFMissingEOFWarnsOnly(t *testing.T) {
	var warnings strings.Builder
	v := Validator{MinSize: 64}
	if err := v.ValidatePDF(pdfBytes(256, false), &warnings); err != nil {
		t.Errorf("ValidatePDF: %v", err)
	}
	if !strings.Contains(warnings.String(), "EOF") {
		t.Errorf("expected a warning about the missing marker, got %q", warnings.String())
	}
}

func TestValidatePDFRejections(t *testing.T) {
	v := Validator{MinSize: 64}
	tests := []struct {
		name string
		data []byte
	}{
		{"too small", []byte("%PDF-1.4")},
		{"html error page", bytes.Repeat([]byte("<html><body>Not Found</body></html>"), 10)},
		{"html with leading whitespace", append([]byte("\n  \t"), bytes.Repeat([]byte("<!DOCTYPE html><p>err</p>"), 10)...)},
		{"json error body", bytes.Repeat([]byte(`{"error": "rate limited"}  `), 10)},
		{"wrong magic", bytes.Repeat([]byte("GIF89a not a pdf at all "), 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePDF(tt.data, io.Discard)
			if !errors.Is(err, types.ErrBadFile) {
				t.Errorf("err = %v, want wrapped ErrBadFile", err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Attention Is All You Need", "Attention Is All You Need"},
		{`bad/name: "quoted"?`, `bad_name_ _quoted__`},
		{"", "attachment"},
		{"   ", "attachment"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("x", 500)
	if got := SanitizeFilename(long); len(got) > maxFilenameLen {
		t.Errorf("long name not bounded: %d chars", len(got))
	}
}

package diagram

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inkwell-build/inkwell/pkg/errors"
)

func TestExtractHeader(t *testing.T) {
	e := NewDimensionExtractor("", 0)

	w, h, err := e.ExtractHeader(`<svg xmlns="http://www.w3.org/2000/svg" width="12.3pt" height="45.6pt">`)
	if err != nil {
		t.Fatalf("ExtractHeader: %v", err)
	}
	// 12.3 * 1.35 = 16.605 -> 16; 45.6 * 1.35 = 61.56 -> 61
	if w != 16 || h != 61 {
		t.Errorf("got (%d, %d), want (16, 61)", w, h)
	}
}

func TestExtractHeaderIntegerMagnitudes(t *testing.T) {
	e := NewDimensionExtractor("", 0)
	w, h, err := e.ExtractHeader(`width="10pt" height="10pt"`)
	if err != nil {
		t.Fatalf("ExtractHeader: %v", err)
	}
	if w != 13 || h != 13 {
		t.Errorf("got (%d, %d), want (13, 13)", w, h)
	}
}

func TestExtractHeaderCustomUnitAndScale(t *testing.T) {
	e := NewDimensionExtractor("mm", 2.0)
	w, h, err := e.ExtractHeader(`width="3.5mm" height="4mm"`)
	if err != nil {
		t.Fatalf("ExtractHeader: %v", err)
	}
	if w != 7 || h != 8 {
		t.Errorf("got (%d, %d), want (7, 8)", w, h)
	}

	// The configured unit must match exactly.
	if _, _, err := e.ExtractHeader(`width="3.5pt" height="4pt"`); !errors.Is(err, errors.ErrCodeUnparsableHeader) {
		t.Errorf("wrong unit: code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnparsableHeader)
	}
}

func TestExtractHeaderMismatch(t *testing.T) {
	e := NewDimensionExtractor("", 0)
	for _, line := range []string{
		"",
		"<svg>",
		`width="abcpt" height="1pt"`,
		`height="1pt" width="2pt"`, // order matters in the header contract
	} {
		if _, _, err := e.ExtractHeader(line); !errors.Is(err, errors.ErrCodeUnparsableHeader) {
			t.Errorf("header %q: code = %v, want %v", line, errors.GetCode(err), errors.ErrCodeUnparsableHeader)
		}
	}
}

func TestExtractReadsFirstLineOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.svg")
	content := "<svg width=\"10pt\" height=\"20pt\">\nwidth=\"99pt\" height=\"99pt\"\n</svg>\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewDimensionExtractor("", 0)
	w, h, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if w != 13 || h != 27 {
		t.Errorf("got (%d, %d), want (13, 27)", w, h)
	}
}

func TestExtractEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.svg")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewDimensionExtractor("", 0)
	if _, _, err := e.Extract(path); !errors.Is(err, errors.ErrCodeUnparsableHeader) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnparsableHeader)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := NewDimensionExtractor("", 0)
	if _, _, err := e.Extract(filepath.Join(t.TempDir(), "nope.svg")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}

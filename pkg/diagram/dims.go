package diagram

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"regexp"

	"github.com/inkwell-build/inkwell/pkg/errors"
)

// Unit-conversion defaults. The scale converts the toolchain's output unit
// to pixels and is a design parameter, not a derived physical constant.
const (
	DefaultUnit  = "pt"
	DefaultScale = 1.35
)

// DimensionExtractor recovers pixel dimensions from a rendered vector image
// by matching the width/height attributes on the file's first line.
type DimensionExtractor struct {
	scale   float64
	unit    string
	pattern *regexp.Regexp
}

// NewDimensionExtractor creates an extractor for the given unit suffix and
// unit-to-pixel scale. Zero values select the defaults ("pt", 1.35).
func NewDimensionExtractor(unit string, scale float64) *DimensionExtractor {
	if unit == "" {
		unit = DefaultUnit
	}
	if scale == 0 {
		scale = DefaultScale
	}
	u := regexp.QuoteMeta(unit)
	return &DimensionExtractor{
		scale: scale,
		unit:  unit,
		pattern: regexp.MustCompile(
			fmt.Sprintf(`width="([0-9]*\.?[0-9]+)%s"\s+height="([0-9]*\.?[0-9]+)%s"`, u, u)),
	}
}

// Extract reads the first line of the file at path and returns its pixel
// dimensions. Each captured magnitude is multiplied by the scale and floored
// to an integer. A first line that does not match the expected pattern is an
// UNPARSABLE_HEADER error: a toolchain or version mismatch, not a condition
// to retry silently.
func (e *DimensionExtractor) Extract(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeFileNotFound, err, "open rendered image %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		return 0, 0, errors.New(errors.ErrCodeUnparsableHeader, "rendered image %s is empty", path)
	}
	return e.ExtractHeader(scanner.Text())
}

// ExtractHeader matches the dimension pattern against a single header line.
func (e *DimensionExtractor) ExtractHeader(line string) (width, height int, err error) {
	m := e.pattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, errors.New(errors.ErrCodeUnparsableHeader,
			"no width/height in %q unit, header %q", e.unit, truncate(line, 120))
	}

	w, err := parseMagnitude(m[1])
	if err != nil {
		return 0, 0, err
	}
	h, err := parseMagnitude(m[2])
	if err != nil {
		return 0, 0, err
	}
	return int(math.Floor(w * e.scale)), int(math.Floor(h * e.scale)), nil
}

func parseMagnitude(s string) (float64, error) {
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, errors.Wrap(errors.ErrCodeUnparsableHeader, err, "magnitude %q", s)
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// Package chunk splits raw document text into alternating prose and diagram
// segments.
//
// A diagram segment is a region bounded by delimiter lines whose trimmed
// content begins with a fixed 3-character marker (default "~~~"). The opening
// delimiter may carry a trailing "{style}" payload which becomes the chunk's
// attribute string. Everything outside delimited regions is prose and passes
// through untouched.
//
// Chunk identity is positional: the Nth diagram chunk of a parse pairs with
// the Nth replacement handed to Substitute. Parsing is deterministic, so a
// chunk list can be parsed once, rendered against, and substituted in place.
package chunk

import (
	"strings"

	"github.com/inkwell-build/inkwell/pkg/errors"
)

// DefaultMarker is the delimiter marker used when none is configured.
const DefaultMarker = "~~~"

// Kind discriminates the two chunk variants.
type Kind int

const (
	// Prose is ordinary document text, passed through verbatim.
	Prose Kind = iota

	// Diagram is delimiter-bounded diagram source.
	Diagram
)

// Chunk is one segment of a document's linear text.
type Chunk struct {
	Kind  Kind
	Attr  string   // style payload from the opening delimiter (diagrams only)
	Lines []string // raw body lines, delimiters excluded
}

// Parser splits documents on a configured delimiter marker.
type Parser struct {
	marker string
}

// NewParser creates a parser for the given delimiter marker.
// An empty marker selects DefaultMarker.
func NewParser(marker string) (*Parser, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	if err := errors.ValidateMarker(marker); err != nil {
		return nil, err
	}
	return &Parser{marker: marker}, nil
}

// Marker returns the parser's delimiter marker.
func (p *Parser) Marker() string {
	return p.marker
}

// Parse scans lines top to bottom into an ordered chunk list.
//
// A line whose trimmed content begins with the marker opens a diagram chunk;
// the remainder of that line becomes the attribute string. Body lines run up
// to the next delimiter line, which is consumed and discarded. A diagram
// left open at end of input is a hard MALFORMED_BLOCK error rather than
// silently swallowing the document tail.
func (p *Parser) Parse(lines []string) ([]Chunk, error) {
	var chunks []Chunk
	var prose []string

	flushProse := func() {
		if len(prose) > 0 {
			chunks = append(chunks, Chunk{Kind: Prose, Lines: prose})
			prose = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		if !p.isDelimiter(lines[i]) {
			prose = append(prose, lines[i])
			continue
		}

		flushProse()
		attr := p.attribute(lines[i])
		openLine := i + 1 // 1-based, for diagnostics

		var body []string
		closed := false
		for i++; i < len(lines); i++ {
			if p.isDelimiter(lines[i]) {
				closed = true
				break
			}
			body = append(body, lines[i])
		}
		if !closed {
			return nil, errors.New(errors.ErrCodeMalformedBlock,
				"diagram block opened at line %d is never terminated", openLine)
		}

		chunks = append(chunks, Chunk{Kind: Diagram, Attr: attr, Lines: body})
	}

	flushProse()
	return chunks, nil
}

// isDelimiter reports whether the trimmed line begins with the marker.
func (p *Parser) isDelimiter(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), p.marker)
}

// attribute extracts the style payload from an opening delimiter line.
// Leading marker characters are stripped, then one surrounding brace pair,
// then whitespace: `~~~{float:left}` yields "float:left".
func (p *Parser) attribute(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, p.marker[:1])
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// Flatten returns a chunk's lines unchanged: the prose text for Prose, the
// raw diagram body for Diagram. Concatenating the flattened chunks of a
// parse reproduces the input with only delimiter lines removed.
func Flatten(c Chunk) []string {
	return c.Lines
}

// FlattenAll concatenates Flatten over every chunk, in order.
func FlattenAll(chunks []Chunk) []string {
	var out []string
	for _, c := range chunks {
		out = append(out, Flatten(c)...)
	}
	return out
}

// Diagrams returns the diagram chunks of a parse, in document order.
func Diagrams(chunks []Chunk) []Chunk {
	var out []Chunk
	for _, c := range chunks {
		if c.Kind == Diagram {
			out = append(out, c)
		}
	}
	return out
}

// Substitute walks chunks in order, passing prose through and replacing each
// successive diagram chunk with a literal-text prose chunk holding the next
// entry of replacements. The replacement list is parallel to the diagram
// chunks of the parse; any count disagreement is a REPLACEMENT_MISMATCH
// logic fault, never silently truncated.
func Substitute(chunks []Chunk, replacements []string) ([]Chunk, error) {
	out := make([]Chunk, 0, len(chunks))
	next := 0
	for _, c := range chunks {
		if c.Kind != Diagram {
			out = append(out, c)
			continue
		}
		if next >= len(replacements) {
			return nil, errors.New(errors.ErrCodeReplacementMismatch,
				"%d replacements for at least %d diagram chunks", len(replacements), next+1)
		}
		out = append(out, Chunk{Kind: Prose, Lines: []string{replacements[next]}})
		next++
	}
	if next != len(replacements) {
		return nil, errors.New(errors.ErrCodeReplacementMismatch,
			"%d replacements for %d diagram chunks", len(replacements), next)
	}
	return out, nil
}

// Split breaks document text into lines for Parse. A trailing newline
// produces a final empty line, which Join restores, so Split/Join round-trip
// byte-exactly.
func Split(text string) []string {
	return strings.Split(text, "\n")
}

// Join reassembles lines into document text.
func Join(lines []string) string {
	return strings.Join(lines, "\n")
}

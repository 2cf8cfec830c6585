package diagram

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/inkwell-build/inkwell/pkg/errors"
)

// Arg placeholders expanded to absolute scratch-directory paths before the
// toolchain is invoked. Passing absolute paths keeps the parent process free
// of working-directory mutation; only the child gets a working directory.
const (
	PlaceholderInput  = "{input}"
	PlaceholderOutput = "{output}"
)

// Toolchain describes the external rendering command.
//
// The contract with the toolchain is: given the wrapper document written to
// Input inside a scratch directory, it produces the file named Output in
// that same directory. Output existence is the primary success signal; the
// exit status is checked as well, but a nonzero exit that still produced the
// output is tolerated with a warning, since several rasterizers exit noisily
// on harmless font or glyph complaints.
type Toolchain struct {
	Command string   // executable name or path
	Args    []string // arguments, with {input}/{output} placeholders
	Input   string   // input filename written into the scratch directory
	Output  string   // output filename expected in the scratch directory
	Prefix  string   // boilerplate emitted before the diagram body
	Suffix  string   // boilerplate emitted after the diagram body
}

// DefaultToolchain renders through mermaid-cli.
func DefaultToolchain() Toolchain {
	return Toolchain{
		Command: "mmdc",
		Args:    []string{"-i", PlaceholderInput, "-o", PlaceholderOutput},
		Input:   "diagram.mmd",
		Output:  "diagram.svg",
	}
}

// wrap builds the document handed to the toolchain from the raw body lines.
func (t Toolchain) wrap(body []string) string {
	var b strings.Builder
	if t.Prefix != "" {
		b.WriteString(t.Prefix)
		if !strings.HasSuffix(t.Prefix, "\n") {
			b.WriteByte('\n')
		}
	}
	b.WriteString(strings.Join(body, "\n"))
	b.WriteByte('\n')
	if t.Suffix != "" {
		b.WriteString(t.Suffix)
		if !strings.HasSuffix(t.Suffix, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// run writes the wrapper document into scratch, invokes the toolchain, and
// returns the absolute path of the produced output file.
func (t Toolchain) run(ctx context.Context, scratch string, body []string, logger *log.Logger) (string, error) {
	inputPath := filepath.Join(scratch, t.Input)
	outputPath := filepath.Join(scratch, t.Output)

	if err := os.WriteFile(inputPath, []byte(t.wrap(body)), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeRenderFailed, err, "write toolchain input")
	}

	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		a = strings.ReplaceAll(a, PlaceholderInput, inputPath)
		a = strings.ReplaceAll(a, PlaceholderOutput, outputPath)
		args[i] = a
	}

	cmd := exec.CommandContext(ctx, t.Command, args...)
	cmd.Dir = scratch
	out, runErr := cmd.CombinedOutput()

	if _, statErr := os.Stat(outputPath); statErr != nil {
		if runErr != nil {
			return "", errors.Wrap(errors.ErrCodeRenderFailed, runErr,
				"toolchain %q produced no output: %s", t.Command, tail(out))
		}
		return "", errors.New(errors.ErrCodeRenderFailed,
			"toolchain %q exited cleanly but produced no %s", t.Command, t.Output)
	}

	if runErr != nil {
		// Output exists despite the exit status; tolerate the noise but
		// surface the disagreement.
		logger.Warn("toolchain exited with error but produced output",
			"command", t.Command, "err", runErr, "output", tail(out))
	}

	return outputPath, nil
}

// tail returns the last few hundred bytes of toolchain output for diagnostics.
func tail(out []byte) string {
	const max = 400
	s := strings.TrimSpace(string(out))
	if len(s) > max {
		s = "…" + s[len(s)-max:]
	}
	return s
}

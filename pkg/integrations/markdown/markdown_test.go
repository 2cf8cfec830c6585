package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"

	"github.com/inkwell-build/inkwell/pkg/diagram"
)

func stubRenderer(t *testing.T) *diagram.Renderer {
	t.Helper()
	dir := t.TempDir()

	stub := filepath.Join(dir, "stub.sh")
	script := "#!/bin/sh\nprintf '<svg width=\"10pt\" height=\"10pt\">\\n</svg>\\n' > \"$2\"\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	r, err := diagram.NewRenderer(diagram.Config{
		CacheDir: filepath.Join(dir, "cache"),
		Route:    "images/diagrams",
		Toolchain: diagram.Toolchain{
			Command: stub,
			Args:    []string{diagram.PlaceholderInput, diagram.PlaceholderOutput},
			Input:   "diagram.mmd",
			Output:  "diagram.svg",
		},
		Logger: log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestExtensionRendersMatchingFences(t *testing.T) {
	r := stubRenderer(t)
	md := goldmark.New(goldmark.WithExtensions(New("diagram", r)))

	source := "# Title\n\n```diagram {float:left}\nX\n```\n\n```go\nfunc main() {}\n```\n"
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	html := buf.String()

	digest := diagram.Digest([]string{"X"})
	want := fmt.Sprintf(
		`<object type="image/svg+xml" data="/images/diagrams/%s.svg" width="13" height="13" style="float:left"></object>`,
		digest)
	if !strings.Contains(html, want) {
		t.Errorf("output missing embed fragment:\n%s\nwant fragment:\n%s", html, want)
	}

	// Other fences stay ordinary code blocks.
	if !strings.Contains(html, "func main()") {
		t.Errorf("go fence was swallowed:\n%s", html)
	}
	if strings.Count(html, "<object") != 1 {
		t.Errorf("expected exactly one embed fragment:\n%s", html)
	}
}

func TestExtensionPropagatesRenderErrors(t *testing.T) {
	// The renderer's toolchain points at a missing command.
	broken, err := diagram.NewRenderer(diagram.Config{
		CacheDir:  t.TempDir(),
		Route:     "images/diagrams",
		Toolchain: diagram.Toolchain{Command: filepath.Join(t.TempDir(), "missing"), Input: "in", Output: "out"},
		Logger:    log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel}),
	})
	if err != nil {
		t.Fatal(err)
	}

	md := goldmark.New(goldmark.WithExtensions(New("diagram", broken)))
	var buf bytes.Buffer
	if err := md.Convert([]byte("```diagram\nX\n```\n"), &buf); err == nil {
		t.Error("Convert should surface the render failure")
	}
}

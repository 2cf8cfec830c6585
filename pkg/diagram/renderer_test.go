package diagram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/inkwell-build/inkwell/pkg/chunk"
	"github.com/inkwell-build/inkwell/pkg/errors"
)

// stubToolchain writes a shell script standing in for the external renderer
// and returns a Toolchain invoking it. The script receives the input and
// output paths as $1 and $2; every invocation appends a line to countFile.
func stubToolchain(t *testing.T, script string) (Toolchain, string) {
	t.Helper()
	dir := t.TempDir()
	countFile := filepath.Join(dir, "invocations")

	path := filepath.Join(dir, "stub.sh")
	full := fmt.Sprintf("#!/bin/sh\necho run >> %q\n%s\n", countFile, script)
	if err := os.WriteFile(path, []byte(full), 0o755); err != nil {
		t.Fatal(err)
	}

	return Toolchain{
		Command: path,
		Args:    []string{PlaceholderInput, PlaceholderOutput},
		Input:   "diagram.mmd",
		Output:  "diagram.svg",
	}, countFile
}

func invocations(t *testing.T, countFile string) int {
	t.Helper()
	data, err := os.ReadFile(countFile)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "run")
}

func newTestRenderer(t *testing.T, tc Toolchain) *Renderer {
	t.Helper()
	r, err := NewRenderer(Config{
		CacheDir:  filepath.Join(t.TempDir(), "site", "images", "diagrams"),
		Route:     "images/diagrams",
		Toolchain: tc,
		Logger:    log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func diagramChunk(attr string, lines ...string) chunk.Chunk {
	return chunk.Chunk{Kind: chunk.Diagram, Attr: attr, Lines: lines}
}

const goodScript = `printf '<svg width="10pt" height="10pt">\n</svg>\n' > "$2"`

func TestRenderMissAndHit(t *testing.T) {
	tc, countFile := stubToolchain(t, goodScript)
	r := newTestRenderer(t, tc)
	ctx := context.Background()
	c := diagramChunk("float:left", "box \"x\"")

	first, hit, err := r.RenderWithCacheInfo(ctx, c)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	if hit {
		t.Error("first render reported a cache hit")
	}
	if first.Digest != Digest(c.Lines) {
		t.Errorf("Digest = %q, want %q", first.Digest, Digest(c.Lines))
	}
	if first.Width != 13 || first.Height != 13 {
		t.Errorf("dimensions = (%d, %d), want (13, 13)", first.Width, first.Height)
	}
	if first.Style != "float:left" {
		t.Errorf("Style = %q, want %q", first.Style, "float:left")
	}

	// Warm cache: no second subprocess invocation, identical result.
	second, hit, err := r.RenderWithCacheInfo(ctx, c)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !hit {
		t.Error("second render reported a cache miss")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ across warm-cache renders (-first +second):\n%s", diff)
	}
	if n := invocations(t, countFile); n != 1 {
		t.Errorf("toolchain invoked %d times, want 1", n)
	}
}

func TestRenderSharedDigestAcrossDocuments(t *testing.T) {
	tc, countFile := stubToolchain(t, goodScript)
	r := newTestRenderer(t, tc)
	ctx := context.Background()

	// Same content under different attributes shares the cache entry; the
	// style never feeds the digest.
	a := diagramChunk("float:left", "box")
	b := diagramChunk("", "box")

	ra, err := r.Render(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := r.Render(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if ra.Digest != rb.Digest {
		t.Errorf("digests differ: %q vs %q", ra.Digest, rb.Digest)
	}
	if ra.Style == rb.Style {
		t.Error("styles should track their originating chunks")
	}
	if n := invocations(t, countFile); n != 1 {
		t.Errorf("toolchain invoked %d times, want 1", n)
	}
}

func TestRenderFailureLeavesNoArtifact(t *testing.T) {
	tc, _ := stubToolchain(t, "exit 3")
	r := newTestRenderer(t, tc)
	c := diagramChunk("", "box")

	_, err := r.Render(context.Background(), c)
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Fatalf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeRenderFailed)
	}

	if _, statErr := os.Stat(r.CachePath(Digest(c.Lines))); !os.IsNotExist(statErr) {
		t.Error("failed render left a file at the cache path")
	}
	assertNoTempFiles(t, r)
}

func TestRenderCleanExitWithoutOutput(t *testing.T) {
	tc, _ := stubToolchain(t, "exit 0")
	r := newTestRenderer(t, tc)

	_, err := r.Render(context.Background(), diagramChunk("", "box"))
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Fatalf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeRenderFailed)
	}
}

func TestRenderToleratesNoisyExit(t *testing.T) {
	// Output produced, nonzero exit: the noisy-toolchain case.
	tc, _ := stubToolchain(t, goodScript+"\nexit 1")
	r := newTestRenderer(t, tc)

	res, err := r.Render(context.Background(), diagramChunk("", "box"))
	if err != nil {
		t.Fatalf("noisy exit should be tolerated, got %v", err)
	}
	if res.Width != 13 || res.Height != 13 {
		t.Errorf("dimensions = (%d, %d), want (13, 13)", res.Width, res.Height)
	}
}

func TestRenderUnparsableHeader(t *testing.T) {
	tc, _ := stubToolchain(t, `printf 'not a header\n' > "$2"`)
	r := newTestRenderer(t, tc)

	_, err := r.Render(context.Background(), diagramChunk("", "box"))
	if !errors.Is(err, errors.ErrCodeUnparsableHeader) {
		t.Fatalf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnparsableHeader)
	}
}

func TestRenderRejectsProse(t *testing.T) {
	tc, _ := stubToolchain(t, goodScript)
	r := newTestRenderer(t, tc)

	_, err := r.Render(context.Background(), chunk.Chunk{Kind: chunk.Prose, Lines: []string{"text"}})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}

func TestRenderConcurrentSameDigest(t *testing.T) {
	// Two simultaneous renders of the same digest must never leave a
	// truncated file at the final cache path; rename publishing makes the
	// race last-writer-wins.
	tc, _ := stubToolchain(t, "sleep 0.05\n"+goodScript)
	r := newTestRenderer(t, tc)
	c := diagramChunk("", "box")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Render(context.Background(), c)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("render %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(r.CachePath(Digest(c.Lines)))
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	want := "<svg width=\"10pt\" height=\"10pt\">\n</svg>\n"
	if string(data) != want {
		t.Errorf("cache file truncated or corrupt: %q", data)
	}
	assertNoTempFiles(t, r)
}

func TestURLAndCachePath(t *testing.T) {
	tc, _ := stubToolchain(t, goodScript)
	r := newTestRenderer(t, tc)

	if got := r.URL("abc123"); got != "/images/diagrams/abc123.svg" {
		t.Errorf("URL = %q", got)
	}
	if got := filepath.Base(r.CachePath("abc123")); got != "abc123.svg" {
		t.Errorf("CachePath base = %q", got)
	}
}

func assertNoTempFiles(t *testing.T, r *Renderer) {
	t.Helper()
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left in cache directory: %s", e.Name())
		}
	}
}

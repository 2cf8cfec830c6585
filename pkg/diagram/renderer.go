// Package diagram implements the content-addressed render cache for embedded
// diagram blocks.
//
// A diagram's body is digested into a 128-bit content hash; the rendered
// vector image lives at <cache-dir>/<digest>.<ext>. Existence of that file
// IS the cache: there is no index or manifest, and a hit never re-invokes
// the external toolchain. On a miss the renderer runs the toolchain in a
// per-render scratch directory and publishes the output with an atomic
// rename, so concurrent builds sharing the cache directory never observe a
// partial file.
package diagram

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/inkwell-build/inkwell/pkg/chunk"
	"github.com/inkwell-build/inkwell/pkg/errors"
	"github.com/inkwell-build/inkwell/pkg/observability"
)

// DefaultExt is the cache file extension used when none is configured.
const DefaultExt = "svg"

// Result is the metadata for one rendered diagram chunk. It is computed per
// chunk per build; the durable artifact is the cache file keyed by Digest.
type Result struct {
	Digest string // content hash, also the cache filename stem
	Width  int    // pixel width from the rendered header
	Height int    // pixel height from the rendered header
	Style  string // attribute string copied verbatim from the chunk
}

// Config configures a Renderer.
type Config struct {
	// CacheDir is the directory holding rendered images, created if absent.
	// The Renderer is the only writer to this directory.
	CacheDir string

	// Route is the site-rooted URL route under which CacheDir is served.
	Route string

	// Ext is the cache file extension (default "svg").
	Ext string

	// Toolchain is the external rendering command (default mermaid-cli).
	Toolchain Toolchain

	// Unit and Scale configure dimension extraction (defaults "pt", 1.35).
	Unit  string
	Scale float64

	// Logger receives render progress; defaults to log.Default().
	Logger *log.Logger
}

// Renderer renders diagram chunks through the external toolchain, caching
// results by content digest. It is safe for concurrent use: scratch
// directories are unique per render and cache publishes are atomic.
type Renderer struct {
	dir    string
	route  string
	ext    string
	tc     Toolchain
	dims   *DimensionExtractor
	logger *log.Logger
}

// NewRenderer creates a renderer, creating the cache directory if needed.
func NewRenderer(cfg Config) (*Renderer, error) {
	if cfg.CacheDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cache directory is required")
	}
	if err := errors.ValidateRoute(cfg.Route); err != nil {
		return nil, err
	}
	if cfg.Ext == "" {
		cfg.Ext = DefaultExt
	}
	if cfg.Toolchain.Command == "" {
		cfg.Toolchain = DefaultToolchain()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create cache directory %s", cfg.CacheDir)
	}
	return &Renderer{
		dir:    cfg.CacheDir,
		route:  cfg.Route,
		ext:    cfg.Ext,
		tc:     cfg.Toolchain,
		dims:   NewDimensionExtractor(cfg.Unit, cfg.Scale),
		logger: cfg.Logger,
	}, nil
}

// CachePath returns the cache file path for a digest.
func (r *Renderer) CachePath(digest string) string {
	return filepath.Join(r.dir, digest+"."+r.ext)
}

// URL returns the site-rooted URL for a digest's rendered image.
func (r *Renderer) URL(digest string) string {
	return "/" + path.Join(r.route, digest+"."+r.ext)
}

// Ext returns the cache file extension.
func (r *Renderer) Ext() string {
	return r.ext
}

// Invalidate removes a digest's cache entry, forcing the next render of that
// content to re-invoke the toolchain. Removing a missing entry is a no-op.
func (r *Renderer) Invalidate(digest string) error {
	err := os.Remove(r.CachePath(digest))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Render renders a diagram chunk, invoking the toolchain only on a cache
// miss. See RenderWithCacheInfo.
func (r *Renderer) Render(ctx context.Context, c chunk.Chunk) (Result, error) {
	res, _, err := r.RenderWithCacheInfo(ctx, c)
	return res, err
}

// RenderWithCacheInfo renders a diagram chunk and reports whether the result
// came from the cache.
//
// On a miss the toolchain failure path leaves no artifact at the cache path,
// so the next build retries; a hit is never re-validated.
func (r *Renderer) RenderWithCacheInfo(ctx context.Context, c chunk.Chunk) (Result, bool, error) {
	if c.Kind != chunk.Diagram {
		return Result{}, false, errors.New(errors.ErrCodeInvalidInput, "cannot render a prose chunk")
	}

	digest := Digest(c.Lines)
	cachePath := r.CachePath(digest)

	hit := false
	if _, err := os.Stat(cachePath); err == nil {
		hit = true
		observability.Cache().OnCacheHit(ctx, digest)
		r.logger.Debug("diagram cache hit", "digest", digest)
	} else {
		observability.Cache().OnCacheMiss(ctx, digest)
		if err := r.generate(ctx, digest, c); err != nil {
			return Result{}, false, err
		}
	}

	width, height, err := r.dims.Extract(cachePath)
	if err != nil {
		return Result{}, false, err
	}

	return Result{
		Digest: digest,
		Width:  width,
		Height: height,
		Style:  c.Attr,
	}, hit, nil
}

// generate runs the toolchain in a fresh scratch directory and publishes the
// produced file at the digest's cache path.
func (r *Renderer) generate(ctx context.Context, digest string, c chunk.Chunk) error {
	start := time.Now()
	observability.Render().OnRenderStart(ctx, digest)

	err := r.generateOnce(ctx, digest, c)

	observability.Render().OnRenderComplete(ctx, digest, time.Since(start), err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err,
			"render diagram %s (style %q)", digest, c.Attr)
	}
	r.logger.Debug("rendered diagram", "digest", digest, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Renderer) generateOnce(ctx context.Context, digest string, c chunk.Chunk) error {
	// Scratch directories are unique per render: two documents rendering
	// concurrently must never share a working area.
	scratch := filepath.Join(os.TempDir(), fmt.Sprintf("inkwell-%.8s-%s", digest, uuid.NewString()))
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	produced, err := r.tc.run(ctx, scratch, c.Lines, r.logger)
	if err != nil {
		return err
	}

	return r.publish(ctx, digest, produced)
}

// publish moves a produced file into the cache via a temp file in the cache
// directory followed by a rename. Rename is atomic on the same filesystem,
// so readers either see no file or a complete one. Two renders racing on the
// same digest are last-writer-wins; content for a digest is identical by
// construction, so either outcome is correct.
func (r *Renderer) publish(ctx context.Context, digest, produced string) error {
	src, err := os.Open(produced)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(r.dir, "."+digest+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}

	cachePath := r.CachePath(digest)
	if err := os.Rename(tmpName, cachePath); err != nil {
		os.Remove(tmpName)
		// A concurrent render may have published the same digest first;
		// that file is equivalent, so losing the race is success.
		if _, statErr := os.Stat(cachePath); statErr == nil {
			observability.Cache().OnCachePublish(ctx, digest, size)
			return nil
		}
		return err
	}

	observability.Cache().OnCachePublish(ctx, digest, size)
	return nil
}

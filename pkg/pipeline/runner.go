package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/inkwell-build/inkwell/pkg/chunk"
	"github.com/inkwell-build/inkwell/pkg/diagram"
	"github.com/inkwell-build/inkwell/pkg/errors"
	"github.com/inkwell-build/inkwell/pkg/observability"
)

// Runner processes documents through the parse, render, substitute stages.
//
// A Runner is stateless apart from its renderer and logger: the same Runner
// may process many documents, including concurrently from multiple
// goroutines. Within one Process call rendering is strictly sequential in
// document order; cross-document safety comes from the renderer's unique
// scratch directories and atomic cache publishes.
type Runner struct {
	renderer *diagram.Renderer
	parser   *chunk.Parser
	refresh  bool
	logger   *log.Logger
}

// NewRunner creates a runner from the given configuration.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Renderer == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "renderer is required")
	}
	parser := cfg.Parser
	if parser == nil {
		p, err := chunk.NewParser(chunk.DefaultMarker)
		if err != nil {
			return nil, err
		}
		parser = p
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		renderer: cfg.Renderer,
		parser:   parser,
		refresh:  cfg.Refresh,
		logger:   logger,
	}, nil
}

// Process rewrites one document, rendering every embedded diagram block and
// substituting an embed fragment for each. Documents without diagram blocks
// come back unchanged. The error paths abort the whole document: nothing in
// this pipeline is silently swallowed.
func (r *Runner) Process(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	chunks, err := r.parser.Parse(chunk.Split(text))
	if err != nil {
		return nil, err
	}

	diagrams := chunk.Diagrams(chunks)
	if len(diagrams) == 0 {
		return &Result{Text: text, Stats: Stats{Duration: time.Since(start)}}, nil
	}

	observability.Render().OnDocumentStart(ctx, len(diagrams))

	result, err := r.renderAll(ctx, chunks, diagrams)

	observability.Render().OnDocumentComplete(ctx, len(diagrams), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	result.Stats.Duration = time.Since(start)

	r.logger.Debug("processed document",
		"diagrams", result.Stats.DiagramCount,
		"cache_hits", result.Stats.CacheHits,
		"duration", result.Stats.Duration.Round(time.Millisecond))
	return result, nil
}

func (r *Runner) renderAll(ctx context.Context, chunks, diagrams []chunk.Chunk) (*Result, error) {
	mediaType := MediaType(r.renderer.Ext())
	stats := Stats{DiagramCount: len(diagrams)}

	fragments := make([]string, 0, len(diagrams))
	for _, d := range diagrams {
		if r.refresh {
			if err := r.renderer.Invalidate(diagram.Digest(d.Lines)); err != nil {
				return nil, err
			}
		}
		res, hit, err := r.renderer.RenderWithCacheInfo(ctx, d)
		if err != nil {
			return nil, err
		}
		if hit {
			stats.CacheHits++
		}
		fragments = append(fragments, Fragment(r.renderer.URL(res.Digest), mediaType, res))
	}

	// Substitution reuses the chunk list from the single parse above, so a
	// count mismatch here can only be a programming fault.
	out, err := chunk.Substitute(chunks, fragments)
	if err != nil {
		return nil, err
	}

	return &Result{Text: chunk.Join(chunk.FlattenAll(out)), Stats: stats}, nil
}

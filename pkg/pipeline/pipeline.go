// Package pipeline composes the chunk parser, render cache, and document
// rewriter into the document-processing entry point used by the CLI and by
// embedding build systems.
//
// # Architecture
//
// Processing one document has three stages:
//
//  1. Parse: split the text into an addressable list of prose and diagram
//     chunks (a single parse; substitution reuses the same list, so the two
//     halves of the rewrite can never disagree about chunk boundaries).
//  2. Render: push each diagram chunk through the content-addressed render
//     cache, sequentially, in document order.
//  3. Substitute: replace each diagram chunk in the parsed list with its
//     embed fragment and rejoin the lines.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(pipeline.Config{Renderer: r})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Process(ctx, text)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Text)
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/inkwell-build/inkwell/pkg/chunk"
	"github.com/inkwell-build/inkwell/pkg/diagram"
)

// Config configures a Runner.
type Config struct {
	// Renderer is the content-addressed render cache. Required.
	Renderer *diagram.Renderer

	// Parser splits documents into chunks. Nil selects the default marker.
	Parser *chunk.Parser

	// Refresh forces re-rendering by invalidating each diagram's cache
	// entry before rendering it.
	Refresh bool

	// Logger receives progress; defaults to log.Default().
	Logger *log.Logger
}

// Result contains the outputs of processing one document.
type Result struct {
	// Text is the rewritten document.
	Text string

	// Stats contains counts and timing for the run.
	Stats Stats
}

// Stats contains document processing statistics.
type Stats struct {
	DiagramCount int
	CacheHits    int
	Duration     time.Duration
}

// Fragment formats one rendered diagram as an embeddable image tag. The
// style string is carried verbatim as inline styling when non-empty.
func Fragment(url, mediaType string, res diagram.Result) string {
	if res.Style != "" {
		return fmt.Sprintf(`<object type=%q data=%q width="%d" height="%d" style=%q></object>`,
			mediaType, url, res.Width, res.Height, res.Style)
	}
	return fmt.Sprintf(`<object type=%q data=%q width="%d" height="%d"></object>`,
		mediaType, url, res.Width, res.Height)
}

// MediaType maps a cache file extension to the embed tag's type attribute.
func MediaType(ext string) string {
	switch ext {
	case "svg":
		return "image/svg+xml"
	default:
		return "image/" + ext
	}
}

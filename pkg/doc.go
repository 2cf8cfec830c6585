// Package pkg provides the core libraries for Inkwell diagram rendering.
//
// # Overview
//
// Inkwell finds delimiter-marked diagram blocks in text documents, renders
// them through an external toolchain, and rewrites the documents to embed
// the cached images. The pkg directory is organized into five main areas:
//
//  1. [chunk] - Document model (split documents into prose and diagram chunks)
//  2. [diagram] - Rendering (content digest, toolchain, cache, dimensions)
//  3. [pipeline] - Orchestration (parse → render → substitute)
//  4. [config] - TOML configuration with environment overrides
//  5. [integrations] - Adapters for external document pipelines (goldmark)
//
// # Architecture
//
// The typical data flow through Inkwell:
//
//	Source document
//	         ↓
//	    [chunk] package (parse into prose and diagram chunks)
//	         ↓
//	    [diagram] package (digest → cache lookup → toolchain → dimensions)
//	         ↓
//	    [pipeline] package (substitute embed fragments, rejoin)
//	         ↓
//	    Rewritten document + populated image cache
//
// # Quick Start
//
// Process a document and embed its diagrams:
//
//	import (
//	    "context"
//	    "github.com/inkwell-build/inkwell/pkg/diagram"
//	    "github.com/inkwell-build/inkwell/pkg/pipeline"
//	)
//
//	renderer, _ := diagram.NewRenderer(diagram.Config{
//	    CacheDir: "public/images/diagrams",
//	    Route:    "images/diagrams",
//	})
//	runner, _ := pipeline.NewRunner(pipeline.Config{Renderer: renderer})
//	res, _ := runner.Process(context.Background(), text)
//	fmt.Print(res.Text)
//
// # Main Packages
//
// [chunk] - Splits a document into alternating prose and diagram chunks on
// a three-character delimiter marker, and substitutes rendered fragments
// back in place. Parsing then flattening reproduces the input byte for
// byte.
//
// [diagram] - The content-addressed render cache. Diagram bodies are
// digested, rendered in isolated scratch directories by an external
// toolchain, published atomically into the cache directory, and measured
// by parsing the rendered header for width and height.
//
// [pipeline] - Ties the two together: parse once, render every diagram
// chunk against the shared cache, substitute embed fragments, rejoin.
//
// [config] - TOML configuration ([config.DefaultFilename]) with defaults
// and environment variable overrides.
//
// [errors] - Structured errors with machine-readable codes, used across
// all packages.
//
// [observability] - Process-wide render and cache hooks with no-op
// defaults.
//
// [integrations/markdown] - A goldmark extension rendering fenced code
// blocks of a chosen language through the same cache.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/diagram/...  # Specific package
//
// [chunk]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/chunk
// [diagram]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/diagram
// [pipeline]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/config
// [errors]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/errors
// [observability]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/observability
// [integrations]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/integrations
// [integrations/markdown]: https://pkg.go.dev/github.com/inkwell-build/inkwell/pkg/integrations/markdown
package pkg

package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inkwell-build/inkwell/pkg/pipeline"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	site    string   // override for the configured site root
	exts    []string // document extensions picked up when walking directories
	noCache bool     // force re-rendering of every diagram
	workers int      // override for the configured worker count
}

// buildCommand creates the build command for processing document trees.
func (c *CLI) buildCommand() *cobra.Command {
	opts := &buildOpts{}

	cmd := &cobra.Command{
		Use:   "build <src>...",
		Short: "Render all documents into the site root",
		Long: `Build processes every named document (directories are walked for
matching extensions) concurrently, writing the rewritten documents into
the site root. All documents share one image cache, so a diagram that
appears in several documents is rendered once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.site, "site", "", "site output directory (overrides config)")
	cmd.Flags().StringSliceVar(&opts.exts, "ext", []string{"md", "markdown", "html"}, "document extensions matched when walking directories")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "re-render every diagram even when cached")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent document builds (overrides config)")

	return cmd
}

// document pairs a source path with its destination under the site root.
type document struct {
	src string
	dst string
}

func (c *CLI) runBuild(cmd *cobra.Command, args []string, opts *buildOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.site != "" {
		cfg.SiteRoot = opts.site
	}
	if opts.workers > 0 {
		cfg.Build.Workers = opts.workers
	}

	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}

	docs, err := collectDocuments(args, cfg.SiteRoot, opts.exts)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		printInfo("No documents found")
		return nil
	}

	ctx := withLogger(cmd.Context(), c.Logger)
	prog := newProgress(c.Logger)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Building %d documents...", len(docs)))
	spinner.Start()

	var diagrams, hits atomic.Int64

	var built atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Build.Workers)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			stats, err := buildDocument(gctx, runner, doc)
			if err != nil {
				return fmt.Errorf("build %s: %w", doc.src, err)
			}
			diagrams.Add(int64(stats.DiagramCount))
			hits.Add(int64(stats.CacheHits))
			spinner.SetMessage(fmt.Sprintf("Building documents... %d/%d", built.Add(1), len(docs)))
			return nil
		})
	}
	err = g.Wait()
	spinner.Stop()
	if err != nil {
		printError("Build failed: %v", err)
		return err
	}
	prog.done(fmt.Sprintf("Built %d documents", len(docs)))

	printSuccess("Built %d documents into %s", len(docs), cfg.SiteRoot)
	total, cached := int(diagrams.Load()), int(hits.Load())
	printStats(total, cached, total > 0 && cached == total)
	return nil
}

// buildDocument processes one source document and writes the result to its
// destination, creating parent directories as needed.
func buildDocument(ctx context.Context, runner *pipeline.Runner, doc document) (pipeline.Stats, error) {
	data, err := os.ReadFile(doc.src)
	if err != nil {
		return pipeline.Stats{}, err
	}
	res, err := runner.Process(ctx, string(data))
	if err != nil {
		return pipeline.Stats{}, err
	}
	if err := os.MkdirAll(filepath.Dir(doc.dst), 0o755); err != nil {
		return pipeline.Stats{}, err
	}
	if err := os.WriteFile(doc.dst, []byte(res.Text), 0o644); err != nil {
		return pipeline.Stats{}, err
	}
	return res.Stats, nil
}

// collectDocuments expands the src arguments into source/destination pairs.
// File arguments map to the site root under their base name; directory
// arguments are walked and mirror their relative layout.
func collectDocuments(srcs []string, siteRoot string, exts []string) ([]document, error) {
	var docs []document
	for _, src := range srcs {
		info, err := os.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", src, err)
		}
		if !info.IsDir() {
			docs = append(docs, document{src: src, dst: filepath.Join(siteRoot, filepath.Base(src))})
			continue
		}
		root := src
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !matchesExt(path, exts) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			docs = append(docs, document{src: path, dst: filepath.Join(siteRoot, rel)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", src, err)
		}
	}
	return docs, nil
}

// matchesExt reports whether path has one of the given extensions.
func matchesExt(path string, exts []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range exts {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

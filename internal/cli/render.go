package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file path ("" writes to stdout)
	noCache bool   // force re-rendering of every diagram in the document
}

// renderCommand creates the render command for processing a single document.
func (c *CLI) renderCommand() *cobra.Command {
	opts := &renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render the diagrams in one document",
		Long: `Render processes a single document: every diagram block is rendered
through the configured toolchain (or found in the image cache) and the
rewritten document is written to stdout or --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the rewritten document to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "re-render every diagram even when cached")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, opts *renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	ctx := withLogger(cmd.Context(), c.Logger)
	prog := newProgress(c.Logger)

	res, err := runner.Process(ctx, string(data))
	if err != nil {
		printError("Render failed: %v", err)
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d diagrams", res.Stats.DiagramCount))

	if opts.output == "" {
		fmt.Print(res.Text)
		return nil
	}
	if err := os.WriteFile(opts.output, []byte(res.Text), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	printSuccess("Rendered %s", path)
	printFile(opts.output)
	printStats(res.Stats.DiagramCount, res.Stats.CacheHits, res.Stats.DiagramCount > 0 && res.Stats.CacheHits == res.Stats.DiagramCount)
	return nil
}

package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/inkwell-build/inkwell/pkg/buildinfo"
	"github.com/inkwell-build/inkwell/pkg/chunk"
	"github.com/inkwell-build/inkwell/pkg/config"
	"github.com/inkwell-build/inkwell/pkg/diagram"
	"github.com/inkwell-build/inkwell/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "inkwell"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is bound to the persistent --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Inkwell renders diagram blocks embedded in text documents",
		Long:         `Inkwell is a CLI tool that finds delimiter-marked diagram blocks in text documents, renders them through an external toolchain, and rewrites the documents to embed the cached images.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", config.DefaultFilename, "path to the configuration file")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the configuration file named by --config, falling back
// to defaults when the file does not exist.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.LoadOrDefault(c.configPath)
}

// newRunner creates a pipeline runner from the loaded configuration.
func (c *CLI) newRunner(cfg config.Config, refresh bool) (*pipeline.Runner, error) {
	renderer, err := diagram.NewRenderer(diagram.Config{
		CacheDir:  cfg.CacheDir(),
		Route:     cfg.ImageRoute,
		Ext:       cfg.Render.Extension,
		Toolchain: cfg.DiagramToolchain(),
		Unit:      cfg.Render.Unit,
		Scale:     cfg.Render.Scale,
		Logger:    c.Logger,
	})
	if err != nil {
		return nil, err
	}
	parser, err := chunk.NewParser(cfg.Marker)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(pipeline.Config{
		Renderer: renderer,
		Parser:   parser,
		Refresh:  refresh,
		Logger:   c.Logger,
	})
}

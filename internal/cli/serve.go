package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	site string // override for the configured site root
	addr string // override for the configured listen address
}

// serveCommand creates the serve command for previewing the built site.
func (c *CLI) serveCommand() *cobra.Command {
	opts := &serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site root over HTTP",
		Long: `Serve starts a static file server over the site root, including the
image cache under the configured image route. The server shuts down
cleanly on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.site, "site", "", "site output directory (overrides config)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.site != "" {
		cfg.SiteRoot = opts.site
	}
	if opts.addr != "" {
		cfg.Serve.Addr = opts.addr
	}

	if _, err := os.Stat(cfg.SiteRoot); err != nil {
		return err
	}

	router := newSiteRouter(cfg.SiteRoot, c.Logger)
	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	printInfo("Serving %s", cfg.SiteRoot)
	printNextStep("Open", "http://localhost"+cfg.Serve.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		printNewline()
		printInfo("Server stopped")
		return nil
	}
}

// newSiteRouter builds the chi router serving the site root as static files.
func newSiteRouter(siteRoot string, logger *log.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Handle("/*", http.FileServer(http.Dir(siteRoot)))
	return r
}

// requestLogger logs each request with method, path, status, and duration.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Millisecond),
			)
		})
	}
}

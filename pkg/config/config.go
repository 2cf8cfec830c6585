// Package config loads the inkwell site configuration.
//
// Configuration lives in an inkwell.toml file at the project root. Every
// field has a default, so a missing file yields a fully working setup; a few
// fields can additionally be overridden through INKWELL_* environment
// variables for CI use.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/inkwell-build/inkwell/pkg/chunk"
	"github.com/inkwell-build/inkwell/pkg/diagram"
	"github.com/inkwell-build/inkwell/pkg/errors"
)

// DefaultFilename is the conventional config file name.
const DefaultFilename = "inkwell.toml"

// Config is the root site configuration.
type Config struct {
	// SiteRoot is the output directory of the rendered site.
	SiteRoot string `toml:"site_root"`

	// ImageRoute is the site-rooted route (slash-separated) under which
	// rendered diagram images are stored and served.
	ImageRoute string `toml:"image_route"`

	// Marker is the 3-character diagram delimiter marker.
	Marker string `toml:"marker"`

	Render    Render    `toml:"render"`
	Toolchain Toolchain `toml:"toolchain"`
	Build     Build     `toml:"build"`
	Serve     Serve     `toml:"serve"`
}

// Render configures dimension extraction and the cache file extension.
type Render struct {
	// Extension is the cache file extension (default "svg").
	Extension string `toml:"extension"`

	// Unit is the dimension unit suffix in the rendered header (default "pt").
	Unit string `toml:"unit"`

	// Scale converts header units to pixels (default 1.35).
	Scale float64 `toml:"scale"`
}

// Toolchain configures the external rendering command.
type Toolchain struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Input   string   `toml:"input"`
	Output  string   `toml:"output"`
	Prefix  string   `toml:"prefix"`
	Suffix  string   `toml:"suffix"`
}

// Build configures document processing.
type Build struct {
	// Workers bounds concurrent document builds (default 4). Rendering
	// within one document is always sequential.
	Workers int `toml:"workers"`
}

// Serve configures the static preview server.
type Serve struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	tc := diagram.DefaultToolchain()
	return Config{
		SiteRoot:   "public",
		ImageRoute: "images/diagrams",
		Marker:     chunk.DefaultMarker,
		Render: Render{
			Extension: diagram.DefaultExt,
			Unit:      diagram.DefaultUnit,
			Scale:     diagram.DefaultScale,
		},
		Toolchain: Toolchain{
			Command: tc.Command,
			Args:    tc.Args,
			Input:   tc.Input,
			Output:  tc.Output,
		},
		Build: Build{Workers: 4},
		Serve: Serve{Addr: ":8080"},
	}
}

// Load reads the config file at path, applies defaults for unset fields,
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return finish(cfg)
}

// LoadOrDefault loads the config file if it exists and falls back to
// Default otherwise. An unreadable or invalid file is still an error.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		path = DefaultFilename
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return finish(Default())
	}
	return Load(path)
}

func finish(cfg Config) (Config, error) {
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("INKWELL_SITE_ROOT"); v != "" {
		cfg.SiteRoot = v
	}
	if v := os.Getenv("INKWELL_IMAGE_ROUTE"); v != "" {
		cfg.ImageRoute = v
	}
	if v := os.Getenv("INKWELL_TOOLCHAIN"); v != "" {
		cfg.Toolchain.Command = v
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.SiteRoot == "" {
		cfg.SiteRoot = def.SiteRoot
	}
	if cfg.ImageRoute == "" {
		cfg.ImageRoute = def.ImageRoute
	}
	if cfg.Marker == "" {
		cfg.Marker = def.Marker
	}
	if cfg.Render.Extension == "" {
		cfg.Render.Extension = def.Render.Extension
	}
	if cfg.Render.Unit == "" {
		cfg.Render.Unit = def.Render.Unit
	}
	if cfg.Render.Scale == 0 {
		cfg.Render.Scale = def.Render.Scale
	}
	if cfg.Toolchain.Command == "" {
		cfg.Toolchain = def.Toolchain
	}
	if cfg.Toolchain.Input == "" {
		cfg.Toolchain.Input = def.Toolchain.Input
	}
	if cfg.Toolchain.Output == "" {
		cfg.Toolchain.Output = def.Toolchain.Output
	}
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = def.Build.Workers
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = def.Serve.Addr
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if err := errors.ValidateMarker(c.Marker); err != nil {
		return err
	}
	if err := errors.ValidateRoute(c.ImageRoute); err != nil {
		return err
	}
	if c.Render.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render scale cannot be negative")
	}
	if strings.ContainsAny(c.Toolchain.Input, "/\\") || strings.ContainsAny(c.Toolchain.Output, "/\\") {
		return errors.New(errors.ErrCodeInvalidConfig, "toolchain input/output must be bare filenames")
	}
	return nil
}

// CacheDir returns the on-disk directory for rendered images:
// the image route joined under the site root.
func (c Config) CacheDir() string {
	return filepath.Join(c.SiteRoot, filepath.FromSlash(c.ImageRoute))
}

// DiagramToolchain converts the config section to the renderer's type.
func (c Config) DiagramToolchain() diagram.Toolchain {
	return diagram.Toolchain{
		Command: c.Toolchain.Command,
		Args:    c.Toolchain.Args,
		Input:   c.Toolchain.Input,
		Output:  c.Toolchain.Output,
		Prefix:  c.Toolchain.Prefix,
		Suffix:  c.Toolchain.Suffix,
	}
}

package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/svgexport/internal/config"
	"github.com/matzehuels/svgexport/pkg/buildinfo"
	"github.com/matzehuels/svgexport/pkg/cache"
	"github.com/matzehuels/svgexport/pkg/pipeline"
	"github.com/matzehuels/svgexport/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "svgexport"
)

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

	// Config is loaded before any subcommand runs.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Verbose reports whether debug logging is enabled.
func (c *CLI) Verbose() bool {
	return c.Logger.GetLevel() <= log.DebugLevel
}

// RootCommand creates the root cobra command with all subcommands registered.
//
// Invoked with arguments that are not a subcommand, the root command behaves
// like export: svgexport in.svg out.png 2x.
func (c *CLI) RootCommand() *cobra.Command {
	var opts exportOpts

	root := &cobra.Command{
		Use:   "svgexport <input.svg> <output> [tokens...]",
		Short: "Export SVG files to PNG and JPEG images",
		Long: `svgexport renders SVG files to PNG or JPEG images.

Output size, quality, crop box and styling are given as free-form tokens
after the output path, for example "2x", "1024:", "50%", "pad" or "0:0:200:200".`,
		Version:      buildinfo.Version,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.datafile == "" {
				return cmd.Help()
			}
			return c.runExport(cmd, args, &opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/svgexport/config.toml)")
	opts.register(root)

	// Register all subcommands
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRenderer creates the rendering engine selected by s.
func (c *CLI) newRenderer(s settings) (render.Renderer, error) {
	return render.New(s.engine, render.Options{
		Timeout:     s.timeout,
		BrowserArgs: c.Config.Browser.Args,
		Install:     s.install,
		Logger:      c.Logger,
	})
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(s settings) (*pipeline.Runner, error) {
	renderer, err := c.newRenderer(s)
	if err != nil {
		return nil, err
	}
	cache, err := c.newCache(s.noCache)
	if err != nil {
		renderer.Close()
		return nil, err
	}
	runner := pipeline.NewRunner(renderer, cache, nil, c.Logger)
	runner.Concurrency = s.concurrency
	runner.TTL = c.Config.CacheTTL.Duration
	return runner, nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/svgexport/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

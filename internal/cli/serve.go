package cli

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/svgexport/internal/server"
	"github.com/matzehuels/svgexport/pkg/cache"
	"github.com/matzehuels/svgexport/pkg/observability"
	"github.com/matzehuels/svgexport/pkg/pipeline"
	"github.com/matzehuels/svgexport/pkg/render"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr         string
	engine       string
	timeout      time.Duration
	cacheEntries int
	maxBody      int64
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export API over HTTP",
		Long: `Serve starts an HTTP server that renders SVGs posted to it.

  POST /v1/export?token=2x&format=jpg   body: SVG, response: image
  POST /v1/resolve                      body: {"natural":{...},"tokens":[...]}
  GET  /healthz
  GET  /version

Rendered images are kept in an in-memory LRU cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", "", "rendering engine: browser (default), raster")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "page load timeout (default 30s)")
	cmd.Flags().IntVar(&opts.cacheEntries, "cache-entries", 0, "number of images kept in memory (default 256)")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", 0, "largest accepted SVG in bytes (default 10MiB)")
	cmd.RegisterFlagCompletionFunc("engine", completeEngines)

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := withLogger(cmd.Context(), c.Logger)
	cfg := c.Config
	flags := cmd.Flags()

	s := settings{
		engine:  cfg.Engine,
		timeout: cfg.Timeout.Duration,
		install: cfg.Browser.Install,
	}
	addr, entries, maxBody := cfg.Server.Addr, cfg.Server.CacheEntries, cfg.Server.MaxBody
	if flags.Changed("engine") {
		s.engine = opts.engine
	}
	if flags.Changed("timeout") {
		s.timeout = opts.timeout
	}
	if flags.Changed("addr") {
		addr = opts.addr
	}
	if flags.Changed("cache-entries") {
		entries = opts.cacheEntries
	}
	if flags.Changed("max-body") {
		maxBody = opts.maxBody
	}

	if c.Verbose() {
		observability.NewLogHooks(c.Logger).Register()
		defer observability.Reset()
	}

	renderer, err := c.newRenderer(s)
	if err != nil {
		return err
	}
	mem, err := cache.NewMemoryCache(entries)
	if err != nil {
		renderer.Close()
		return err
	}
	runner := pipeline.NewRunner(renderer, mem, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "serve:"), c.Logger)
	runner.TTL = cfg.CacheTTL.Duration
	defer runner.Close()

	if b, ok := renderer.(*render.Browser); ok {
		if err := startBrowser(ctx, b, s.install); err != nil {
			return err
		}
	}

	srv := server.New(server.Options{
		Runner:  runner,
		MaxBody: maxBody,
		Logger:  c.Logger,
	})
	return srv.Serve(ctx, addr, func(a net.Addr) {
		printSuccess("Listening on %s", StyleLink.Render(fmt.Sprintf("http://%s", a)))
		printDetail("engine %s, cache %d entries", renderer.Name(), entries)
	})
}

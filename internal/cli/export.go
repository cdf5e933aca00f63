package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/svgexport/internal/config"
	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/job"
	"github.com/matzehuels/svgexport/pkg/observability"
	"github.com/matzehuels/svgexport/pkg/pipeline"
	"github.com/matzehuels/svgexport/pkg/render"
	"github.com/matzehuels/svgexport/pkg/watch"
)

// exportOpts holds the command-line flags shared by export and the root command.
// Zero values defer to the loaded config.
type exportOpts struct {
	datafile    string        // JSON or TOML job list
	engine      string        // rendering engine: browser or raster
	timeout     time.Duration // per-page navigation timeout
	concurrency int           // jobs rendered at once
	noCache     bool          // bypass the artifact cache
	watch       bool          // re-export when inputs change
	install     bool          // download the browser if missing
}

// settings are the effective export options after config and flags are merged.
type settings struct {
	engine      string
	timeout     time.Duration
	concurrency int
	noCache     bool
	install     bool
}

func (o *exportOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.datafile, "file", "f", "", "read jobs from a JSON or TOML datafile")
	cmd.Flags().StringVarP(&o.engine, "engine", "e", "", "rendering engine: browser (default), raster")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "page load timeout (default 30s)")
	cmd.Flags().IntVarP(&o.concurrency, "concurrency", "j", 0, "number of exports to run at once (default 1)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the export cache")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "re-export when input files change")
	cmd.Flags().BoolVar(&o.install, "install", false, "install the headless browser if it is missing")
	registerExportCompletions(cmd)
}

// settings merges flags over cfg. Only flags set on the command line win.
func (o *exportOpts) settings(cmd *cobra.Command, cfg *config.Config) (settings, error) {
	s := settings{
		engine:      cfg.Engine,
		timeout:     cfg.Timeout.Duration,
		concurrency: cfg.Concurrency,
		noCache:     !cfg.Cache,
		install:     cfg.Browser.Install,
	}
	flags := cmd.Flags()
	if flags.Changed("engine") {
		s.engine = o.engine
	}
	if flags.Changed("timeout") {
		s.timeout = o.timeout
	}
	if flags.Changed("concurrency") {
		s.concurrency = o.concurrency
	}
	if flags.Changed("no-cache") {
		s.noCache = o.noCache
	}
	if flags.Changed("install") {
		s.install = o.install
	}

	if s.concurrency < 1 {
		return s, errors.New(errors.ErrCodeInvalidInput, "--concurrency must be at least 1, got %d", s.concurrency)
	}
	if s.timeout < 0 {
		return s, errors.New(errors.ErrCodeInvalidInput, "--timeout must not be negative")
	}
	return s, nil
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <input.svg> <output> [tokens...]",
		Short: "Export SVG files to PNG or JPEG",
		Long: `Export renders an SVG to a PNG or JPEG image.

Tokens after the output path control the result:

  png | jpeg | jpg        output format (default from the output extension)
  <n>%                    JPEG quality, 0-100 (default 100)
  <s>x                    scale factor, e.g. 2x or 0.5x
  <w>: | :<h> | <w>:<h>   output size in pixels
  [<l>:<t>:]<w>:<h>       crop box in SVG units
  pad                     fit instead of fill when both sizes are given
  "<selector> {...}"      CSS to inject before rendering

Inputs may be glob patterns; outputs may use {name} and {dir}.
Use -f to read many jobs from a JSON or TOML datafile.
Use -- before tokens that begin with a dash, such as negative crop offsets.`,
		Example: `  svgexport export logo.svg logo.png 2x
  svgexport export logo.svg logo.jpg 80% 1024:768 pad
  svgexport export "icons/*.svg" "out/{name}.png" 64:64
  svgexport export -f jobs.toml --concurrency 4`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: completeExportArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args, &opts)
		},
	}

	opts.register(cmd)
	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, args []string, opts *exportOpts) error {
	ctx := withLogger(cmd.Context(), c.Logger)

	s, err := opts.settings(cmd, c.Config)
	if err != nil {
		return err
	}
	jobs, err := loadJobs(args, opts.datafile)
	if err != nil {
		return err
	}
	c.Logger.Debug("jobs loaded", "count", len(jobs), "engine", s.engine)

	if c.Verbose() {
		observability.NewLogHooks(c.Logger).Register()
		defer observability.Reset()
	}

	runner, err := c.newRunner(s)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.Progress = cmd.OutOrStdout()

	if b, ok := runner.Renderer.(*render.Browser); ok {
		if err := startBrowser(ctx, b, s.install); err != nil {
			return err
		}
	}

	err = exportJobs(ctx, runner, jobs)
	if !opts.watch {
		return err
	}
	if err != nil {
		c.Logger.Error("export failed", "error", errors.UserMessage(err))
	}
	return watchJobs(ctx, runner, jobs)
}

// loadJobs builds jobs from the positional arguments or a datafile.
func loadJobs(args []string, datafile string) ([]job.Job, error) {
	if datafile == "" {
		return job.FromArgs(args)
	}
	if len(args) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot combine --file with positional arguments")
	}
	return job.ReadDatafile(datafile)
}

// startBrowser launches Chromium behind a spinner, so the first export does
// not appear to hang.
func startBrowser(ctx context.Context, b *render.Browser, install bool) error {
	msg := "Starting browser..."
	if install {
		msg = "Installing and starting browser..."
	}
	spinner := newSpinner(ctx, msg)
	spinner.Start()
	err := b.Start(ctx)
	spinner.Stop()
	return err
}

func exportJobs(ctx context.Context, runner *pipeline.Runner, jobs []job.Job) error {
	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Execute(ctx, jobs)
	if err != nil {
		return err
	}
	if len(jobs) > 1 {
		prog.done(fmt.Sprintf("Exported %d files, %d from cache", result.Stats.Jobs, result.Stats.CacheHits))
	}
	return nil
}

// watchJobs re-runs the jobs whose input changed until ctx is cancelled.
func watchJobs(ctx context.Context, runner *pipeline.Runner, jobs []job.Job) error {
	logger := loggerFromContext(ctx)
	byInput := map[string][]job.Job{}
	var inputs []string
	for _, j := range jobs {
		abs, err := filepath.Abs(j.Input)
		if err != nil {
			return err
		}
		if _, ok := byInput[abs]; !ok {
			inputs = append(inputs, abs)
		}
		byInput[abs] = append(byInput[abs], j)
	}

	w, err := watch.New(inputs, watch.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info("Watching for changes", "files", len(inputs))
	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		var batch []job.Job
		for _, f := range changed {
			batch = append(batch, byInput[f]...)
		}
		if len(batch) == 0 {
			return
		}
		if err := exportJobs(ctx, runner, batch); err != nil && ctx.Err() == nil {
			logger.Error("export failed", "error", errors.UserMessage(err))
		}
	})
	if err != nil {
		return err
	}
	return ctx.Err()
}

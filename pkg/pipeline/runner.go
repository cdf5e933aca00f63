package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/svgexport/pkg/cache"
	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/job"
	"github.com/matzehuels/svgexport/pkg/observability"
	"github.com/matzehuels/svgexport/pkg/render"
)

// Runner executes jobs with a renderer and a cache.
//
// The Runner keeps no per-run state, so one Runner can serve several
// Execute calls at once (watch mode re-runs, concurrent HTTP requests).
type Runner struct {
	Renderer render.Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger

	// Concurrency bounds the number of jobs rendered at once.
	// Values below 1 mean DefaultConcurrency.
	Concurrency int

	// TTL is passed to Cache.Set. Zero means DefaultTTL.
	TTL time.Duration

	// Progress receives one canonical line per finished job. May be nil.
	Progress io.Writer

	progressMu sync.Mutex
}

// NewRunner creates a runner for renderer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(renderer render.Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Renderer:    renderer,
		Cache:       c,
		Keyer:       keyer,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// Execute runs jobs and returns their results in input order. The first
// failure cancels the jobs that have not started; the returned Result then
// holds the jobs that finished.
func (r *Runner) Execute(ctx context.Context, jobs []job.Job) (*Result, error) {
	start := time.Now()
	results := make([]JobResult, len(jobs))
	done := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Concurrency, 1))
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.Run(gctx, j)
			if err != nil {
				return err
			}
			results[i] = res
			done[i] = true
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	result := &Result{}
	for i, res := range results {
		if !done[i] {
			continue
		}
		result.Jobs = append(result.Jobs, res)
		result.Stats.Bytes += int64(res.Bytes)
		if res.Cached {
			result.Stats.CacheHits++
		} else {
			result.Stats.Rendered++
		}
	}
	result.Stats.Jobs = len(result.Jobs)
	result.Stats.Elapsed = time.Since(start)

	r.Logger.Debug("pipeline finished",
		"jobs", result.Stats.Jobs,
		"rendered", result.Stats.Rendered,
		"cached", result.Stats.CacheHits,
		"elapsed", result.Stats.Elapsed)
	return result, err
}

// Run executes a single job: it consults the cache, renders on a miss,
// writes the output file and the progress line.
func (r *Runner) Run(ctx context.Context, j job.Job) (res JobResult, err error) {
	start := time.Now()
	observability.Export().OnExportStart(ctx, j.Input, j.Output)
	defer func() {
		observability.Export().OnExportComplete(ctx, j.Input, j.Output, res.Spec, time.Since(start), err)
	}()

	logger := r.Logger.With("job", shortID(j.ID))

	src, err := os.ReadFile(j.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return JobResult{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "unable to load file: %s", j.Input)
		}
		return JobResult{}, errors.Wrap(errors.ErrCodeNavigation, err, "unable to load file: %s", j.Input)
	}

	entry, hit, err := r.Render(ctx, j, src)
	if err != nil {
		return JobResult{}, err
	}

	if len(entry.Ignored) > 0 {
		logger.Debug("ignored tokens", "tokens", entry.Ignored)
	}

	if err := writeOutput(j.Output, entry.Data); err != nil {
		return JobResult{}, err
	}
	r.progress(j, entry.Spec)

	res = JobResult{
		Job:      j,
		Spec:     entry.Spec,
		Natural:  entry.Natural,
		Ignored:  entry.Ignored,
		Cached:   hit,
		Bytes:    len(entry.Data),
		Duration: time.Since(start),
	}
	logger.Debug("exported", "output", j.Output, "cached", hit, "elapsed", res.Duration)
	return res, nil
}

// Render returns the artifact for j from the cache, or renders it on a miss
// and stores the result. src must be the contents of j.Input. No output file
// is written; hit reports whether the cache served the artifact.
func (r *Runner) Render(ctx context.Context, j job.Job, src []byte) (art Artifact, hit bool, err error) {
	key := r.Keyer.ArtifactKey(cache.Hash(src), cache.ArtifactKeyOpts{
		Tokens: j.Tokens.Tokens(),
		Ext:    strings.ToLower(filepath.Ext(j.Output)),
		Engine: r.Renderer.Name(),
	})

	if art, hit = r.lookup(ctx, key); hit {
		return art, true, nil
	}
	out, err := r.Renderer.Render(ctx, j)
	if err != nil {
		return Artifact{}, false, err
	}
	art = Artifact{
		Spec:    out.Spec.String(),
		Natural: out.Natural,
		Ignored: out.Ignored.Tokens(),
		Data:    out.Data,
	}
	r.store(ctx, key, art)
	return art, false, nil
}

// Close releases the renderer and the cache.
func (r *Runner) Close() error {
	var errs []error
	if r.Renderer != nil {
		errs = append(errs, r.Renderer.Close())
	}
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key string) (Artifact, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
		return Artifact{}, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return Artifact{}, false
	}
	var entry Artifact
	if err := json.Unmarshal(data, &entry); err != nil || entry.Spec == "" {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return Artifact{}, false
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	return entry, true
}

func (r *Runner) store(ctx context.Context, key string, entry Artifact) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	ttl := r.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "artifact", len(data))
}

func (r *Runner) progress(j job.Job, spec string) {
	if r.Progress == nil {
		return
	}
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	fmt.Fprintf(r.Progress, "%s %s %s\n", j.Input, j.Output, spec)
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Package pipeline runs export jobs: read the SVG, render it, write the image.
//
// The pipeline is shared by the CLI (single export, datafiles, watch mode) and
// the HTTP server. It adds what the renderers leave out: the artifact cache,
// output files, progress lines and parallelism.
//
// # Usage
//
//	renderer, _ := render.New("browser", render.Options{})
//	runner := pipeline.NewRunner(renderer, cache, nil, logger)
//	runner.Progress = os.Stdout
//	result, err := runner.Execute(ctx, jobs)
//
// For every finished job one line is written to Progress:
//
//	<input> <output> <format> <quality>% <scale>x <left>:<top>:<width>:<height> <outWidth>:<outHeight>
package pipeline

import (
	"time"

	"github.com/matzehuels/svgexport/pkg/inspect"
	"github.com/matzehuels/svgexport/pkg/job"
)

const (
	// DefaultConcurrency runs jobs one after another, in order.
	DefaultConcurrency = 1

	// DefaultTTL is how long a rendered export stays in the cache.
	DefaultTTL = 7 * 24 * time.Hour
)

// Result contains the outputs of a pipeline run.
type Result struct {
	// Jobs holds one entry per finished job, in input order.
	Jobs []JobResult

	// Stats contains timing and size information.
	Stats Stats
}

// JobResult describes one finished export.
type JobResult struct {
	Job job.Job

	// Spec is the canonical spec line.
	Spec string

	Natural inspect.Natural

	// Ignored lists tokens that matched no option.
	Ignored []string

	// Cached is true when the image came from the cache.
	Cached bool

	Bytes    int
	Duration time.Duration
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Jobs      int
	Rendered  int
	CacheHits int
	Bytes     int64
	Elapsed   time.Duration
}

// Artifact is a rendered export as stored under its artifact key. The spec
// line is kept next to the bytes so a cache hit prints the same progress line.
type Artifact struct {
	Spec    string          `json:"spec"`
	Natural inspect.Natural `json:"natural"`
	Ignored []string        `json:"ignored,omitempty"`
	Data    []byte          `json:"data"`
}

// Package pkg provides the libraries behind svgexport, an SVG to PNG/JPEG exporter.
//
// # Overview
//
// An export is described by an input SVG, an output path and a list of
// free-form tokens ("2x", "1024:", "80%", "pad", "0:0:100:100"). The pkg
// directory is organized along the path a job takes:
//
//  1. [job] - Jobs from command-line arguments, globs and datafiles
//  2. [token], [exportspec], [geometry] - Token grammar and sizing
//  3. [inspect] - The SVG's natural box from width, height and viewBox
//  4. [render] - Engines: headless Chromium (playwright) and pure Go (oksvg)
//  5. [pipeline] - Caching, output files, progress lines, parallelism
//
// # Data Flow
//
//	svgexport in.svg out.png 2x
//	         ↓
//	    job.FromArgs          → Job{Input, Output, Tokens}
//	         ↓
//	    pipeline.Runner.Run   → cache lookup by SVG hash + tokens
//	         ↓
//	    render.Renderer       → natural box, exportspec.Resolve, screenshot
//	         ↓
//	    out.png + "in.svg out.png png 100% 2x 0:0:10:10 20:20"
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/svgexport/pkg/job"
//	    "github.com/matzehuels/svgexport/pkg/pipeline"
//	    "github.com/matzehuels/svgexport/pkg/render"
//	)
//
//	jobs, _ := job.FromArgs([]string{"in.svg", "out.png", "2x"})
//	renderer, _ := render.New(render.EngineRaster, render.Options{})
//	runner := pipeline.NewRunner(renderer, nil, nil, nil)
//	defer runner.Close()
//	result, err := runner.Execute(ctx, jobs)
//
// # Supporting Packages
//
// [cache] stores rendered exports on disk or in an in-memory LRU.
// [errors] defines the error codes shared by the CLI and the HTTP API.
// [observability] exposes hooks for export, cache and HTTP events.
// [watch] re-runs exports when input files change.
// [buildinfo] carries the version set at link time.
//
// [job]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/job
// [token]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/token
// [exportspec]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/exportspec
// [geometry]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/geometry
// [inspect]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/inspect
// [render]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/observability
// [watch]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/watch
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/svgexport/pkg/buildinfo
package pkg

// Package render rasterizes export jobs.
//
// A [Renderer] takes a job (input SVG path, output path, tokens), determines
// the SVG's natural box, resolves the tokens into an [exportspec.Spec] and
// returns the encoded PNG or JPEG bytes. It does not write the output file;
// that is the pipeline's job.
//
// Two engines are available:
//
//   - "browser" drives headless Chromium through playwright. It supports
//     every SVG feature the browser does, CSS injection, and content-sized
//     documents (natural box from getBBox).
//   - "raster" is a pure Go rasterizer (oksvg). It needs no browser but only
//     handles the SVG subset oksvg understands, and ignores CSS tokens.
package render

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/exportspec"
	"github.com/matzehuels/svgexport/pkg/inspect"
	"github.com/matzehuels/svgexport/pkg/job"
	"github.com/matzehuels/svgexport/pkg/token"
)

// Engine names accepted by [New].
const (
	EngineBrowser = "browser"
	EngineRaster  = "raster"
)

// Engines lists the available engine names.
var Engines = []string{EngineBrowser, EngineRaster}

// Renderer turns one job into image bytes.
// Implementations are safe for concurrent use.
type Renderer interface {
	// Name returns the engine name.
	Name() string
	// Render rasterizes j.Input according to j.Tokens.
	Render(ctx context.Context, j job.Job) (Output, error)
	// Close releases the engine's resources.
	Close() error
}

// Output is the result of rendering one job.
type Output struct {
	Spec    exportspec.Spec
	Natural inspect.Natural
	// Ignored holds the tokens that matched no option.
	Ignored token.List
	Data    []byte
}

// Options configures an engine.
type Options struct {
	// Timeout bounds page navigation in the browser engine. Zero means the
	// playwright default (30s).
	Timeout time.Duration

	// BrowserArgs are appended to the default Chromium flags.
	BrowserArgs []string

	// Install downloads the playwright driver and Chromium if missing.
	Install bool

	Logger *log.Logger
}

// New returns the engine called name.
func New(name string, opts Options) (Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	switch name {
	case EngineBrowser, "":
		return NewBrowser(opts), nil
	case EngineRaster:
		return NewRaster(opts), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidEngine, "unknown engine %q (want one of %v)", name, Engines)
	}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if err == context.DeadlineExceeded {
			return errors.Wrap(errors.ErrCodeTimeout, err, "render")
		}
		return err
	}
	return nil
}

package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/exportspec"
	"github.com/matzehuels/svgexport/pkg/inspect"
	"github.com/matzehuels/svgexport/pkg/job"
)

// Raster renders jobs with oksvg. The natural box comes from the root
// element's attributes only, so content-sized documents are rejected.
type Raster struct {
	logger *log.Logger

	// warnOnce keeps the CSS warning to one line per process.
	warnOnce sync.Once
}

// NewRaster returns the pure Go engine.
func NewRaster(opts Options) *Raster {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Raster{logger: logger.WithPrefix(EngineRaster)}
}

// Name returns "raster".
func (r *Raster) Name() string { return EngineRaster }

// Render decodes j.Input and draws it into an image of the resolved size.
func (r *Raster) Render(ctx context.Context, j job.Job) (Output, error) {
	if err := checkContext(ctx); err != nil {
		return Output{}, err
	}
	src, err := os.ReadFile(j.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return Output{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "unable to load file: %s", j.Input)
		}
		return Output{}, errors.Wrap(errors.ErrCodeNavigation, err, "unable to load file: %s", j.Input)
	}
	return r.RenderBytes(ctx, src, j)
}

// RenderBytes is Render for an SVG already in memory. j.Input is only used
// in messages.
func (r *Raster) RenderBytes(ctx context.Context, src []byte, j job.Job) (Output, error) {
	natural, err := inspect.Static(bytes.NewReader(src))
	if err != nil {
		return Output{}, err
	}
	spec, ignored, err := exportspec.Resolve(natural.Box, j.Tokens, j.Output)
	if err != nil {
		return Output{}, err
	}
	if spec.CSS() != "" {
		r.warnOnce.Do(func() {
			r.logger.Warn("css tokens are not supported by this engine and will be ignored")
		})
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(src), oksvg.WarnErrorMode)
	if err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse %s", j.Input)
	}
	if err := checkContext(ctx); err != nil {
		return Output{}, err
	}

	data, err := rasterize(icon, natural, spec)
	if err != nil {
		return Output{}, err
	}
	return Output{Spec: spec, Natural: natural, Ignored: ignored, Data: data}, nil
}

func rasterize(icon *oksvg.SvgIcon, natural inspect.Natural, spec exportspec.Spec) ([]byte, error) {
	w, h := spec.Pixels()
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeDegenerateGeometry, "output rounds to %dx%d pixels", w, h)
	}

	clipX, clipY := spec.Clip(natural.Box)
	fit(icon, -clipX, -clipY, natural.Box.Width*spec.Scale(), natural.Box.Height*spec.Scale())

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if spec.Format() == exportspec.FormatJPEG {
		draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	}
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	var buf bytes.Buffer
	var err error
	if spec.Format() == exportspec.FormatJPEG {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: max(spec.Quality(), 1)})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encode %s", spec.Format())
	}
	return buf.Bytes(), nil
}

// fit places the icon's viewBox inside the rectangle (x, y, w, h), scaled
// uniformly and centered (preserveAspectRatio="xMidYMid meet"). oksvg falls
// back to width/height when there is no viewBox.
func fit(icon *oksvg.SvgIcon, x, y, w, h float64) {
	vb := icon.ViewBox
	s := min(w/vb.W, h/vb.H)
	dx := x + (w-vb.W*s)/2
	dy := y + (h-vb.H*s)/2
	icon.Transform = rasterx.Identity.Translate(dx, dy).Scale(s, s).Translate(-vb.X, -vb.Y)
}

// Close does nothing for the raster engine.
func (r *Raster) Close() error { return nil }

// Ensure Raster implements Renderer.
var _ Renderer = (*Raster)(nil)

// Package geometry computes the scale and output size of an SVG export.
//
// Given the box to render (the SVG's natural box, or an explicit crop box) and
// a partially specified [Target], [Resize] picks the single scale factor that
// satisfies the request:
//
//   - nothing requested: scale 1, output = box size
//   - scale only: output = box size × scale
//   - width only: scale = width / box width, height follows the aspect ratio
//   - height only: scale = height / box height, width follows the aspect ratio
//   - width and height: the output is exactly width × height; [ModeCrop] scales
//     to fill it (max ratio), [ModePad] scales to fit inside it (min ratio)
//
// The returned Left/Top is the crop origin in scaled units. When both
// dimensions were requested the image is centered: a positive offset crops the
// overflow evenly, a negative one letterboxes.
package geometry

import (
	"fmt"
	"math"

	"github.com/matzehuels/svgexport/pkg/errors"
)

// Box is a rectangle in SVG user units.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// String formats the box as "left:top:width:height".
func (b Box) String() string {
	return fmt.Sprintf("%g:%g:%g:%g", b.Left, b.Top, b.Width, b.Height)
}

// Validate reports whether the box can be scaled: both dimensions must be
// finite and positive, and the origin finite.
func (b Box) Validate() error {
	if !finite(b.Left) || !finite(b.Top) {
		return errors.New(errors.ErrCodeDegenerateGeometry, "box origin is not finite: %s", b)
	}
	if !finite(b.Width) || !finite(b.Height) || b.Width <= 0 || b.Height <= 0 {
		return errors.New(errors.ErrCodeDegenerateGeometry, "box has no area: %s", b)
	}
	return nil
}

// Mode is the aspect-ratio policy applied when both output dimensions are set.
type Mode string

const (
	// ModeCrop scales to fill the requested box; the overflow is cropped.
	ModeCrop Mode = "crop"
	// ModePad scales to fit inside the requested box, leaving empty margins.
	ModePad Mode = "pad"
)

// Target is the sizing part of an output intent. At most one of Scale, Width,
// Height or Width+Height is expected to be set; nil means "not requested".
// When several are set, Width/Height take precedence over Scale.
type Target struct {
	Scale  *float64
	Width  *float64
	Height *float64
	Mode   Mode
}

// Result is a resolved transform.
type Result struct {
	Scale  float64 `json:"scale"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

// Pixels returns the output size rounded to whole pixels.
func (r Result) Pixels() (int, int) {
	return int(math.Round(r.Width)), int(math.Round(r.Height))
}

// Resize resolves t against box. It fails with DEGENERATE_GEOMETRY when the
// box has no area or the resulting scale is not a finite positive number.
func Resize(box Box, t Target) (Result, error) {
	if err := box.Validate(); err != nil {
		return Result{}, err
	}

	scale := 1.0
	width, height := box.Width, box.Height

	switch {
	case t.Width != nil && t.Height != nil:
		sx, sy := *t.Width/box.Width, *t.Height/box.Height
		if t.Mode == ModePad {
			scale = math.Min(sx, sy)
		} else {
			scale = math.Max(sx, sy)
		}
		width, height = *t.Width, *t.Height
	case t.Width != nil:
		scale = *t.Width / box.Width
		width, height = *t.Width, box.Height*scale
	case t.Height != nil:
		scale = *t.Height / box.Height
		width, height = box.Width*scale, *t.Height
	case t.Scale != nil:
		scale = *t.Scale
		width, height = box.Width*scale, box.Height*scale
	}

	if !finite(scale) || scale <= 0 {
		return Result{}, errors.New(errors.ErrCodeDegenerateGeometry, "scale %v is not a positive number", scale)
	}

	return Result{
		Scale:  scale,
		Width:  width,
		Height: height,
		Left:   box.Left*scale + (box.Width*scale-width)/2,
		Top:    box.Top*scale + (box.Height*scale-height)/2,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

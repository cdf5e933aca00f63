package exportspec

import (
	"github.com/matzehuels/svgexport/pkg/geometry"
)

// Format is a raster encoding the pipeline can produce.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// DefaultQuality is the JPEG quality used when no "<n>%" token is given.
const DefaultQuality = 100

// Intent is the output intent accumulated while tokens are resolved.
// Values are immutable: every With method returns an updated copy.
type Intent struct {
	format  Format
	quality int
	scale   *float64
	width   *float64
	height  *float64
	crop    *geometry.Box
	mode    geometry.Mode
	css     string
}

// NewIntent returns the default intent: PNG, quality 100, crop mode.
func NewIntent() Intent {
	return Intent{
		format:  FormatPNG,
		quality: DefaultQuality,
		mode:    geometry.ModeCrop,
	}
}

// WithQuality sets the JPEG quality, clamped to [0, 100].
func (i Intent) WithQuality(q int) Intent {
	i.quality = min(max(q, 0), 100)
	return i
}

// WithFormat sets the output format.
func (i Intent) WithFormat(f Format) Intent {
	i.format = f
	return i
}

// WithScale requests an explicit scale factor.
func (i Intent) WithScale(s float64) Intent {
	i.scale = &s
	return i
}

// WithWidth requests an explicit output width in pixels.
func (i Intent) WithWidth(w float64) Intent {
	i.width = &w
	return i
}

// WithHeight requests an explicit output height in pixels.
func (i Intent) WithHeight(h float64) Intent {
	i.height = &h
	return i
}

// WithCrop replaces the natural box with an explicit crop box.
func (i Intent) WithCrop(b geometry.Box) Intent {
	i.crop = &b
	return i
}

// WithMode sets the aspect-ratio policy.
func (i Intent) WithMode(m geometry.Mode) Intent {
	i.mode = m
	return i
}

// WithCSS sets the stylesheet injected before rendering.
func (i Intent) WithCSS(css string) Intent {
	i.css = css
	return i
}

// Format returns the requested output format.
func (i Intent) Format() Format { return i.format }

// Quality returns the requested JPEG quality.
func (i Intent) Quality() int { return i.quality }

// Mode returns the aspect-ratio policy.
func (i Intent) Mode() geometry.Mode { return i.mode }

// CSS returns the stylesheet to inject, if any.
func (i Intent) CSS() string { return i.css }

// Crop returns the explicit crop box and whether one was requested.
func (i Intent) Crop() (geometry.Box, bool) {
	if i.crop == nil {
		return geometry.Box{}, false
	}
	return *i.crop, true
}

// Target returns the sizing request handed to [geometry.Resize].
func (i Intent) Target() geometry.Target {
	return geometry.Target{
		Scale:  clone(i.scale),
		Width:  clone(i.width),
		Height: clone(i.height),
		Mode:   i.mode,
	}
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

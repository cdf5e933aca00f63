package exportspec

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/geometry"
)

// Spec is a resolved export: everything the rendering pipeline needs to turn
// one SVG into one raster image. The zero value is not meaningful; a Spec is
// produced by [Resolve] or [Build] and never modified afterwards.
type Spec struct {
	format  Format
	quality int
	mode    geometry.Mode
	css     string
	box     geometry.Box
	result  geometry.Result
}

// Format returns the output encoding.
func (s Spec) Format() Format { return s.format }

// Quality returns the JPEG quality in [0, 100].
func (s Spec) Quality() int { return s.quality }

// Mode returns the aspect-ratio policy that produced the scale.
func (s Spec) Mode() geometry.Mode { return s.mode }

// CSS returns the stylesheet to inject before rendering, or "".
func (s Spec) CSS() string { return s.css }

// Box returns the rendered region in SVG units: the crop box if one was
// requested, the natural box otherwise.
func (s Spec) Box() geometry.Box { return s.box }

// Scale returns the factor from SVG units to output pixels.
func (s Spec) Scale() float64 { return s.result.Scale }

// Width returns the output width in pixels (possibly fractional).
func (s Spec) Width() float64 { return s.result.Width }

// Height returns the output height in pixels (possibly fractional).
func (s Spec) Height() float64 { return s.result.Height }

// Left returns the crop origin's x coordinate in scaled units.
func (s Spec) Left() float64 { return s.result.Left }

// Top returns the crop origin's y coordinate in scaled units.
func (s Spec) Top() float64 { return s.result.Top }

// Pixels returns the output size rounded to whole pixels.
func (s Spec) Pixels() (int, int) { return s.result.Pixels() }

// Clip returns the pixel offset of the output rectangle relative to the SVG
// drawn at natural size × scale with its natural origin at (0, 0). Negative
// values mean the drawing starts inside the output (padding).
func (s Spec) Clip(natural geometry.Box) (x, y float64) {
	return s.result.Left - natural.Left*s.result.Scale,
		s.result.Top - natural.Top*s.result.Scale
}

// String returns the canonical one-line description:
//
//	<format> <quality>% <scale>x <left>:<top>:<width>:<height> <outWidth>:<outHeight>
//
// The middle group is in SVG units (divided by scale). Every number is
// truncated toward zero to two decimals, so the line is stable for a given
// Spec and suitable for golden files.
func (s Spec) String() string {
	sc := s.result.Scale
	var b strings.Builder
	b.WriteString(string(s.format))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(s.quality))
	b.WriteString("% ")
	b.WriteString(formatNumber(sc))
	b.WriteString("x ")
	b.WriteString(joinNumbers(s.result.Left/sc, s.result.Top/sc, s.result.Width/sc, s.result.Height/sc))
	b.WriteByte(' ')
	b.WriteString(joinNumbers(s.result.Width, s.result.Height))
	return b.String()
}

// MarshalJSON encodes the spec with its canonical line.
func (s Spec) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Format  Format        `json:"format"`
		Quality int           `json:"quality"`
		Mode    geometry.Mode `json:"mode"`
		CSS     string        `json:"css,omitempty"`
		Box     geometry.Box  `json:"box"`
		Scale   float64       `json:"scale"`
		Width   float64       `json:"width"`
		Height  float64       `json:"height"`
		Left    float64       `json:"left"`
		Top     float64       `json:"top"`
		Line    string        `json:"line"`
	}{
		Format:  s.format,
		Quality: s.quality,
		Mode:    s.mode,
		CSS:     s.css,
		Box:     s.box,
		Scale:   s.result.Scale,
		Width:   s.result.Width,
		Height:  s.result.Height,
		Left:    s.result.Left,
		Top:     s.result.Top,
		Line:    s.String(),
	})
}

// Summary is a canonical line read back by [ParseLine].
// Box is in SVG units; Width/Height are the output pixels.
type Summary struct {
	Format  Format
	Quality int
	Scale   float64
	Box     geometry.Box
	Width   float64
	Height  float64
}

// ParseLine parses the output of [Spec.String].
func ParseLine(line string) (Summary, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Summary{}, errors.New(errors.ErrCodeInvalidInput, "spec line has %d fields, want 5: %q", len(fields), line)
	}

	var sum Summary
	switch Format(fields[0]) {
	case FormatPNG, FormatJPEG:
		sum.Format = Format(fields[0])
	default:
		return Summary{}, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", fields[0])
	}

	q, err := strconv.Atoi(strings.TrimSuffix(fields[1], "%"))
	if err != nil || !strings.HasSuffix(fields[1], "%") {
		return Summary{}, errors.New(errors.ErrCodeInvalidInput, "bad quality %q", fields[1])
	}
	sum.Quality = q

	if !strings.HasSuffix(fields[2], "x") {
		return Summary{}, errors.New(errors.ErrCodeInvalidInput, "bad scale %q", fields[2])
	}
	if sum.Scale, err = strconv.ParseFloat(strings.TrimSuffix(fields[2], "x"), 64); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad scale %q", fields[2])
	}

	box, err := splitNumbers(fields[3], 4)
	if err != nil {
		return Summary{}, err
	}
	sum.Box = geometry.Box{Left: box[0], Top: box[1], Width: box[2], Height: box[3]}

	size, err := splitNumbers(fields[4], 2)
	if err != nil {
		return Summary{}, err
	}
	sum.Width, sum.Height = size[0], size[1]
	return sum, nil
}

// formatNumber truncates v toward zero to two decimals and prints the
// shortest representation ("2", "2.5", "0.33").
func formatNumber(v float64) string {
	t := math.Trunc(v*100) / 100
	if t == 0 {
		t = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(t, 'f', -1, 64)
}

func joinNumbers(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatNumber(v)
	}
	return strings.Join(parts, ":")
}

func splitNumbers(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != n {
		return nil, errors.New(errors.ErrCodeInvalidInput, "want %d numbers in %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

package exportspec

import (
	"regexp"
	"strconv"

	"github.com/matzehuels/svgexport/pkg/geometry"
	"github.com/matzehuels/svgexport/pkg/token"
)

// Token grammar. All patterns are case-insensitive.
var (
	qualityPattern = regexp.MustCompile(`(?i)^(\d+)%$`)
	formatPattern  = regexp.MustCompile(`(?i)^(jpeg|jpg)$`)
	extPattern     = regexp.MustCompile(`(?i)\.(jpeg|jpg)$`)

	// Sizing patterns, tried in this order until one matches.
	scalePattern  = regexp.MustCompile(`(?i)^(\d+(?:\.\d*)?|\.\d+)x$`)
	widthPattern  = regexp.MustCompile(`^(\d+):$`)
	heightPattern = regexp.MustCompile(`^:(\d+)$`)
	sizePattern   = regexp.MustCompile(`^(\d+):(\d+)$`)

	cropPattern = regexp.MustCompile(`^((-?\d+):(-?\d+):)?(\d+):(\d+)$`)
	modePattern = regexp.MustCompile(`(?i)^(pad|meet)$`)
	cssPattern  = regexp.MustCompile(`^([^{}]+\s*\{[^{}]*\}\s*)+$`)
)

// Resolve turns a job's tokens into a resolved export spec.
//
// natural is the SVG's intrinsic box, outputFile the destination used to infer
// the format when no format token is present. The tokens that matched none of
// the grammar's patterns are returned unchanged; they are not an error.
func Resolve(natural geometry.Box, tokens token.List, outputFile string) (Spec, token.List, error) {
	intent, rest := ParseIntent(tokens, outputFile)
	spec, err := Build(natural, intent)
	if err != nil {
		return Spec{}, rest, err
	}
	return spec, rest, nil
}

// ParseIntent extracts an [Intent] from tokens in the fixed resolution order:
// quality, format, output sizing, crop box, aspect policy, CSS.
// It returns the intent and the tokens left over.
func ParseIntent(tokens token.List, outputFile string) (Intent, token.List) {
	intent := NewIntent()
	for _, step := range steps {
		intent, tokens = step(intent, tokens, outputFile)
	}
	return intent, tokens
}

// Build resolves intent against the natural box. An explicit crop box in the
// intent replaces natural as the region to render.
func Build(natural geometry.Box, intent Intent) (Spec, error) {
	box := natural
	if crop, ok := intent.Crop(); ok {
		box = crop
	}
	res, err := geometry.Resize(box, intent.Target())
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		format:  intent.Format(),
		quality: intent.Quality(),
		mode:    intent.Mode(),
		css:     intent.CSS(),
		box:     box,
		result:  res,
	}, nil
}

// step is one stage of token resolution. It consumes at most the tokens its
// pattern claims and returns the updated intent with the remaining tokens.
type step func(Intent, token.List, string) (Intent, token.List)

var steps = []step{
	resolveQuality,
	resolveFormat,
	resolveSizing,
	resolveCrop,
	resolveMode,
	resolveCSS,
}

func resolveQuality(in Intent, tokens token.List, _ string) (Intent, token.List) {
	m, rest, ok := tokens.TakeFirst(qualityPattern)
	if !ok {
		return in, tokens
	}
	q, ok := integer(m.Group(1))
	if !ok {
		return in, tokens
	}
	return in.WithQuality(q), rest
}

func resolveFormat(in Intent, tokens token.List, outputFile string) (Intent, token.List) {
	if _, rest, ok := tokens.TakeFirst(formatPattern); ok {
		return in.WithFormat(FormatJPEG), rest
	}
	if outputFile != "" && extPattern.MatchString(outputFile) {
		return in.WithFormat(FormatJPEG), tokens
	}
	return in, tokens
}

// resolveSizing tries scale, width, height and width:height in that order,
// each preferring the rightmost token, and stops at the first that matches.
func resolveSizing(in Intent, tokens token.List, _ string) (Intent, token.List) {
	if m, rest, ok := tokens.TakeLast(scalePattern); ok {
		if s, ok := number(m.Group(1)); ok {
			return in.WithScale(s), rest
		}
	}
	if m, rest, ok := tokens.TakeLast(widthPattern); ok {
		if w, ok := number(m.Group(1)); ok {
			return in.WithWidth(w), rest
		}
	}
	if m, rest, ok := tokens.TakeLast(heightPattern); ok {
		if h, ok := number(m.Group(1)); ok {
			return in.WithHeight(h), rest
		}
	}
	if m, rest, ok := tokens.TakeLast(sizePattern); ok {
		w, okW := number(m.Group(1))
		h, okH := number(m.Group(2))
		if okW && okH {
			return in.WithWidth(w).WithHeight(h), rest
		}
	}
	return in, tokens
}

func resolveCrop(in Intent, tokens token.List, _ string) (Intent, token.List) {
	m, rest, ok := tokens.TakeLast(cropPattern)
	if !ok {
		return in, tokens
	}
	var box geometry.Box
	var okL, okT, okW, okH bool
	box.Left, okL = numberOrZero(m.Group(2))
	box.Top, okT = numberOrZero(m.Group(3))
	box.Width, okW = number(m.Group(4))
	box.Height, okH = number(m.Group(5))
	if !okL || !okT || !okW || !okH {
		return in, tokens
	}
	return in.WithCrop(box), rest
}

func resolveMode(in Intent, tokens token.List, _ string) (Intent, token.List) {
	if _, rest, ok := tokens.TakeFirst(modePattern); ok {
		return in.WithMode(geometry.ModePad), rest
	}
	return in, tokens
}

func resolveCSS(in Intent, tokens token.List, _ string) (Intent, token.List) {
	if m, rest, ok := tokens.TakeFirst(cssPattern); ok {
		return in.WithCSS(m.Group(0)), rest
	}
	return in, tokens
}

// number parses a decimal capture. Values that overflow float64 are rejected.
func number(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func numberOrZero(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	return number(s)
}

func integer(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

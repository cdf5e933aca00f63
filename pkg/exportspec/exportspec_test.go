package exportspec

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/geometry"
	"github.com/matzehuels/svgexport/pkg/token"
)

func resolve(t *testing.T, natural geometry.Box, output string, tokens ...string) (Spec, []string) {
	t.Helper()
	spec, rest, err := Resolve(natural, token.New(tokens...), output)
	if err != nil {
		t.Fatalf("Resolve(%v, %q) error: %v", tokens, output, err)
	}
	return spec, rest.Tokens()
}

func TestResolveSizing(t *testing.T) {
	unit := geometry.Box{Width: 1, Height: 1}

	tests := []struct {
		name      string
		tokens    []string
		wantScale float64
		wantW     float64
		wantH     float64
	}{
		{"width only", []string{"5:"}, 5, 5, 5},
		{"height only", []string{":4"}, 4, 4, 4},
		{"both defaults to crop", []string{"5:2"}, 5, 5, 2},
		{"both with pad", []string{"5:2", "pad"}, 2, 5, 2},
		{"meet is pad", []string{"meet", "5:2"}, 2, 5, 2},
		{"explicit scale", []string{"3x"}, 3, 3, 3},
		{"fractional scale", []string{"0.5x"}, 0.5, 0.5, 0.5},
		{"none", nil, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, _ := resolve(t, unit, "out.png", tt.tokens...)
			if spec.Scale() != tt.wantScale {
				t.Errorf("Scale() = %v, want %v", spec.Scale(), tt.wantScale)
			}
			if spec.Width() != tt.wantW || spec.Height() != tt.wantH {
				t.Errorf("size = %vx%v, want %vx%v", spec.Width(), spec.Height(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResolveLastMatchWins(t *testing.T) {
	spec, rest := resolve(t, geometry.Box{Width: 10, Height: 10}, "out.png", "2x", "3x")
	if spec.Scale() != 3 {
		t.Errorf("Scale() = %v, want 3", spec.Scale())
	}
	if want := []string{"2x"}; !reflect.DeepEqual(rest, want) {
		t.Errorf("rest = %v, want %v", rest, want)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	spec, rest := resolve(t, geometry.Box{Width: 10, Height: 10}, "out.jpg", "50%", "80%")
	if spec.Quality() != 50 {
		t.Errorf("Quality() = %d, want 50", spec.Quality())
	}
	if want := []string{"80%"}; !reflect.DeepEqual(rest, want) {
		t.Errorf("rest = %v, want %v", rest, want)
	}
}

func TestResolveSizingPriority(t *testing.T) {
	box := geometry.Box{Width: 100, Height: 200}

	tests := []struct {
		name      string
		tokens    []string
		wantScale float64
		wantRest  []string
	}{
		{"scale beats width and height", []string{"100:", ":50", "2x"}, 2, []string{"100:", ":50"}},
		{"width beats height", []string{":50", "100:"}, 1, []string{":50"}},
		// The width:height token is left for the crop box step.
		{"height beats width:height", []string{":50", "100:200"}, 0.25, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, rest := resolve(t, box, "out.png", tt.tokens...)
			if spec.Scale() != tt.wantScale {
				t.Errorf("Scale() = %v, want %v", spec.Scale(), tt.wantScale)
			}
			if !reflect.DeepEqual(rest, tt.wantRest) {
				t.Errorf("rest = %v, want %v", rest, tt.wantRest)
			}
		})
	}
}

func TestResolveFormat(t *testing.T) {
	box := geometry.Box{Width: 10, Height: 10}

	tests := []struct {
		name   string
		output string
		tokens []string
		want   Format
	}{
		{"default png", "out.png", nil, FormatPNG},
		{"inferred from jpg", "out.jpg", nil, FormatJPEG},
		{"inferred from jpeg", "dir/out.JPEG", nil, FormatJPEG},
		{"token jpg", "out.png", []string{"jpg"}, FormatJPEG},
		{"token uppercase", "out", []string{"JPEG"}, FormatJPEG},
		{"no output name", "", nil, FormatPNG},
		{"jpg inside name only", "jpg.png", nil, FormatPNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, _ := resolve(t, box, tt.output, tt.tokens...)
			if spec.Format() != tt.want {
				t.Errorf("Format() = %v, want %v", spec.Format(), tt.want)
			}
		})
	}
}

func TestResolveQuality(t *testing.T) {
	box := geometry.Box{Width: 10, Height: 10}

	tests := []struct {
		name   string
		tokens []string
		want   int
	}{
		{"default", nil, 100},
		{"explicit", []string{"70%"}, 70},
		{"zero", []string{"0%"}, 0},
		{"clamped", []string{"250%"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, _ := resolve(t, box, "out.jpg", tt.tokens...)
			if spec.Quality() != tt.want {
				t.Errorf("Quality() = %d, want %d", spec.Quality(), tt.want)
			}
		})
	}
}

func TestResolveCropBox(t *testing.T) {
	natural := geometry.Box{Width: 1000, Height: 1000}

	tests := []struct {
		name    string
		tokens  []string
		wantBox geometry.Box
	}{
		{"full form", []string{"2x", "10:20:100:50"}, geometry.Box{Left: 10, Top: 20, Width: 100, Height: 50}},
		{"negative origin", []string{"-10:-20:100:50"}, geometry.Box{Left: -10, Top: -20, Width: 100, Height: 50}},
		{"shorthand after sizing", []string{"2x", "100:50"}, geometry.Box{Width: 100, Height: 50}},
		{"rightmost wins", []string{"2x", "1:1:5:5", "2:2:6:6"}, geometry.Box{Left: 2, Top: 2, Width: 6, Height: 6}},
		{"none", []string{"2x"}, natural},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, _ := resolve(t, natural, "out.png", tt.tokens...)
			if spec.Box() != tt.wantBox {
				t.Errorf("Box() = %v, want %v", spec.Box(), tt.wantBox)
			}
		})
	}
}

func TestResolveCSS(t *testing.T) {
	css := "svg { background: #fff; } path{stroke:red}"
	spec, rest := resolve(t, geometry.Box{Width: 1, Height: 1}, "out.png", "2x", css, "nonsense")
	if spec.CSS() != css {
		t.Errorf("CSS() = %q, want %q", spec.CSS(), css)
	}
	if want := []string{"nonsense"}; !reflect.DeepEqual(rest, want) {
		t.Errorf("rest = %v, want %v", rest, want)
	}
}

func TestResolveIgnoresUnknownTokens(t *testing.T) {
	spec, rest := resolve(t, geometry.Box{Width: 10, Height: 10}, "out.png", "2x", "frobnicate", "1.2.3x", "12px")
	if spec.Scale() != 2 {
		t.Errorf("Scale() = %v, want 2", spec.Scale())
	}
	if want := []string{"frobnicate", "1.2.3x", "12px"}; !reflect.DeepEqual(rest, want) {
		t.Errorf("rest = %v, want %v", rest, want)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	spec, rest := resolve(t, geometry.Box{Width: 1, Height: 1}, "out", "JPG", "PAD", "4:2", "2X")
	if spec.Format() != FormatJPEG || spec.Mode() != geometry.ModePad || spec.Scale() != 2 {
		t.Errorf("got format=%v mode=%v scale=%v", spec.Format(), spec.Mode(), spec.Scale())
	}
	// 2X consumed as scale, so 4:2 becomes the crop box
	if len(rest) != 0 {
		t.Errorf("rest = %v, want empty", rest)
	}
	if spec.Box() != (geometry.Box{Width: 4, Height: 2}) {
		t.Errorf("Box() = %v", spec.Box())
	}
}

func TestResolveDegenerate(t *testing.T) {
	tests := []struct {
		name    string
		natural geometry.Box
		tokens  []string
	}{
		{"zero natural width", geometry.Box{Width: 0, Height: 10}, nil},
		{"zero natural height", geometry.Box{Width: 10, Height: 0}, []string{"100:"}},
		{"zero scale", geometry.Box{Width: 10, Height: 10}, []string{"0x"}},
		{"zero crop box", geometry.Box{Width: 10, Height: 10}, []string{"2x", "0:10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Resolve(tt.natural, token.New(tt.tokens...), "out.png")
			if !errors.Is(err, errors.ErrCodeDegenerateGeometry) {
				t.Errorf("Resolve() error = %v, want %s", err, errors.ErrCodeDegenerateGeometry)
			}
		})
	}
}

func TestSpecString(t *testing.T) {
	tests := []struct {
		name    string
		natural geometry.Box
		output  string
		tokens  []string
		want    string
	}{
		{
			name:    "scale",
			natural: geometry.Box{Width: 100, Height: 50},
			output:  "out.png",
			tokens:  []string{"2x"},
			want:    "png 100% 2x 0:0:100:50 200:100",
		},
		{
			name:    "jpeg width",
			natural: geometry.Box{Width: 100, Height: 50},
			output:  "out.png",
			tokens:  []string{"jpg", "80%", "300:"},
			want:    "jpeg 80% 3x 0:0:100:50 300:150",
		},
		{
			name:    "crop fill centers",
			natural: geometry.Box{Width: 300, Height: 200},
			output:  "out.png",
			tokens:  []string{"100:100"},
			want:    "png 100% 0.5x 50:0:200:200 100:100",
		},
		{
			name:    "pad letterboxes",
			natural: geometry.Box{Width: 400, Height: 200},
			output:  "out.png",
			tokens:  []string{"100:100", "pad"},
			want:    "png 100% 0.25x 0:-100:400:400 100:100",
		},
		{
			name:    "crop box",
			natural: geometry.Box{Width: 1000, Height: 1000},
			output:  "out.jpg",
			tokens:  []string{"2x", "10:20:100:50"},
			want:    "jpeg 100% 2x 10:20:100:50 200:100",
		},
		{
			name:    "fractional",
			natural: geometry.Box{Width: 100, Height: 100},
			output:  "out.png",
			tokens:  []string{"1.5x"},
			want:    "png 100% 1.5x 0:0:100:100 150:150",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, _ := resolve(t, tt.natural, tt.output, tt.tokens...)
			got := spec.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if again := spec.String(); again != got {
				t.Errorf("String() not reproducible: %q then %q", got, again)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12, "12"},
		{2.5, "2.5"},
		{0.33333, "0.33"},
		{2.999, "2.99"},
		{-1.239, "-1.23"},
		{-0.001, "0"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	cases := []struct {
		natural geometry.Box
		tokens  []string
	}{
		{geometry.Box{Width: 100, Height: 50}, []string{"2x"}},
		{geometry.Box{Width: 37, Height: 91}, []string{"123:"}},
		{geometry.Box{Width: 37, Height: 91}, []string{":77"}},
		{geometry.Box{Left: 3, Top: 7, Width: 640, Height: 480}, []string{"1.37x"}},
		{geometry.Box{Width: 300, Height: 200}, []string{"100:100", "pad"}},
		{geometry.Box{Width: 1000, Height: 1000}, []string{"0.3x", "13:17:333:111"}},
	}

	for _, c := range cases {
		spec, _ := resolve(t, c.natural, "out.png", c.tokens...)
		sum, err := ParseLine(spec.String())
		if err != nil {
			t.Fatalf("ParseLine(%q) error: %v", spec.String(), err)
		}

		// Every field loses less than 0.01 to truncation.
		tol := 0.01*(sum.Box.Width+sum.Box.Height+sum.Scale) + 0.02
		if w := sum.Box.Width * sum.Scale; math.Abs(w-spec.Width()) > tol {
			t.Errorf("%v: derived width %v, want %v ± %v", c.tokens, w, spec.Width(), tol)
		}
		if h := sum.Box.Height * sum.Scale; math.Abs(h-spec.Height()) > tol {
			t.Errorf("%v: derived height %v, want %v ± %v", c.tokens, h, spec.Height(), tol)
		}
		if math.Abs(sum.Width-spec.Width()) >= 0.01 || math.Abs(sum.Height-spec.Height()) >= 0.01 {
			t.Errorf("%v: output size %vx%v, want %vx%v", c.tokens, sum.Width, sum.Height, spec.Width(), spec.Height())
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	bad := []string{
		"",
		"png 100% 2x 0:0:1:1",
		"gif 100% 2x 0:0:1:1 2:2",
		"png 100 2x 0:0:1:1 2:2",
		"png 100% 2 0:0:1:1 2:2",
		"png 100% 2x 0:0:1 2:2",
		"png 100% 2x 0:0:1:1 a:2",
	}
	for _, line := range bad {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) should fail", line)
		}
	}
}

func TestSpecClip(t *testing.T) {
	natural := geometry.Box{Left: 10, Top: 5, Width: 100, Height: 100}
	spec, _ := resolve(t, natural, "out.png", "2x")

	x, y := spec.Clip(natural)
	if x != 0 || y != 0 {
		t.Errorf("Clip() = %v,%v, want 0,0", x, y)
	}

	padded, _ := resolve(t, geometry.Box{Width: 1, Height: 1}, "out.png", "5:2", "pad")
	x, y = padded.Clip(geometry.Box{Width: 1, Height: 1})
	if x != -1.5 || y != 0 {
		t.Errorf("Clip() pad = %v,%v, want -1.5,0", x, y)
	}
}

func TestIntentImmutable(t *testing.T) {
	base := NewIntent()
	derived := base.WithScale(2).WithFormat(FormatJPEG).WithQuality(10)

	if base.Target().Scale != nil {
		t.Error("WithScale modified the receiver")
	}
	if base.Format() != FormatPNG || base.Quality() != DefaultQuality {
		t.Errorf("base changed: %v %d", base.Format(), base.Quality())
	}

	target := derived.Target()
	*target.Scale = 9
	if *derived.Target().Scale != 2 {
		t.Error("Target() exposes internal state")
	}
}

func TestSpecMarshalJSON(t *testing.T) {
	spec, _ := resolve(t, geometry.Box{Width: 100, Height: 50}, "out.png", "2x")
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if got["line"] != spec.String() {
		t.Errorf("line = %v, want %q", got["line"], spec.String())
	}
	if got["format"] != "png" || got["scale"] != 2.0 {
		t.Errorf("unexpected fields: %v", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if FormatJPEG.Extension() != ".jpg" || FormatPNG.Extension() != ".png" {
		t.Error("unexpected extensions")
	}
	if FormatJPEG.ContentType() != "image/jpeg" || FormatPNG.ContentType() != "image/png" {
		t.Error("unexpected content types")
	}
}

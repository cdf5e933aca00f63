// Package inspect determines the natural box of an SVG document: the region,
// in SVG user units, that a rendering at scale 1 covers.
//
// Three sources are consulted in order:
//
//  1. the root element's width and height attributes (origin 0,0)
//  2. the root element's viewBox
//  3. the bounding box of the drawn content
//
// [Static] implements the first two by reading the document's root element.
// The third needs a layout engine and is only available in the browser
// renderer, which evaluates the same precedence in the page.
package inspect

import (
	"encoding/xml"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/geometry"
)

// Kind records which source produced a natural box.
type Kind string

const (
	KindSize    Kind = "size"
	KindViewBox Kind = "viewbox"
	KindBBox    Kind = "bbox"
)

// Natural is a natural box together with its source.
type Natural struct {
	Box  geometry.Box `json:"box"`
	Kind Kind         `json:"kind"`
}

// Root holds the attributes of an SVG root element that matter for sizing.
type Root struct {
	Width   string
	Height  string
	ViewBox string
}

// Static reads r up to the root <svg> element and derives the natural box
// from its attributes. Documents whose size depends on their content return
// an ErrCodeUnsupported error.
func Static(r io.Reader) (Natural, error) {
	root, err := ReadRoot(r)
	if err != nil {
		return Natural{}, err
	}
	return root.Natural()
}

// StaticFile is [Static] for a file on disk.
func StaticFile(path string) (Natural, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Natural{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "input file %s", path)
		}
		return Natural{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	n, err := Static(f)
	if err != nil {
		return Natural{}, errors.Wrap(errors.GetCode(err), err, "inspect %s", path)
	}
	return n, nil
}

// ReadRoot decodes tokens until the first start element and returns its
// sizing attributes. The first element must be <svg>.
func ReadRoot(r io.Reader) (Root, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return Root{}, errors.New(errors.ErrCodeInvalidInput, "no root element")
		}
		if err != nil {
			return Root{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse svg")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !strings.EqualFold(start.Name.Local, "svg") {
			return Root{}, errors.New(errors.ErrCodeInvalidInput, "root element is <%s>, want <svg>", start.Name.Local)
		}
		var root Root
		for _, a := range start.Attr {
			if a.Name.Space != "" && a.Name.Space != "http://www.w3.org/2000/svg" {
				continue
			}
			switch a.Name.Local {
			case "width":
				root.Width = a.Value
			case "height":
				root.Height = a.Value
			case "viewBox":
				root.ViewBox = a.Value
			}
		}
		return root, nil
	}
}

// Natural applies the size then viewBox precedence to the root attributes.
func (r Root) Natural() (Natural, error) {
	w, okW := Length(r.Width)
	h, okH := Length(r.Height)
	if okW && okH {
		return Natural{Box: geometry.Box{Width: w, Height: h}, Kind: KindSize}, nil
	}
	if box, ok := ViewBox(r.ViewBox); ok {
		return Natural{Box: box, Kind: KindViewBox}, nil
	}
	return Natural{}, errors.New(errors.ErrCodeUnsupported, "svg has neither absolute width/height nor a viewBox; its size depends on content")
}

var lengthPattern = regexp.MustCompile(`^\s*([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)\s*(px|pt|pc|mm|cm|in)?\s*$`)

// Pixels per unit, at 96 dpi.
var unitScale = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
}

// Length parses an absolute SVG length and converts it to pixels. Relative
// lengths (%, em, ex) and non-positive values are rejected.
func Length(s string) (float64, bool) {
	m := lengthPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	v *= unitScale[m[2]]
	if v <= 0 || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ViewBox parses a viewBox attribute ("min-x min-y width height", separated
// by whitespace and/or commas). A box with non-positive size is rejected.
func ViewBox(s string) (geometry.Box, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return geometry.Box{}, false
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Box{}, false
		}
		v[i] = n
	}
	box := geometry.Box{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}
	if box.Validate() != nil {
		return geometry.Box{}, false
	}
	return box, true
}

// Package render provides the drawing surface used to annotate images.
//
// The annotation driver only depends on the Canvas interface so that the
// measurement and layout logic can run against a recording fake in tests.
// GG is the production implementation on top of github.com/fogleman/gg.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/menta2k/markimg/pkg/types"
)

// ErrUnknownColor is returned for a color that is neither a name nor a hex value
var ErrUnknownColor = errors.New("unknown color")

// ErrUnknownMarker is returned for an unsupported point marker glyph
var ErrUnknownMarker = errors.New("unknown marker")

// Point marker glyphs
const (
	MarkerCircle = "o"
	MarkerCross  = "x"
	MarkerPlus   = "+"
	MarkerDot    = "."
	MarkerSquare = "s"
)

// PointStyle describes how a landmark is drawn
type PointStyle struct {
	Marker string
	Color  color.Color
	// Size is the marker diameter in pixels
	Size float64
}

// LineStyle describes a stroked line
type LineStyle struct {
	Color color.Color
	Width float64
}

// TextStyle describes a text placement
type TextStyle struct {
	Color color.Color
	// Size is the font size in pixels
	Size float64
	// Align is the horizontal anchor, 0 left .. 1 right
	Align float64
	// Rotation in degrees, clockwise in image coordinates
	Rotation float64
}

// Canvas is a per-record drawing surface
type Canvas interface {
	DrawImage(img image.Image)
	PlotPoint(p types.Point, style PointStyle)
	PlotLine(a, b types.Point, style LineStyle)
	PlotText(p types.Point, text string, style TextStyle)
	// Clear resets the surface to a blank state
	Clear()
	// Export returns the rendered pixels
	Export() image.Image
}

// Factory creates a blank canvas for an image of width x height
type Factory func(width, height int) Canvas

// ValidMarker reports whether m is a supported marker glyph
func ValidMarker(m string) bool {
	switch m {
	case MarkerCircle, MarkerCross, MarkerPlus, MarkerDot, MarkerSquare:
		return true
	}
	return false
}

// ParseColor accepts an SVG color name ("red", "lightgreen") or a hex value
// in #rgb or #rrggbb form
func ParseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	if !strings.HasPrefix(name, "#") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}

	hex := name[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

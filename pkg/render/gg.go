package render

import (
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/menta2k/markimg/pkg/types"
)

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error
)

func regularFont() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// GG draws on a fogleman/gg context. Drawing happens in source image
// coordinates; the backing bitmap is scale times larger and is allocated
// on first use.
type GG struct {
	width  int
	height int
	scale  float64
	dc     *gg.Context
	faces  map[float64]font.Face
}

// NewGG creates a canvas for a width x height image rendered at scale
func NewGG(width, height int, scale float64) *GG {
	if scale <= 0 {
		scale = 1
	}
	return &GG{width: width, height: height, scale: scale}
}

// GGFactory returns a Factory producing GG canvases at the given render scale
func GGFactory(scale float64) Factory {
	return func(width, height int) Canvas {
		return NewGG(width, height, scale)
	}
}

// DrawImage paints img with its top-left corner at the origin
func (c *GG) DrawImage(img image.Image) {
	c.context().DrawImage(img, 0, 0)
}

// PlotPoint draws a marker centered on p
func (c *GG) PlotPoint(p types.Point, style PointStyle) {
	r := style.Size / 2
	c.context()
	c.dc.SetColor(style.Color)
	c.dc.SetLineWidth(math.Max(1, r/3) * c.scale)

	switch style.Marker {
	case MarkerCross:
		c.dc.DrawLine(p.X-r, p.Y-r, p.X+r, p.Y+r)
		c.dc.DrawLine(p.X-r, p.Y+r, p.X+r, p.Y-r)
		c.dc.Stroke()
	case MarkerPlus:
		c.dc.DrawLine(p.X-r, p.Y, p.X+r, p.Y)
		c.dc.DrawLine(p.X, p.Y-r, p.X, p.Y+r)
		c.dc.Stroke()
	case MarkerDot:
		c.dc.DrawCircle(p.X, p.Y, math.Max(1, r/3))
		c.dc.Fill()
	case MarkerSquare:
		c.dc.DrawRectangle(p.X-r, p.Y-r, 2*r, 2*r)
		c.dc.Fill()
	default:
		c.dc.DrawCircle(p.X, p.Y, r)
		c.dc.Fill()
	}
}

// PlotLine strokes a straight line from a to b
func (c *GG) PlotLine(a, b types.Point, style LineStyle) {
	c.context()
	c.dc.SetColor(style.Color)
	c.dc.SetLineWidth(style.Width * c.scale)
	c.dc.DrawLine(a.X, a.Y, b.X, b.Y)
	c.dc.Stroke()
}

// PlotText draws text with its baseline at p
func (c *GG) PlotText(p types.Point, text string, style TextStyle) {
	if text == "" {
		return
	}
	c.context()
	c.dc.SetColor(style.Color)
	c.dc.SetFontFace(c.face(style.Size))

	c.dc.Push()
	defer c.dc.Pop()
	if style.Rotation != 0 {
		c.dc.RotateAbout(gg.Radians(style.Rotation), p.X, p.Y)
	}
	c.dc.DrawStringAnchored(text, p.X, p.Y, style.Align, 0)
}

// Clear releases the bitmap; the next draw starts from a transparent surface
func (c *GG) Clear() {
	c.dc = nil
}

// Export returns the rendered bitmap
func (c *GG) Export() image.Image {
	return c.context().Image()
}

func (c *GG) context() *gg.Context {
	if c.dc == nil {
		w := int(math.Round(float64(c.width) * c.scale))
		h := int(math.Round(float64(c.height) * c.scale))
		c.dc = gg.NewContext(w, h)
		c.dc.Scale(c.scale, c.scale)
	}
	return c.dc
}

// face returns a Go Regular face at size pixels, falling back to the
// fixed 7x13 face when the font cannot be loaded
func (c *GG) face(size float64) font.Face {
	if c.faces == nil {
		c.faces = make(map[float64]font.Face)
	}
	if f, ok := c.faces[size]; ok {
		return f
	}

	var face font.Face = basicfont.Face7x13
	if fnt, err := regularFont(); err == nil && size > 0 {
		if f, err := opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		}); err == nil {
			face = f
		}
	}
	c.faces[size] = face
	return face
}

package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/markimg/pkg/types"
)

func solid(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in       string
		expected color.RGBA
	}{
		{"red", color.RGBA{255, 0, 0, 255}},
		{"White", color.RGBA{255, 255, 255, 255}},
		{"#00ff00", color.RGBA{0, 255, 0, 255}},
		{"#00F", color.RGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rgba(c))
		})
	}

	for _, bad := range []string{"", "notacolor", "#12", "#zzzzzz"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, ErrUnknownColor, bad)
	}
}

func TestValidMarker(t *testing.T) {
	for _, m := range []string{"o", "x", "+", ".", "s"} {
		assert.True(t, ValidMarker(m), m)
	}
	assert.False(t, ValidMarker("*"))
}

func TestGGDrawImage(t *testing.T) {
	c := NewGG(40, 30, 1)
	c.DrawImage(solid(40, 30, color.RGBA{10, 20, 30, 255}))

	out := c.Export()
	assert.Equal(t, image.Rect(0, 0, 40, 30), out.Bounds())
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, rgba(out.At(20, 15)))
}

func TestGGPlotLine(t *testing.T) {
	c := NewGG(50, 50, 1)
	c.PlotLine(types.Point{X: 0, Y: 25}, types.Point{X: 50, Y: 25}, LineStyle{Color: color.RGBA{255, 0, 0, 255}, Width: 4})

	out := c.Export()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(out.At(25, 25)))
	assert.Equal(t, uint8(0), rgba(out.At(25, 5)).A)
}

func TestGGPlotPoint(t *testing.T) {
	c := NewGG(50, 50, 1)
	c.PlotPoint(types.Point{X: 25, Y: 25}, PointStyle{Marker: MarkerCircle, Color: color.RGBA{0, 0, 255, 255}, Size: 10})

	out := c.Export()
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(out.At(25, 25)))
	assert.Equal(t, uint8(0), rgba(out.At(45, 45)).A)
}

func TestGGPlotText(t *testing.T) {
	c := NewGG(200, 60, 1)
	c.PlotText(types.Point{X: 10, Y: 40}, "Right femur", TextStyle{Color: color.White, Size: 24})

	out := c.Export()
	painted := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 200; x++ {
			if rgba(out.At(x, y)).A > 0 {
				painted++
			}
		}
	}
	assert.Greater(t, painted, 0)
}

func TestGGScaleAndClear(t *testing.T) {
	c := NewGG(40, 30, 2)
	c.DrawImage(solid(40, 30, color.White))

	out := c.Export()
	assert.Equal(t, image.Rect(0, 0, 80, 60), out.Bounds())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(out.At(70, 50)))

	c.Clear()
	assert.Nil(t, c.dc)
	assert.Equal(t, uint8(0), rgba(c.Export().At(70, 50)).A)
}

func TestGGAllocatesLazily(t *testing.T) {
	c := NewGG(400, 300, 2)
	assert.Nil(t, c.dc)

	c.PlotLine(types.Point{X: 0, Y: 0}, types.Point{X: 10, Y: 10}, LineStyle{Color: color.White, Width: 1})
	require.NotNil(t, c.dc)
	assert.Equal(t, image.Rect(0, 0, 800, 600), c.Export().Bounds())

	c.Clear()
	assert.Nil(t, c.dc)
}

func TestGGFactory(t *testing.T) {
	c := GGFactory(1)(12, 8)
	assert.Equal(t, image.Rect(0, 0, 12, 8), c.Export().Bounds())
}

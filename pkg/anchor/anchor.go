// Package anchor moves a cursor over a rectangular plane of known size
// using named anchor points and relative offsets.
//
// The plane uses image pixel coordinates. Offsets are not clamped, so the
// cursor may leave the plane; captions rely on that to sit outside the
// visible frame.
package anchor

import (
	"errors"
	"fmt"
)

// ErrUnknownPosition is returned for an anchor name that is not defined
var ErrUnknownPosition = errors.New("unknown anchor position")

// Named anchor positions
const (
	Left   = "left"
	Right  = "right"
	Top    = "top"
	Bottom = "bottom"
	Center = "center"
)

// Point is a cursor position
type Point struct {
	X float64
	Y float64
}

// Canvas is a plane of Height x Width with a movable cursor
type Canvas struct {
	Height float64
	Width  float64
	cursor Point
}

// New creates a canvas with the cursor at the origin
func New(height, width float64) *Canvas {
	return &Canvas{Height: height, Width: width}
}

// Cursor returns the current cursor position
func (c *Canvas) Cursor() Point {
	return c.cursor
}

// AnchorLeft moves the cursor to the middle of the left border
func (c *Canvas) AnchorLeft() Point {
	return c.moveTo(0, c.Height/2)
}

// AnchorRight moves the cursor to the middle of the right border
func (c *Canvas) AnchorRight() Point {
	return c.moveTo(c.Width, c.Height/2)
}

// AnchorTop moves the cursor to the middle of the border at y == Height
func (c *Canvas) AnchorTop() Point {
	return c.moveTo(c.Width/2, c.Height)
}

// AnchorBottom moves the cursor to the middle of the border at y == 0
func (c *Canvas) AnchorBottom() Point {
	return c.moveTo(c.Width/2, 0)
}

// AnchorCenter moves the cursor to the center of the plane
func (c *Canvas) AnchorCenter() Point {
	return c.moveTo(c.Width/2, c.Height/2)
}

// Anchor moves the cursor to a named anchor
func (c *Canvas) Anchor(name string) (Point, error) {
	switch name {
	case Left:
		return c.AnchorLeft(), nil
	case Right:
		return c.AnchorRight(), nil
	case Top:
		return c.AnchorTop(), nil
	case Bottom:
		return c.AnchorBottom(), nil
	case Center:
		return c.AnchorCenter(), nil
	default:
		return c.cursor, fmt.Errorf("%w: %q", ErrUnknownPosition, name)
	}
}

// AddOffset shifts the cursor relative to its current position
func (c *Canvas) AddOffset(dx, dy float64) Point {
	return c.moveTo(c.cursor.X+dx, c.cursor.Y+dy)
}

func (c *Canvas) moveTo(x, y float64) Point {
	c.cursor = Point{X: x, Y: y}
	return c.cursor
}

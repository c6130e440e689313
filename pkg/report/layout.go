// Package report lays out the measurement summary as a column of text
// placements next to the annotated image.
package report

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/menta2k/markimg/pkg/anchor"
	"github.com/menta2k/markimg/pkg/measure"
)

// ErrInvalidOffset is returned for an offset that is not of the form "dx,dy"
var ErrInvalidOffset = errors.New("invalid offset")

// Across places the caption over the image center along its diagonal
const Across = "across"

// Direction in which successive lines advance along the Y axis
type Direction int

const (
	// Up decreases Y for every line
	Up Direction = iota
	// Down increases Y for every line
	Down
)

// Kind tags a placement so the renderer can pick its style
type Kind int

const (
	// Body is a summary line in the report column
	Body Kind = iota
	// Warning is the calibration warning line
	Warning
	// Caption is the free-form caption
	Caption
)

// Align is the horizontal text anchor of a placement, 0 left .. 1 right
type Align float64

// Horizontal anchors
const (
	AlignLeft   Align = 0
	AlignCenter Align = 0.5
	AlignRight  Align = 1
)

// Placement is a line of text at a position
type Placement struct {
	Position anchor.Point
	Text     string
	Kind     Kind
	Align    Align
	// Rotation in degrees, clockwise in image coordinates
	Rotation float64
}

// Layout advances a cursor by a fixed gap per line
type Layout struct {
	cursor     anchor.Point
	gap        float64
	dir        Direction
	align      Align
	placements []Placement
}

// New creates a layout starting at start
func New(start anchor.Point, gap float64, dir Direction, align Align) *Layout {
	return &Layout{cursor: start, gap: gap, dir: dir, align: align}
}

// Start resolves the first line position for a text column on the given side.
// The left column starts at the bottom edge and grows up; the right column
// starts at the top edge and grows down.
func Start(c *anchor.Canvas, side string, margin, gap float64) (*Layout, error) {
	switch side {
	case anchor.Left:
		c.AnchorLeft()
		return New(c.AddOffset(margin, c.Height/2-gap), gap, Up, AlignLeft), nil
	case anchor.Right:
		c.AnchorRight()
		return New(c.AddOffset(-margin, -c.Height/2+gap), gap, Down, AlignRight), nil
	default:
		return nil, fmt.Errorf("text side: %w: %q", anchor.ErrUnknownPosition, side)
	}
}

// Cursor returns the position of the next line
func (l *Layout) Cursor() anchor.Point {
	return l.cursor
}

// Line places text at the cursor and advances one line
func (l *Layout) Line(text string, kind Kind) anchor.Point {
	at := l.cursor
	l.placements = append(l.placements, Placement{Position: at, Text: text, Kind: kind, Align: l.align})
	l.Space(1)
	return at
}

// Space advances the cursor by n lines without placing text
func (l *Layout) Space(n int) {
	step := l.gap * float64(n)
	if l.dir == Up {
		step = -step
	}
	l.cursor.Y += step
}

// Place appends a placement that does not follow the cursor
func (l *Layout) Place(p Placement) {
	l.placements = append(l.placements, p)
}

// Placements returns the placements in emission order
func (l *Layout) Placements() []Placement {
	return l.placements
}

// Summary is the text content of a report column
type Summary struct {
	Info    []string
	Limbs   measure.Limbs
	Warning string
}

// Compose lays out the summary in its fixed order and returns the cursor
// where a following caption would go
func Compose(l *Layout, s Summary) anchor.Point {
	for _, line := range s.Info {
		l.Line(line, Body)
	}
	l.Space(3)

	l.Line("Right femur: "+s.Limbs.Femur.RightText(), Body)
	l.Line("Left femur: "+s.Limbs.Femur.LeftText(), Body)
	l.Line("Difference: "+s.Limbs.Femur.DifferenceText(), Body)
	l.Space(1)

	l.Line("Right tibia: "+s.Limbs.Tibia.RightText(), Body)
	l.Line("Left tibia: "+s.Limbs.Tibia.LeftText(), Body)
	l.Line("Difference: "+s.Limbs.Tibia.DifferenceText(), Body)
	l.Space(1)

	l.Line("Total right: "+s.Limbs.Total.RightText(), Body)
	l.Line("Total left: "+s.Limbs.Total.LeftText(), Body)
	l.Line("Difference: "+s.Limbs.Total.DifferenceText(), Body)

	if s.Warning != "" {
		l.Space(2)
		l.Line(s.Warning, Warning)
	}
	l.Space(4)
	return l.Cursor()
}

// Offset is a caption displacement
type Offset struct {
	DX float64
	DY float64
}

// ParseOffset parses "dx,dy"; an empty string is a zero offset
func ParseOffset(s string) (Offset, error) {
	if strings.TrimSpace(s) == "" {
		return Offset{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Offset{}, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	dx, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Offset{}, fmt.Errorf("%w: %q: %v", ErrInvalidOffset, s, err)
	}
	dy, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Offset{}, fmt.Errorf("%w: %q: %v", ErrInvalidOffset, s, err)
	}
	return Offset{DX: dx, DY: dy}, nil
}

// ValidCaptionPosition reports whether pos names a caption position
func ValidCaptionPosition(pos string) bool {
	switch pos {
	case "", anchor.Left, anchor.Right, anchor.Top, anchor.Bottom, Across:
		return true
	}
	return false
}

// PlaceCaption appends the caption. When pos is empty or equals the text
// side the caption continues the column at flow; otherwise it is anchored
// to pos on the canvas. The offset applies in both cases.
func PlaceCaption(l *Layout, c *anchor.Canvas, text, side, pos string, off Offset, flow anchor.Point) (Placement, error) {
	if !ValidCaptionPosition(pos) {
		return Placement{}, fmt.Errorf("caption: %w: %q", anchor.ErrUnknownPosition, pos)
	}

	p := Placement{Text: text, Kind: Caption, Align: l.align}
	switch pos {
	case "", side:
		p.Position = anchor.Point{X: flow.X + off.DX, Y: flow.Y + off.DY}
	case Across:
		c.AnchorCenter()
		p.Position = c.AddOffset(off.DX, off.DY)
		p.Align = AlignCenter
		p.Rotation = -math.Atan2(c.Height, c.Width) * 180 / math.Pi
	default:
		if _, err := c.Anchor(pos); err != nil {
			return Placement{}, err
		}
		p.Position = c.AddOffset(off.DX, off.DY)
		p.Align = alignFor(pos)
	}

	l.Place(p)
	return p, nil
}

func alignFor(pos string) Align {
	switch pos {
	case anchor.Left:
		return AlignLeft
	case anchor.Right:
		return AlignRight
	default:
		return AlignCenter
	}
}

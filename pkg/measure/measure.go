// Package measure turns landmark segments into calibrated limb lengths and
// compares the right and left legs.
package measure

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/menta2k/markimg/pkg/types"
)

var (
	// ErrUnresolvedLandmark is returned when a segment names an unknown landmark
	ErrUnresolvedLandmark = errors.New("unresolved landmark")
	// ErrUnresolvedSegment is returned when a measurement names a segment that was never drawn
	ErrUnresolvedSegment = errors.New("unresolved segment")
	// ErrMissingSegment is returned when one of the four limb segments was not measured
	ErrMissingSegment = errors.New("missing limb segment")
)

// ZeroDivision is reported in place of a percentage when the shorter side is zero
const ZeroDivision = "Error: ZeroDivisionError"

// Expected limb segment names
const (
	RightFemur = "Right femur"
	LeftFemur  = "Left femur"
	RightTibia = "Right tibia"
	LeftTibia  = "Left tibia"
)

// ResolveLandmarks indexes landmarks by name. A repeated name keeps the last point.
func ResolveLandmarks(landmarks []types.Landmark) map[string]types.Point {
	index := make(map[string]types.Point, len(landmarks))
	for _, l := range landmarks {
		index[l.Name] = l.Point
	}
	return index
}

// BuildSegments resolves each directive's landmark names to points
func BuildSegments(index map[string]types.Point, directives []types.SegmentDirective) ([]types.Segment, error) {
	segments := make([]types.Segment, 0, len(directives))
	for _, d := range directives {
		start, ok := index[d.Start]
		if !ok {
			return nil, fmt.Errorf("segment %q: %w: %q", d.Name, ErrUnresolvedLandmark, d.Start)
		}
		end, ok := index[d.End]
		if !ok {
			return nil, fmt.Errorf("segment %q: %w: %q", d.Name, ErrUnresolvedLandmark, d.End)
		}
		segments = append(segments, types.Segment{
			Name:  d.Name,
			Start: types.Landmark{Name: d.Start, Point: start},
			End:   types.Landmark{Name: d.End, Point: end},
		})
	}
	return segments, nil
}

// Scale returns the calibration factor origHeight / imageWidth, or 0 when
// either side is missing
func Scale(origHeight float64, imageWidth int) float64 {
	if imageWidth <= 0 || origHeight == 0 {
		return 0
	}
	return origHeight / float64(imageWidth)
}

// Measure computes the horizontal extent of a segment. With a zero scale the
// distance stays in pixels.
func Measure(seg types.Segment, scale float64) types.Measurement {
	px := Round(math.Abs(seg.Start.X-seg.End.X), 0)
	m := types.Measurement{
		SegmentName:   seg.Name,
		PixelDistance: px,
		Scaled:        px,
		Unit:          types.Pixels,
	}
	if scale != 0 {
		m.Scaled = Round(px*scale/10, 1)
		m.Unit = types.Centimeters
	}
	return m
}

// MeasureAll measures the named segments in order
func MeasureAll(segments []types.Segment, names []string, scale float64) ([]types.Measurement, error) {
	byName := make(map[string]types.Segment, len(segments))
	for _, s := range segments {
		byName[s.Name] = s
	}

	out := make([]types.Measurement, 0, len(names))
	for _, name := range names {
		seg, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnresolvedSegment, name)
		}
		out = append(out, Measure(seg, scale))
	}
	return out, nil
}

// Sum returns a+b rounded to one decimal
func Sum(a, b float64) float64 {
	return Round(a+b, 1)
}

// Diff returns |a-b| rounded to one decimal
func Diff(a, b float64) float64 {
	return Round(math.Abs(a-b), 1)
}

// CompareLength describes which side is longer and by how much relative to
// the shorter one. A zero shorter side yields ZeroDivision instead of an error.
func CompareLength(left, right float64) string {
	shorter := math.Min(left, right)
	if shorter == 0 {
		return ZeroDivision
	}
	p := Round(math.Abs(left-right)/shorter*100, 1)
	switch {
	case left > right:
		return fmt.Sprintf("left longer (%s%%)", FormatNumber(p, 1))
	case right > left:
		return fmt.Sprintf("right longer (%s%%)", FormatNumber(p, 1))
	default:
		return "equal"
	}
}

// Round rounds v to the given number of decimals. The exact binary value
// is rounded, so 45.15 (stored as 45.1499...) becomes 45.1; exact ties go
// to the even digit.
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatNumber prints v with a fixed number of decimals
func FormatNumber(v float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, v)
}

// FormatDistance prints a value with its unit: one decimal for centimeters,
// whole numbers for pixels
func FormatDistance(v float64, unit types.Unit) string {
	if unit == types.Pixels {
		return FormatNumber(v, 0) + " px"
	}
	return FormatNumber(v, 1) + " " + string(unit)
}

// Pair is a right/left comparison of two lengths
type Pair struct {
	Right      float64
	Left       float64
	Difference float64
	Comparison string
	Unit       types.Unit
}

// NewPair builds the aggregate for a right and left length
func NewPair(right, left float64, unit types.Unit) Pair {
	return Pair{
		Right:      right,
		Left:       left,
		Difference: Diff(right, left),
		Comparison: CompareLength(left, right),
		Unit:       unit,
	}
}

// RightText formats the right length
func (p Pair) RightText() string { return FormatDistance(p.Right, p.Unit) }

// LeftText formats the left length
func (p Pair) LeftText() string { return FormatDistance(p.Left, p.Unit) }

// DifferenceText formats the difference with its comparison
func (p Pair) DifferenceText() string {
	return FormatDistance(p.Difference, p.Unit) + ", " + p.Comparison
}

// Limbs holds the per-bone and total aggregates of both legs
type Limbs struct {
	Femur Pair
	Tibia Pair
	Total Pair
}

// AggregateLimbs looks up the four limb segments and derives femur, tibia
// and total comparisons
func AggregateLimbs(measurements []types.Measurement) (Limbs, error) {
	byName := make(map[string]types.Measurement, len(measurements))
	for _, m := range measurements {
		byName[m.SegmentName] = m
	}

	var missing []string
	get := func(name string) types.Measurement {
		m, ok := byName[name]
		if !ok {
			missing = append(missing, name)
		}
		return m
	}
	rf, lf := get(RightFemur), get(LeftFemur)
	rt, lt := get(RightTibia), get(LeftTibia)
	if len(missing) > 0 {
		return Limbs{}, fmt.Errorf("%w: %s", ErrMissingSegment, strings.Join(missing, ", "))
	}

	unit := rf.Unit
	return Limbs{
		Femur: NewPair(rf.Scaled, lf.Scaled, unit),
		Tibia: NewPair(rt.Scaled, lt.Scaled, unit),
		Total: NewPair(Sum(rf.Scaled, rt.Scaled), Sum(lf.Scaled, lt.Scaled), unit),
	}, nil
}

// IsRight reports whether a segment belongs to the right leg
func IsRight(segmentName string) bool {
	return strings.Contains(segmentName, "Right")
}

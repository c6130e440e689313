package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/markimg/pkg/types"
)

func segment(name string, x1, x2 float64) types.Segment {
	return types.Segment{
		Name:  name,
		Start: types.Landmark{Name: name + "-a", Point: types.Point{X: x1, Y: 10}},
		End:   types.Landmark{Name: name + "-b", Point: types.Point{X: x2, Y: 90}},
	}
}

func TestBuildSegments(t *testing.T) {
	index := ResolveLandmarks([]types.Landmark{
		{Name: "A", Point: types.Point{X: 0, Y: 0}},
		{Name: "B", Point: types.Point{X: 100, Y: 0}},
	})

	segs, err := BuildSegments(index, []types.SegmentDirective{{Name: "seg1", Start: "A", End: "B"}})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "seg1", segs[0].Name)
	assert.Equal(t, 100.0, segs[0].End.X)

	_, err = BuildSegments(index, []types.SegmentDirective{{Name: "seg2", Start: "A", End: "C"}})
	assert.ErrorIs(t, err, ErrUnresolvedLandmark)
	assert.Contains(t, err.Error(), `"C"`)
}

func TestScale(t *testing.T) {
	assert.Equal(t, 0.5, Scale(500, 1000))
	assert.Equal(t, 0.0, Scale(0, 1000))
	assert.Equal(t, 0.0, Scale(500, 0))
}

func TestMeasureCalibrated(t *testing.T) {
	m := Measure(segment("seg1", 0, 100), Scale(500, 1000))
	assert.Equal(t, 100.0, m.PixelDistance)
	assert.Equal(t, 5.0, m.Scaled)
	assert.Equal(t, types.Centimeters, m.Unit)
}

func TestMeasureUsesHorizontalExtentOnly(t *testing.T) {
	m := Measure(segment("seg", 250.4, 40), 0)
	assert.Equal(t, 210.0, m.PixelDistance)
}

func TestMeasureUncalibrated(t *testing.T) {
	m := Measure(segment("seg", 10, 130), 0)
	assert.Equal(t, types.Pixels, m.Unit)
	assert.Equal(t, m.PixelDistance, m.Scaled)
	assert.Equal(t, 120.0, m.Scaled)
}

func TestMeasureZeroLength(t *testing.T) {
	m := Measure(segment("seg", 42, 42), 0.37)
	assert.Equal(t, 0.0, m.Scaled)
}

func TestScaledIsMonotonic(t *testing.T) {
	scale := 0.43
	prev := -1.0
	for px := 0.0; px <= 2000; px += 7 {
		m := Measure(segment("seg", 0, px), scale)
		assert.GreaterOrEqual(t, m.Scaled, prev)
		prev = m.Scaled
	}
}

func TestMeasureAll(t *testing.T) {
	segs := []types.Segment{segment("a", 0, 10), segment("b", 0, 20)}

	ms, err := MeasureAll(segs, []string{"b", "a"}, 0)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "b", ms[0].SegmentName)

	_, err = MeasureAll(segs, []string{"c"}, 0)
	assert.ErrorIs(t, err, ErrUnresolvedSegment)
}

func TestSumDiffSymmetric(t *testing.T) {
	pairs := [][2]float64{{1.25, 3.5}, {0, 0}, {40.1, 39.95}, {100, 7}}
	for _, p := range pairs {
		assert.Equal(t, Sum(p[0], p[1]), Sum(p[1], p[0]))
		assert.Equal(t, Diff(p[0], p[1]), Diff(p[1], p[0]))
	}
	assert.Equal(t, 4.8, Sum(1.25, 3.5))
	assert.Equal(t, 2.3, Diff(1.2, 3.5))
}

func TestCompareLength(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		expected    string
	}{
		{"equal", 42.5, 42.5, "equal"},
		{"left longer", 44, 40, "left longer (10.0%)"},
		{"right longer", 40, 44, "right longer (10.0%)"},
		{"rounded", 45.3, 45.2, "left longer (0.2%)"},
		{"both zero", 0, 0, ZeroDivision},
		{"one zero", 0, 12, ZeroDivision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareLength(tt.left, tt.right))
		})
	}
}

func TestCompareLengthSwapUsesNewDenominator(t *testing.T) {
	// 50 vs 40: (50-40)/40 = 25%; both orders divide by the shorter side
	assert.Equal(t, "left longer (25.0%)", CompareLength(50, 40))
	assert.Equal(t, "right longer (25.0%)", CompareLength(40, 50))
}

func TestRound(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     float64
	}{
		{2.5, 0, 2},
		{3.5, 0, 4},
		{0.25, 1, 0.2},
		{45.15, 1, 45.1},
		{0.35, 1, 0.3},
		{2.675, 2, 2.67},
		{5.263157894736842, 1, 5.3},
		{-1.25, 1, -1.2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.v, tt.decimals), "Round(%v, %d)", tt.v, tt.decimals)
	}
}

func TestMeasureRoundsStoredValue(t *testing.T) {
	scale := Scale(500, 1000)
	assert.Equal(t, 45.1, Measure(segment("seg", 0, 903), scale).Scaled)
	assert.Equal(t, 0.3, Measure(segment("seg", 0, 7), scale).Scaled)
	assert.Equal(t, 0.8, Measure(segment("seg", 0, 15), scale).Scaled)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "5.0 cm", FormatDistance(5, types.Centimeters))
	assert.Equal(t, "903 px", FormatDistance(903, types.Pixels))
}

func TestAggregateLimbs(t *testing.T) {
	ms := []types.Measurement{
		{SegmentName: RightFemur, Scaled: 45.2, Unit: types.Centimeters},
		{SegmentName: LeftFemur, Scaled: 44.9, Unit: types.Centimeters},
		{SegmentName: RightTibia, Scaled: 36.0, Unit: types.Centimeters},
		{SegmentName: LeftTibia, Scaled: 36.0, Unit: types.Centimeters},
	}

	limbs, err := AggregateLimbs(ms)
	require.NoError(t, err)

	assert.Equal(t, "45.2 cm", limbs.Femur.RightText())
	assert.Equal(t, "0.3 cm, right longer (0.7%)", limbs.Femur.DifferenceText())
	assert.Equal(t, "0.0 cm, equal", limbs.Tibia.DifferenceText())
	assert.Equal(t, 81.2, limbs.Total.Right)
	assert.Equal(t, 80.9, limbs.Total.Left)
}

func TestAggregateLimbsMissing(t *testing.T) {
	ms := []types.Measurement{
		{SegmentName: RightFemur, Scaled: 45.2},
		{SegmentName: LeftFemur, Scaled: 44.9},
	}

	_, err := AggregateLimbs(ms)
	assert.ErrorIs(t, err, ErrMissingSegment)
	assert.Contains(t, err.Error(), RightTibia)
	assert.Contains(t, err.Error(), LeftTibia)
}

func TestIsRight(t *testing.T) {
	assert.True(t, IsRight(RightFemur))
	assert.False(t, IsRight(LeftTibia))
	assert.False(t, IsRight("right femur"))
}

func BenchmarkAggregateLimbs(b *testing.B) {
	ms := []types.Measurement{
		{SegmentName: RightFemur, Scaled: 45.2},
		{SegmentName: LeftFemur, Scaled: 44.9},
		{SegmentName: RightTibia, Scaled: 36.0},
		{SegmentName: LeftTibia, Scaled: 36.1},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AggregateLimbs(ms)
	}
}

// Package annotate runs the per-record annotation pass: it loads the
// radiograph, draws landmarks and segment guides, measures the limb
// segments, lays out the summary column and writes the image and report.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/menta2k/markimg/internal/utils"
	"github.com/menta2k/markimg/pkg/anchor"
	"github.com/menta2k/markimg/pkg/measure"
	"github.com/menta2k/markimg/pkg/render"
	"github.com/menta2k/markimg/pkg/report"
	"github.com/menta2k/markimg/pkg/types"
)

// CalibrationWarning is shown and reported when a record has no usable scale
const CalibrationWarning = "Warning: no calibration (origHeight) found, distances are in px"

// ImageIO is the image codec capability used by the driver
type ImageIO interface {
	LoadImage(path string) (image.Image, error)
	SaveImage(img image.Image, path, format string) error
	Rotate90CW(img image.Image) image.Image
	FitWidth(img image.Image, width int) image.Image
}

// Caption is the free-form text added below the report column
type Caption struct {
	Text   string
	Pos    string
	Offset report.Offset
	Style  render.TextStyle
}

// Options controls drawing and output
type Options struct {
	InputDir  string
	ImageName string
	OutputDir string
	// Format of the annotated image: png, jpg or webp
	Format string

	Point       render.PointStyle
	Line        render.LineStyle
	GuideMargin float64

	Text       render.TextStyle
	TextPos    string
	LineGap    float64
	TextMargin float64

	Caption Caption

	// PerRecordReports writes <id>.json per record instead of one combined file
	PerRecordReports bool
}

// Driver annotates prediction records one at a time
type Driver struct {
	io        ImageIO
	newCanvas render.Factory
	opts      Options
	logger    *slog.Logger
}

// NewDriver creates a driver. A nil logger uses slog.Default().
func NewDriver(io ImageIO, newCanvas render.Factory, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{io: io, newCanvas: newCanvas, opts: opts, logger: logger}
}

// WithLogger returns a copy of the driver that logs to logger
func (d *Driver) WithLogger(logger *slog.Logger) *Driver {
	c := *d
	c.logger = logger
	return &c
}

// Result summarizes a batch run
type Result struct {
	Reports     types.ReportSet
	ImagePaths  []string
	ReportPaths []string
	Failed      []string
}

// Run processes records in order. A failing record is logged and skipped;
// the returned error joins all record failures.
func (d *Driver) Run(ctx context.Context, records []types.RecordInput) (Result, error) {
	var res Result
	var errs []error

	if err := utils.EnsureDir(d.opts.OutputDir); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		logger := d.logger.With("record", rec.ID)
		out, err := d.ProcessRecord(rec)
		if err != nil {
			logger.Error("record failed", "error", err)
			res.Failed = append(res.Failed, rec.ID)
			errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
			continue
		}
		res.ImagePaths = append(res.ImagePaths, out.ImagePath)

		entry := types.ReportEntry{ID: rec.ID, Report: out.Report}
		res.Reports = append(res.Reports, entry)

		if d.opts.PerRecordReports {
			path, err := writeReport(d.opts.OutputDir, rec.ID, types.ReportSet{entry})
			if err != nil {
				errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
				continue
			}
			res.ReportPaths = append(res.ReportPaths, path)
		}
		logger.Info("record annotated", "image", out.ImagePath)
	}

	// The combined report is named after the last record that made it
	// into the set, matching the historical output layout.
	if !d.opts.PerRecordReports && len(res.Reports) > 0 {
		last := res.Reports[len(res.Reports)-1].ID
		path, err := writeReport(d.opts.OutputDir, last, res.Reports)
		if err != nil {
			errs = append(errs, err)
		} else {
			res.ReportPaths = append(res.ReportPaths, path)
		}
	}

	return res, errors.Join(errs...)
}

// Output is the result of one annotated record
type Output struct {
	Report    types.Report
	ImagePath string
}

// ProcessRecord annotates a single record and writes its image
func (d *Driver) ProcessRecord(rec types.RecordInput) (Output, error) {
	if rec.Err != nil {
		return Output{}, rec.Err
	}
	logger := d.logger.With("record", rec.ID)

	// LOAD_IMAGE
	path, err := d.locateImage(rec.ID)
	if err != nil {
		return Output{}, err
	}
	img, err := d.io.LoadImage(path)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %s: %v", utils.ErrMissingResource, path, err)
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	logger.Debug("image loaded", "path", path, "width", width, "height", height)

	cv := d.newCanvas(width, height)
	defer cv.Clear()
	cv.DrawImage(img)

	// DRAW_POINTS
	index := measure.ResolveLandmarks(rec.Landmarks)
	for _, l := range rec.Landmarks {
		cv.PlotPoint(l.Point, d.opts.Point)
	}

	// DRAW_SEGMENTS
	segments, err := measure.BuildSegments(index, rec.Segments)
	if err != nil {
		return Output{}, err
	}
	for _, s := range segments {
		d.drawSegment(cv, s, float64(height))
	}

	// COMPUTE_MEASUREMENTS
	scale := measure.Scale(rec.OrigHeight, width)
	measurements, err := measure.MeasureAll(segments, rec.MeasureNames, scale)
	if err != nil {
		return Output{}, err
	}
	limbs, err := measure.AggregateLimbs(measurements)
	if err != nil {
		return Output{}, err
	}
	for _, m := range measurements {
		for _, s := range segments {
			if s.Name == m.SegmentName {
				d.labelSegment(cv, s, m, float64(height))
				break
			}
		}
	}

	var warnings []string
	if scale == 0 {
		logger.Warn("calibration missing, reporting pixel distances", "origHeight", rec.OrigHeight)
		warnings = append(warnings, CalibrationWarning)
	}

	// LAYOUT_REPORT
	summary := report.Summary{Limbs: limbs}
	for _, f := range rec.Info {
		summary.Info = append(summary.Info, f.Key+": "+f.Text())
	}
	if len(warnings) > 0 {
		summary.Warning = warnings[0]
	}
	placements, err := d.layout(summary, float64(width), float64(height))
	if err != nil {
		return Output{}, err
	}
	for _, p := range placements {
		cv.PlotText(types.Point{X: p.Position.X, Y: p.Position.Y}, p.Text, d.textStyle(p))
	}

	// COMPOSITE_AND_RESIZE
	rendered := cv.Export()
	dpi := float64(width) / float64(rendered.Bounds().Dx()) * 100
	logger.Debug("composited", "rendered_width", rendered.Bounds().Dx(), "dpi", dpi)
	final := d.io.Rotate90CW(d.io.FitWidth(rendered, width))

	// WRITE_OUTPUTS
	outPath := utils.OutputFilename(d.opts.OutputDir, rec.ID, d.opts.Format)
	if err := d.io.SaveImage(final, outPath, d.opts.Format); err != nil {
		return Output{}, fmt.Errorf("failed to save %s: %w", outPath, err)
	}

	pixels := make(map[string]float64, len(measurements))
	for _, m := range measurements {
		pixels[m.SegmentName] = m.PixelDistance
	}

	return Output{
		ImagePath: outPath,
		Report: types.Report{
			Info: rec.Info,
			Femur: types.FemurReport{
				RightFemur: limbs.Femur.RightText(),
				LeftFemur:  limbs.Femur.LeftText(),
				Difference: limbs.Femur.DifferenceText(),
			},
			Tibia: types.TibiaReport{
				RightTibia: limbs.Tibia.RightText(),
				LeftTibia:  limbs.Tibia.LeftText(),
				Difference: limbs.Tibia.DifferenceText(),
			},
			Total: types.TotalReport{
				TotalRight: limbs.Total.RightText(),
				TotalLeft:  limbs.Total.LeftText(),
				Difference: limbs.Total.DifferenceText(),
			},
			PixelDistance: pixels,
			Details:       rec.Details,
			Warnings:      warnings,
		},
	}, nil
}

func (d *Driver) locateImage(id string) (string, error) {
	files, err := utils.FindRecordFiles(d.opts.InputDir, id, d.opts.ImageName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrMissingResource, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no %s for record %s under %s", utils.ErrMissingResource, d.opts.ImageName, id, d.opts.InputDir)
	}
	if len(files) > 1 {
		d.logger.Warn("several images match, using the first", "record", id, "candidates", files)
	}
	return files[0], nil
}

// guideY is the horizontal guide for a segment: near the top edge for the
// right leg, near the bottom edge otherwise
func (d *Driver) guideY(s types.Segment, height float64) float64 {
	if measure.IsRight(s.Name) {
		return d.opts.GuideMargin
	}
	return height - d.opts.GuideMargin
}

func (d *Driver) drawSegment(cv render.Canvas, s types.Segment, height float64) {
	y := d.guideY(s, height)
	a := types.Point{X: s.Start.X, Y: y}
	b := types.Point{X: s.End.X, Y: y}

	cv.PlotLine(s.Start.Point, a, d.opts.Line)
	cv.PlotLine(s.End.Point, b, d.opts.Line)
	cv.PlotLine(a, b, d.opts.Line)
}

func (d *Driver) labelSegment(cv render.Canvas, s types.Segment, m types.Measurement, height float64) {
	y := d.guideY(s, height)
	if measure.IsRight(s.Name) {
		y += d.opts.Text.Size
	} else {
		y -= d.opts.Text.Size / 2
	}

	style := d.opts.Text
	style.Align = float64(report.AlignCenter)
	at := types.Point{X: (s.Start.X + s.End.X) / 2, Y: y}
	cv.PlotText(at, measure.FormatDistance(m.Scaled, m.Unit), style)
}

func (d *Driver) layout(summary report.Summary, width, height float64) ([]report.Placement, error) {
	c := anchor.New(height, width)
	l, err := report.Start(c, d.opts.TextPos, d.opts.TextMargin, d.opts.LineGap)
	if err != nil {
		return nil, err
	}
	flow := report.Compose(l, summary)

	if d.opts.Caption.Text != "" {
		if _, err := report.PlaceCaption(l, c, d.opts.Caption.Text, d.opts.TextPos, d.opts.Caption.Pos, d.opts.Caption.Offset, flow); err != nil {
			return nil, err
		}
	}
	return l.Placements(), nil
}

func (d *Driver) textStyle(p report.Placement) render.TextStyle {
	style := d.opts.Text
	if p.Kind == report.Caption {
		style = d.opts.Caption.Style
	}
	style.Align = float64(p.Align)
	style.Rotation = p.Rotation
	return style
}

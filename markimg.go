// Package markimg annotates leg radiographs with predicted landmarks and
// limb length measurements.
//
// A prediction file maps record ids to landmarks, the segments to draw
// between them and the segments to measure. For every record markimg finds
// the radiograph under the input directory, plots the landmarks, draws the
// femur and tibia guides, measures both legs and writes an annotated image
// and a JSON report.
//
// Basic usage:
//
//	cfg := config.Default()
//	cfg.Input.Dir = "./cases"
//	cfg.Output.Dir = "./annotated"
//
//	m, err := markimg.New(cfg, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := m.Run(context.Background())
//	if err != nil {
//		log.Printf("some records failed: %v", err)
//	}
//	fmt.Println(res.ReportPaths)
//
// The package consists of these components:
//
//  1. Types (pkg/types): prediction parsing and report encoding
//  2. Measure (pkg/measure): distances, calibration and limb comparison
//  3. Report (pkg/report): the text column and caption layout
//  4. Render (pkg/render): the drawing surface
//  5. Annotate (pkg/annotate): the per-record driver
package markimg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/menta2k/markimg/internal/config"
	"github.com/menta2k/markimg/internal/utils"
	"github.com/menta2k/markimg/pkg/annotate"
	"github.com/menta2k/markimg/pkg/processing"
	"github.com/menta2k/markimg/pkg/render"
	"github.com/menta2k/markimg/pkg/report"
	"github.com/menta2k/markimg/pkg/types"
)

// Version of the markimg library
const Version = "1.0.0"

// Annotator runs a configured annotation batch
type Annotator struct {
	cfg    *config.Config
	driver *annotate.Driver
	logger *slog.Logger
}

// New validates cfg and wires the image processor, the canvas and the
// driver. A nil logger uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger) (*Annotator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	processor := processing.NewProcessor()
	processor.Quality = cfg.Output.Quality
	processor.Lossless = cfg.Output.Lossless

	driver := annotate.NewDriver(processor, render.GGFactory(cfg.Output.RenderScale), opts, logger)
	return &Annotator{cfg: cfg, driver: driver, logger: logger}, nil
}

// Options converts a configuration into driver options
func Options(cfg *config.Config) (annotate.Options, error) {
	var opts annotate.Options

	pointColor, err := render.ParseColor(cfg.Points.Color)
	if err != nil {
		return opts, fmt.Errorf("points.color: %w", err)
	}
	lineColor, err := render.ParseColor(cfg.Lines.Color)
	if err != nil {
		return opts, fmt.Errorf("lines.color: %w", err)
	}
	textColor, err := render.ParseColor(cfg.Text.Color)
	if err != nil {
		return opts, fmt.Errorf("text.color: %w", err)
	}
	captionColor, err := render.ParseColor(cfg.Caption.Color)
	if err != nil {
		return opts, fmt.Errorf("caption.color: %w", err)
	}
	offset, err := report.ParseOffset(cfg.Caption.Offset)
	if err != nil {
		return opts, fmt.Errorf("caption.offset: %w", err)
	}

	opts = annotate.Options{
		InputDir:    cfg.Input.Dir,
		ImageName:   cfg.Input.ImageName,
		OutputDir:   cfg.Output.Dir,
		Format:      strings.ToLower(cfg.Output.Format),
		Point:       render.PointStyle{Marker: cfg.Points.Marker, Color: pointColor, Size: cfg.Points.Size},
		Line:        render.LineStyle{Color: lineColor, Width: cfg.Lines.Width},
		GuideMargin: cfg.Lines.GuideMargin,
		Text:        render.TextStyle{Color: textColor, Size: cfg.Text.Size},
		TextPos:     cfg.Text.Pos,
		LineGap:     cfg.Text.LineGap,
		TextMargin:  cfg.Text.Margin,
		Caption: annotate.Caption{
			Text:   cfg.Caption.Text,
			Pos:    cfg.Caption.Pos,
			Offset: offset,
			Style:  render.TextStyle{Color: captionColor, Size: cfg.Caption.Size},
		},
		PerRecordReports: cfg.Output.ReportMode == config.ReportPerRecord,
	}
	return opts, nil
}

// LoadRecords finds the prediction file under the input directory and
// parses its records in file order
func (a *Annotator) LoadRecords() ([]types.RecordInput, error) {
	path, err := utils.FindFile(a.cfg.Input.Dir, a.cfg.Input.JSONName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prediction: %w", err)
	}
	defer f.Close()

	records, err := types.ParsePrediction(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Info("prediction loaded", "path", path, "records", len(records))
	return records, nil
}

// Run annotates every record of the prediction file. Records that fail are
// logged and reported in the joined error; the others are still written.
func (a *Annotator) Run(ctx context.Context) (annotate.Result, error) {
	records, err := a.LoadRecords()
	if err != nil {
		return annotate.Result{}, err
	}
	return a.RunRecords(ctx, records)
}

// RunRecords annotates already parsed records
func (a *Annotator) RunRecords(ctx context.Context, records []types.RecordInput) (annotate.Result, error) {
	runID := uuid.NewString()
	logger := a.logger.With("run", runID)
	logger.Info("annotation started", "records", len(records), "output", a.cfg.Output.Dir)

	d := a.driver.WithLogger(logger)
	res, err := d.Run(ctx, records)

	logger.Info("annotation finished",
		"annotated", len(res.ImagePaths),
		"failed", len(res.Failed),
		"reports", res.ReportPaths)
	return res, err
}

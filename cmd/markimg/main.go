package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/menta2k/markimg"
	"github.com/menta2k/markimg/internal/config"
)

func main() {
	var configPath, saveConfig string
	var verbose, version bool

	cfg := config.Default()
	if path := config.GetConfigPath(); fileExists(path) {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	flag.StringVar(&configPath, "config", "", "configuration file (yaml or json)")
	flag.StringVar(&saveConfig, "save-config", "", "write the effective configuration to this file and exit")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&version, "version", false, "print version and exit")

	in := flag.String("in", cfg.Input.Dir, "input directory holding the prediction file and record images")
	out := flag.String("out", cfg.Output.Dir, "output directory")
	jsonName := flag.String("json", cfg.Input.JSONName, "prediction file name")
	imageName := flag.String("image", cfg.Input.ImageName, "radiograph file name inside each record directory")

	marker := flag.String("marker", cfg.Points.Marker, "landmark marker: o|x|+|.|s")
	pointColor := flag.String("point-color", cfg.Points.Color, "landmark color")
	pointSize := flag.Float64("point-size", cfg.Points.Size, "landmark marker size (px)")

	lineColor := flag.String("line-color", cfg.Lines.Color, "segment guide color")
	lineWidth := flag.Float64("line-width", cfg.Lines.Width, "segment guide width (px)")

	textColor := flag.String("text-color", cfg.Text.Color, "report text color")
	textSize := flag.Float64("text-size", cfg.Text.Size, "report text size (px)")
	textPos := flag.String("text-pos", cfg.Text.Pos, "report column side: left|right")

	caption := flag.String("caption", cfg.Caption.Text, "free-form caption text")
	captionPos := flag.String("caption-pos", cfg.Caption.Pos, "caption position: left|right|top|bottom|across (empty follows the report)")
	captionOffset := flag.String("caption-offset", cfg.Caption.Offset, "caption offset as dx,dy (px)")
	captionSize := flag.Float64("caption-size", cfg.Caption.Size, "caption text size (px)")
	captionColor := flag.String("caption-color", cfg.Caption.Color, "caption color")

	format := flag.String("format", cfg.Output.Format, "annotated image format: png|jpg|webp")
	quality := flag.Int("quality", cfg.Output.Quality, "JPEG/WebP output quality (1-100)")
	lossless := flag.Bool("lossless", cfg.Output.Lossless, "WebP lossless output")
	scale := flag.Float64("scale", cfg.Output.RenderScale, "render supersampling factor")
	reportMode := flag.String("report", cfg.Output.ReportMode, "report mode: combined|per-record")

	flag.Parse()

	if version {
		log.Printf("markimg %s", markimg.Version)
		return
	}

	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	// explicit flags win over the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input.Dir = *in
		case "out":
			cfg.Output.Dir = *out
		case "json":
			cfg.Input.JSONName = *jsonName
		case "image":
			cfg.Input.ImageName = *imageName
		case "marker":
			cfg.Points.Marker = *marker
		case "point-color":
			cfg.Points.Color = *pointColor
		case "point-size":
			cfg.Points.Size = *pointSize
		case "line-color":
			cfg.Lines.Color = *lineColor
		case "line-width":
			cfg.Lines.Width = *lineWidth
		case "text-color":
			cfg.Text.Color = *textColor
		case "text-size":
			cfg.Text.Size = *textSize
		case "text-pos":
			cfg.Text.Pos = *textPos
		case "caption":
			cfg.Caption.Text = *caption
		case "caption-pos":
			cfg.Caption.Pos = *captionPos
		case "caption-offset":
			cfg.Caption.Offset = *captionOffset
		case "caption-size":
			cfg.Caption.Size = *captionSize
		case "caption-color":
			cfg.Caption.Color = *captionColor
		case "format":
			cfg.Output.Format = *format
		case "quality":
			cfg.Output.Quality = *quality
		case "lossless":
			cfg.Output.Lossless = *lossless
		case "scale":
			cfg.Output.RenderScale = *scale
		case "report":
			cfg.Output.ReportMode = *reportMode
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("usage: %s -in input_dir [-out outdir] [-text-pos left|right] [-caption text] [-format png|jpg|webp]: %v",
			filepath.Base(os.Args[0]), err)
	}

	if saveConfig != "" {
		if err := cfg.SaveToFile(saveConfig); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", saveConfig)
		return
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	m, err := markimg.New(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := m.Run(ctx)
	for _, p := range res.ImagePaths {
		log.Printf("wrote %s", p)
	}
	for _, p := range res.ReportPaths {
		log.Printf("wrote %s", p)
	}
	if err != nil {
		stop()
		log.Fatalf("%d record(s) failed: %v", len(res.Failed), err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

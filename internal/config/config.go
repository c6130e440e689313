// Package config loads and validates markimg settings.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/markimg/internal/utils"
	"github.com/menta2k/markimg/pkg/anchor"
	"github.com/menta2k/markimg/pkg/render"
	"github.com/menta2k/markimg/pkg/report"
)

// Report modes
const (
	// ReportCombined writes every record into one file named after the
	// last processed record
	ReportCombined = "combined"
	// ReportPerRecord writes one file per record
	ReportPerRecord = "per-record"
)

// Config holds the application configuration
type Config struct {
	Input   InputConfig   `json:"input" yaml:"input"`
	Points  PointConfig   `json:"points" yaml:"points"`
	Lines   LineConfig    `json:"lines" yaml:"lines"`
	Text    TextConfig    `json:"text" yaml:"text"`
	Caption CaptionConfig `json:"caption" yaml:"caption"`
	Output  OutputConfig  `json:"output" yaml:"output"`
}

// InputConfig names the files looked up under the input directory
type InputConfig struct {
	Dir       string `json:"dir" yaml:"dir"`
	JSONName  string `json:"json_name" yaml:"json_name"`
	ImageName string `json:"image_name" yaml:"image_name"`
}

// PointConfig holds landmark marker settings
type PointConfig struct {
	Marker string  `json:"marker" yaml:"marker"`
	Color  string  `json:"color" yaml:"color"`
	Size   float64 `json:"size" yaml:"size"`
}

// LineConfig holds segment guide settings
type LineConfig struct {
	Color       string  `json:"color" yaml:"color"`
	Width       float64 `json:"width" yaml:"width"`
	GuideMargin float64 `json:"guide_margin" yaml:"guide_margin"`
}

// TextConfig holds report column settings
type TextConfig struct {
	Color   string  `json:"color" yaml:"color"`
	Size    float64 `json:"size" yaml:"size"`
	Pos     string  `json:"pos" yaml:"pos"`
	LineGap float64 `json:"line_gap" yaml:"line_gap"`
	Margin  float64 `json:"margin" yaml:"margin"`
}

// CaptionConfig holds the free-form caption settings
type CaptionConfig struct {
	Text  string  `json:"text" yaml:"text"`
	Size  float64 `json:"size" yaml:"size"`
	Color string  `json:"color" yaml:"color"`
	// Pos is left, right, top, bottom or across; empty follows the report column
	Pos    string `json:"pos" yaml:"pos"`
	Offset string `json:"offset" yaml:"offset"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir         string  `json:"dir" yaml:"dir"`
	Format      string  `json:"format" yaml:"format"`
	Quality     int     `json:"quality" yaml:"quality"`
	Lossless    bool    `json:"lossless" yaml:"lossless"`
	RenderScale float64 `json:"render_scale" yaml:"render_scale"`
	ReportMode  string  `json:"report_mode" yaml:"report_mode"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Dir:       "./input",
			JSONName:  "prediction.json",
			ImageName: "leg.png",
		},
		Points: PointConfig{
			Marker: render.MarkerCircle,
			Color:  "red",
			Size:   10,
		},
		Lines: LineConfig{
			Color:       "white",
			Width:       1,
			GuideMargin: 20,
		},
		Text: TextConfig{
			Color:   "white",
			Size:    20,
			Pos:     anchor.Right,
			LineGap: 30,
			Margin:  10,
		},
		Caption: CaptionConfig{
			Size:   20,
			Color:  "white",
			Offset: "0,0",
		},
		Output: OutputConfig{
			Dir:         "./output",
			Format:      "png",
			Quality:     90,
			RenderScale: 1,
			ReportMode:  ReportCombined,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file on top of the
// defaults. Environment variables in the file are expanded.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML or JSON file
func (c *Config) SaveToFile(filename string) error {
	if err := utils.EnsureDir(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if strings.ToLower(filepath.Ext(filename)) == ".json" {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Input.JSONName == "" {
		return fmt.Errorf("input.json_name cannot be empty")
	}

	if !utils.IsImageFile(c.Input.ImageName) {
		return fmt.Errorf("input.image_name must name an image file: %q", c.Input.ImageName)
	}

	if !render.ValidMarker(c.Points.Marker) {
		return fmt.Errorf("points.marker: %w: %q", render.ErrUnknownMarker, c.Points.Marker)
	}

	for field, col := range map[string]string{
		"points.color":  c.Points.Color,
		"lines.color":   c.Lines.Color,
		"text.color":    c.Text.Color,
		"caption.color": c.Caption.Color,
	} {
		if _, err := render.ParseColor(col); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	if c.Points.Size <= 0 || c.Lines.Width <= 0 || c.Text.Size <= 0 || c.Caption.Size <= 0 {
		return fmt.Errorf("point size, line width and text sizes must be positive")
	}

	if c.Text.Pos != anchor.Left && c.Text.Pos != anchor.Right {
		return fmt.Errorf("text.pos: %w: %q (use left or right)", anchor.ErrUnknownPosition, c.Text.Pos)
	}

	if c.Text.LineGap <= 0 {
		return fmt.Errorf("text.line_gap must be positive")
	}

	if !report.ValidCaptionPosition(c.Caption.Pos) {
		return fmt.Errorf("caption.pos: %w: %q", anchor.ErrUnknownPosition, c.Caption.Pos)
	}

	if _, err := report.ParseOffset(c.Caption.Offset); err != nil {
		return fmt.Errorf("caption.offset: %w", err)
	}

	switch strings.ToLower(c.Output.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("output.format must be png, jpg or webp: %q", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Output.RenderScale <= 0 {
		return fmt.Errorf("output.render_scale must be positive")
	}

	if c.Output.ReportMode != ReportCombined && c.Output.ReportMode != ReportPerRecord {
		return fmt.Errorf("output.report_mode must be %s or %s: %q", ReportCombined, ReportPerRecord, c.Output.ReportMode)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./markimg.yaml"
	}
	return filepath.Join(home, ".config", "markimg", "config.yaml")
}

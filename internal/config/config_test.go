package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/markimg/pkg/anchor"
	"github.com/menta2k/markimg/pkg/report"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "prediction.json", cfg.Input.JSONName)
	assert.Equal(t, "leg.png", cfg.Input.ImageName)
	assert.Equal(t, ReportCombined, cfg.Output.ReportMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"unknown caption position", func(c *Config) { c.Caption.Pos = "middle" }, anchor.ErrUnknownPosition},
		{"text pos center", func(c *Config) { c.Text.Pos = anchor.Center }, anchor.ErrUnknownPosition},
		{"bad offset", func(c *Config) { c.Caption.Offset = "3" }, report.ErrInvalidOffset},
		{"bad color", func(c *Config) { c.Lines.Color = "chartreuse-ish" }, nil},
		{"bad marker", func(c *Config) { c.Points.Marker = "*" }, nil},
		{"bad format", func(c *Config) { c.Output.Format = "tiff" }, nil},
		{"bad quality", func(c *Config) { c.Output.Quality = 0 }, nil},
		{"bad report mode", func(c *Config) { c.Output.ReportMode = "single" }, nil},
		{"non image input", func(c *Config) { c.Input.ImageName = "leg.dcm" }, nil},
		{"zero gap", func(c *Config) { c.Text.LineGap = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestCaptionPositionsAccepted(t *testing.T) {
	for _, pos := range []string{"", "left", "right", "top", "bottom", "across"} {
		cfg := Default()
		cfg.Caption.Pos = pos
		assert.NoError(t, cfg.Validate(), pos)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("MARKIMG_TEST_OUT", "/tmp/out")
	path := filepath.Join(t.TempDir(), "markimg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
text:
  pos: left
  line_gap: 42
caption:
  text: "preliminary"
  pos: across
output:
  dir: ${MARKIMG_TEST_OUT}
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, anchor.Left, cfg.Text.Pos)
	assert.Equal(t, 42.0, cfg.Text.LineGap)
	assert.Equal(t, "preliminary", cfg.Caption.Text)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	// untouched defaults survive
	assert.Equal(t, 20.0, cfg.Text.Size)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markimg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("text:\n  colour: red\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Points.Marker = "x"
	cfg.Output.ReportMode = ReportPerRecord

	for _, name := range []string{"c.json", "c.yaml"} {
		path := filepath.Join(dir, "sub", name)
		require.NoError(t, cfg.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

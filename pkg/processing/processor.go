// Package processing loads, encodes and transforms images.
package processing

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Processor handles image loading, encoding and geometric transforms
type Processor struct {
	// Quality is the JPEG/WebP output quality (1-100)
	Quality int
	// Lossless selects lossless WebP output
	Lossless bool
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{Quality: 90}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.decodeImageFromBytes(data, path)
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte, name string) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown format for %s", name)
}

// SaveImage writes img to path. The format is taken from the extension
// when empty.
func (p *Processor) SaveImage(img image.Image, path, format string) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		opts := &webp.Options{Lossless: p.Lossless, Quality: float32(p.Quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return f.Close()
	case "png":
		return imaging.Save(img, path)
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(p.Quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// Rotate90CW rotates an image a quarter turn clockwise
func (p *Processor) Rotate90CW(img image.Image) image.Image {
	return imaging.Rotate270(img)
}

// FitWidth resizes img to width pixels keeping its aspect ratio. Images
// already at that width are returned unchanged.
func (p *Processor) FitWidth(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() == width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Package image loads wall photos and prepares them for display.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"wallmap/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Photo is a decoded wall photo.
type Photo struct {
	Path  string      // Original file path
	Image image.Image // Decoded pixels, possibly downsampled
	Full  geometry.Size
}

// Load decodes the photo at path. Photos larger than maxDim pixels on
// either side are downsampled; maxDim <= 0 keeps full resolution.
func Load(path string, maxDim int) (*Photo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}
	return FromImage(path, img, maxDim), nil
}

// FromImage wraps an already decoded image.
func FromImage(path string, img image.Image, maxDim int) *Photo {
	b := img.Bounds()
	return &Photo{
		Path:  path,
		Image: Downsample(img, maxDim),
		Full:  geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())},
	}
}

// Size returns the displayed image dimensions in pixels.
func (p *Photo) Size() geometry.Size {
	if p == nil || p.Image == nil {
		return geometry.Size{}
	}
	b := p.Image.Bounds()
	return geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Aspect returns width over height of the original photo, or 0 when empty.
func (p *Photo) Aspect() float64 {
	if p == nil || !p.Full.Valid() {
		return 0
	}
	return p.Full.Width / p.Full.Height
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".jpg", ".jpeg", ".png", ".webp", ".tiff", ".tif", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// FileFilter returns a file filter string for use in file dialogs.
func FileFilter() string {
	return "Image Files (*.jpg, *.jpeg, *.png, *.webp, *.tiff, *.tif, *.bmp)"
}

package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	"image/png"
	"os"
	"path/filepath"
)

// LoadImage decodes an image file from disk.
//
// Supported formats are PNG, JPEG, and GIF. The concrete return type depends
// on the file's color model (e.g., *image.RGBA, *image.NRGBA, *image.YCbCr).
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// LoadGray decodes an image file and converts it to grayscale.
func LoadGray(path string) (*image.Gray, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

// SavePNG writes an image to disk as PNG, creating parent directories as
// needed.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

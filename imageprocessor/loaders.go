package imageprocessor

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

// LoadImage decodes the image at path, applying EXIF orientation when present.
// Any file that no registered decoder accepts fails with ErrDecode.
func LoadImage(path string) (image.Image, ImageMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ImageMeta{}, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	return DecodeImage(f, path)
}

// DecodeImage decodes an image from r; name is only used in error messages
func DecodeImage(r io.ReadSeeker, name string) (image.Image, ImageMeta, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, ImageMeta{}, newImageLoadError(name, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, ImageMeta{}, newImageLoadError(name, fmt.Errorf("empty %s image", format))
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, ImageMeta{}, fmt.Errorf("cannot rewind %s: %w", name, err)
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ImageMeta{}, newImageLoadError(name, err)
	}

	meta := ImageMeta{
		Format: ParseFormat(format),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
	return img, meta, nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(path string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrDecode, path, cause)
}

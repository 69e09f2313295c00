// Package imagecodec decodes input images and encodes emoji tiles.
package imagecodec

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned when no decoder accepts the input.
var ErrUnsupportedFormat = errors.New("unsupported image format or corrupted image")

// MaxImageBytes bounds encoded images read from the network.
const MaxImageBytes = 20 << 20

// Decode reads a whole image from reader and returns it with the name of its
// format. JPEG orientation tags are applied.
func Decode(reader io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", err
	}

	// Detect format using the registered decoders
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err == nil {
			return img, format, nil
		}
	}

	decoders := []struct {
		format string
		decode func(io.Reader) (image.Image, error)
	}{
		{"jpeg", jpeg.Decode},
		{"webp", webp.Decode},
		{"avif", avif.Decode},
		{"tiff", tiff.Decode},
	}
	for _, d := range decoders {
		img, err := d.decode(bytes.NewReader(data))
		if err == nil {
			return img, d.format, nil
		}
	}

	return nil, "", ErrUnsupportedFormat
}

package imagetiler

import (
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

// Scale returns a copy of img whose larger side is at most maxDimension,
// preserving the aspect ratio. A maxDimension of zero or less disables the cap.
func Scale(img image.Image, maxDimension int) *image.NRGBA {
	bounds := img.Bounds()
	imgWidth := bounds.Dx()
	imgHeight := bounds.Dy()

	largest := max(imgWidth, imgHeight)
	if maxDimension <= 0 || largest <= maxDimension {
		return imaging.Clone(img)
	}

	ratio := float64(maxDimension) / float64(largest)
	newWidth := max(1, int(math.Round(float64(imgWidth)*ratio)))
	newHeight := max(1, int(math.Round(float64(imgHeight)*ratio)))
	if imgWidth >= imgHeight {
		newWidth = maxDimension
	} else {
		newHeight = maxDimension
	}

	slog.Debug("Scaling image", "from", image.Pt(imgWidth, imgHeight), "to", image.Pt(newWidth, newHeight))
	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
}

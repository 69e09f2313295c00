package imagetiler

import (
	"image"

	"github.com/disintegration/imaging"
)

// BuildBase cover-crops img around its center to the planned size. With
// square set the result is a square whose side is the plan's shorter side.
func BuildBase(img image.Image, plan Plan, square bool) *image.NRGBA {
	if square {
		side := min(plan.Height, plan.Width)
		return cover(img, side, side)
	}
	return cover(img, plan.Width, plan.Height)
}

// Derive re-covers a canonical base image to a size×size emoji of tileSize tiles.
func Derive(base image.Image, size Size, tileSize int) *image.NRGBA {
	side := int(size) * tileSize
	return cover(base, side, side)
}

func cover(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
}

package imagetiler

import (
	"fmt"
	"image"
	"math"
)

const (
	// DefaultTileSize is the side of a single emoji tile in pixels.
	DefaultTileSize = 128
	// DefaultRatioThreshold is the largest aspect ratio drift accepted for a
	// rectangular plan.
	DefaultRatioThreshold = 0.1
)

// Policy controls the shape of a Plan. A zero TileSize selects
// DefaultTileSize.
type Policy struct {
	TileSize int
	// Rectangular permits a non-square plan when the tile-aligned aspect
	// ratio stays within RatioThreshold of the original. Zero accepts only
	// an aligned box that is not relatively shorter than the original.
	Rectangular    bool
	RatioThreshold float64
}

func (p Policy) withDefaults() Policy {
	if p.TileSize <= 0 {
		p.TileSize = DefaultTileSize
	}
	return p
}

// Plan is the tile-aligned working size of an image. Height and Width are
// always whole multiples of TileSize.
type Plan struct {
	Height   int
	Width    int
	TileSize int
	Rows     int
	Columns  int
}

func newPlan(height, width, tileSize int) Plan {
	return Plan{
		Height:   height,
		Width:    width,
		TileSize: tileSize,
		Rows:     height / tileSize,
		Columns:  width / tileSize,
	}
}

// Square reports whether the plan has as many rows as columns.
func (p Plan) Square() bool {
	return p.Rows == p.Columns
}

// NewPlan computes the largest tile-aligned box for img under policy p.
// It returns ErrTooSmall when either side is shorter than one tile.
//
// In rectangular mode the drift check is one-sided: only an aligned box that
// is relatively shorter than the original falls back to a square.
func NewPlan(img image.Image, p Policy) (Plan, error) {
	p = p.withDefaults()
	if p.RatioThreshold < 0 || math.IsNaN(p.RatioThreshold) {
		return Plan{}, fmt.Errorf("%w: %v", ErrInvalidRatio, p.RatioThreshold)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	alignedHeight := height - height%p.TileSize
	alignedWidth := width - width%p.TileSize
	if alignedHeight == 0 || alignedWidth == 0 {
		return Plan{}, &DimensionError{Err: ErrTooSmall, Width: width, Height: height, TileSize: p.TileSize}
	}

	if p.Rectangular {
		drift := float64(height)/float64(width) - float64(alignedHeight)/float64(alignedWidth)
		if drift <= p.RatioThreshold {
			return newPlan(alignedHeight, alignedWidth, p.TileSize), nil
		}
	}

	d := min(alignedHeight, alignedWidth)
	return newPlan(d, d, p.TileSize), nil
}

package imagetiler

import (
	"errors"
	"fmt"
)

var (
	// ErrTooSmall is returned by NewPlan when the image cannot hold a single
	// tile in one of its dimensions.
	ErrTooSmall = errors.New("image too small")
	// ErrNotSquare is returned by Validate for a base image whose sides differ.
	ErrNotSquare = errors.New("image is not a square")
	// ErrNotTileable is returned when a side is not a whole multiple of the tile size.
	ErrNotTileable = errors.New("image is not tileable")
	// ErrTilingFailed is matched by every *TilingError.
	ErrTilingFailed = errors.New("tiling failed")
	// ErrInvalidSize is returned by ParseSize and for sizes out of range.
	ErrInvalidSize = errors.New("invalid emoji size")
	// ErrInvalidRatio is returned for a negative ratio threshold.
	ErrInvalidRatio = errors.New("ratio threshold must not be negative")
)

// DimensionError reports an image whose size breaks a tiling precondition.
type DimensionError struct {
	Err      error
	Width    int
	Height   int
	TileSize int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: %dx%d with %dpx tiles", e.Err, e.Width, e.Height, e.TileSize)
}

func (e *DimensionError) Unwrap() error {
	return e.Err
}

// TilingError wraps a failure while cutting a single tile. It matches
// ErrTilingFailed with errors.Is.
type TilingError struct {
	Row    int
	Column int
	Err    error
}

func (e *TilingError) Error() string {
	return fmt.Sprintf("tiling failed at row %d, column %d: %v", e.Row, e.Column, e.Err)
}

func (e *TilingError) Is(target error) bool {
	return target == ErrTilingFailed
}

func (e *TilingError) Unwrap() error {
	return e.Err
}

package imagetiler

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Grid holds tiles in row-major order: Grid[row][column].
type Grid [][]image.Image

// Rows returns the number of tile rows.
func (g Grid) Rows() int {
	return len(g)
}

// Columns returns the number of tiles in each row.
func (g Grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Validate checks that img is a square whose side is a whole, non-zero number
// of tiles and returns how many tiles fit along that side.
func Validate(img image.Image, tileSize int) (Size, error) {
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return 0, &DimensionError{Err: ErrNotSquare, Width: b.Dx(), Height: b.Dy(), TileSize: tileSize}
	}
	if tileSize <= 0 || b.Dx() == 0 || b.Dx()%tileSize != 0 {
		return 0, &DimensionError{Err: ErrNotTileable, Width: b.Dx(), Height: b.Dy(), TileSize: tileSize}
	}
	return Size(b.Dx() / tileSize), nil
}

// Tile validates a square base image and cuts it into tileSize tiles.
func Tile(img image.Image, tileSize int) (Grid, error) {
	if _, err := Validate(img, tileSize); err != nil {
		return nil, err
	}
	return cutTiles(img, tileSize)
}

// Cut splits img into tileSize tiles without requiring a square image. Both
// sides must still be whole multiples of tileSize.
func Cut(img image.Image, tileSize int) (Grid, error) {
	b := img.Bounds()
	if tileSize <= 0 || b.Empty() || b.Dx()%tileSize != 0 || b.Dy()%tileSize != 0 {
		return nil, &DimensionError{Err: ErrNotTileable, Width: b.Dx(), Height: b.Dy(), TileSize: tileSize}
	}
	return cutTiles(img, tileSize)
}

func cutTiles(img image.Image, tileSize int) (Grid, error) {
	bounds := img.Bounds()
	rows := bounds.Dy() / tileSize
	columns := bounds.Dx() / tileSize

	grid := make(Grid, rows)
	for i := 0; i < rows; i++ {
		row := make([]image.Image, columns)
		for j := 0; j < columns; j++ {
			rect := image.Rect(j*tileSize, i*tileSize, (j+1)*tileSize, (i+1)*tileSize).Add(bounds.Min)
			tile, err := cropTile(img, rect)
			if err != nil {
				return nil, &TilingError{Row: i, Column: j, Err: err}
			}
			row[j] = tile
		}
		grid[i] = row
	}
	return grid, nil
}

// cropTile copies rect out of img. imaging.Crop clips silently, so a short
// result is reported rather than returned.
func cropTile(img image.Image, rect image.Rectangle) (tile image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crop %v: %v", rect, r)
		}
	}()

	cropped := imaging.Crop(img, rect)
	if cropped.Bounds().Size() != rect.Size() {
		return nil, fmt.Errorf("crop %v: got %v", rect, cropped.Bounds().Size())
	}
	return cropped, nil
}

package imagetiler

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeSquare    Mode = "square"
	ModeRectangle Mode = "rectangle"
)

// ParseMode validates a mode name.
func ParseMode(value string) (Mode, error) {
	switch m := Mode(value); m {
	case ModeSquare, ModeRectangle:
		return m, nil
	case "":
		return ModeSquare, nil
	default:
		return "", fmt.Errorf("unknown mode %q: want %q or %q", value, ModeSquare, ModeRectangle)
	}
}

// DefaultMaxDimension caps the input image before planning.
const DefaultMaxDimension = 768

type Options struct {
	TileSize       int
	MaxDimension   int
	RatioThreshold float64
	Mode           Mode
	// Sizes to produce in square mode. Empty selects AvailableSizes.
	Sizes []Size
}

// DefaultOptions returns the options used by the command line tool.
func DefaultOptions() Options {
	return Options{
		TileSize:       DefaultTileSize,
		MaxDimension:   DefaultMaxDimension,
		RatioThreshold: DefaultRatioThreshold,
		Mode:           ModeSquare,
	}
}

// Emoji is one mosaic: a grid of tiles meant to be posted side by side.
type Emoji struct {
	Label string
	Size  Size
	Grid  Grid
}

// Mosaic is the outcome of MakeImageTiles.
type Mosaic struct {
	Plan   Plan
	Base   image.Image
	Emojis []Emoji
}

// Prepare scales img and builds the canonical base image for options.
func Prepare(img image.Image, options Options) (Plan, image.Image, error) {
	scaled := Scale(img, options.MaxDimension)

	plan, err := NewPlan(scaled, Policy{
		TileSize:       options.TileSize,
		Rectangular:    options.Mode == ModeRectangle,
		RatioThreshold: options.RatioThreshold,
	})
	if err != nil {
		return Plan{}, nil, err
	}
	slog.Debug("Planned dimensions", "width", plan.Width, "height", plan.Height, "rows", plan.Rows, "columns", plan.Columns)

	base := BuildBase(scaled, plan, options.Mode != ModeRectangle)
	return plan, base, nil
}

// MakeImageTiles runs the whole pipeline on img. Sizes are tiled
// concurrently; the first failure cancels the rest and is returned.
func MakeImageTiles(ctx context.Context, img image.Image, options Options) (*Mosaic, error) {
	if options.TileSize <= 0 {
		options.TileSize = DefaultTileSize
	}

	plan, base, err := Prepare(img, options)
	if err != nil {
		return nil, err
	}

	if options.Mode == ModeRectangle {
		grid, err := Cut(base, options.TileSize)
		if err != nil {
			return nil, err
		}
		emoji := Emoji{
			Label: fmt.Sprintf("%dx%d", grid.Columns(), grid.Rows()),
			Size:  Size(max(grid.Columns(), grid.Rows())),
			Grid:  grid,
		}
		return &Mosaic{Plan: plan, Base: base, Emojis: []Emoji{emoji}}, nil
	}

	maxSize, err := Validate(base, options.TileSize)
	if err != nil {
		return nil, err
	}
	sizes := options.Sizes
	if len(sizes) == 0 {
		sizes = AvailableSizes(min(maxSize, SizeLimit(options.TileSize)))
	}
	if err := checkSizes(sizes, options.TileSize); err != nil {
		return nil, err
	}

	emojis, err := tileSizes(ctx, base, options.TileSize, sizes)
	if err != nil {
		return nil, err
	}
	return &Mosaic{Plan: plan, Base: base, Emojis: emojis}, nil
}

func tileSizes(ctx context.Context, base image.Image, tileSize int, sizes []Size) ([]Emoji, error) {
	emojis := make([]Emoji, len(sizes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, size := range sizes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slog.Debug("Tiling emoji", "size", size.Label())

			grid, err := Tile(Derive(base, size, tileSize), tileSize)
			if err != nil {
				return fmt.Errorf("size %s: %w", size.Label(), err)
			}
			emojis[i] = Emoji{Label: size.Label(), Size: size, Grid: grid}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(emojis, func(a, b Emoji) int { return int(a.Size - b.Size) })
	return emojis, nil
}

// Package output lays emoji tiles out on disk and in zip archives.
//
// Every emoji set lives under its name:
//
//	{name}/original.{ext}
//	{name}/{C}x{R}/{name}-{row}-{column}.{ext}
//
// Rows and columns are counted from zero, top to bottom and left to right.
package output

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagecodec"
	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
)

// ErrInvalidName is returned for emoji names that are empty or would escape
// the output directory.
var ErrInvalidName = errors.New("invalid emoji name")

// ValidateName checks that name can be used as an emoji and directory name.
func ValidateName(name string) error {
	n := strings.TrimSpace(name)
	switch {
	case n == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case n != name:
		return fmt.Errorf("%w: %q has surrounding spaces", ErrInvalidName, name)
	case n == "." || n == ".." || strings.ContainsAny(n, `/\`):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// TilePath returns the slash separated path of a tile relative to the
// output root.
func TilePath(name, label string, row, column int, f imagecodec.Format) string {
	return path.Join(name, label, fmt.Sprintf("%s-%d-%d.%s", name, row, column, f.Extension()))
}

// OriginalPath returns the path of the base image relative to the output root.
func OriginalPath(name string, f imagecodec.Format) string {
	return path.Join(name, "original."+f.Extension())
}

// Writer writes mosaics below Root.
type Writer struct {
	Root   string
	Format imagecodec.Format
}

// Write replaces {Root}/{name} with the tiles of m and returns that
// directory. Each size is staged in a hidden directory and renamed into
// place once complete, so a failed size leaves nothing behind.
func (w *Writer) Write(ctx context.Context, name string, m *imagetiler.Mosaic) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	dir := filepath.Join(w.Root, name)
	if err := os.RemoveAll(dir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output dir: %w", err)
	}

	if err := saveImage(filepath.Join(w.Root, filepath.FromSlash(OriginalPath(name, w.Format))), m.Base, w.Format); err != nil {
		return "", err
	}

	for _, emoji := range m.Emojis {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := w.writeEmoji(dir, name, emoji); err != nil {
			return "", fmt.Errorf("size %s: %w", emoji.Label, err)
		}
		slog.Debug("Wrote emoji", "name", name, "size", emoji.Label)
	}
	return dir, nil
}

func (w *Writer) writeEmoji(dir, name string, emoji imagetiler.Emoji) error {
	staging, err := os.MkdirTemp(dir, "."+emoji.Label+"-")
	if err != nil {
		return err
	}

	for i, row := range emoji.Grid {
		for j, tile := range row {
			file := filepath.Join(staging, filepath.Base(TilePath(name, emoji.Label, i, j, w.Format)))
			if err := saveImage(file, tile, w.Format); err != nil {
				os.RemoveAll(staging)
				return err
			}
		}
	}

	if err := os.Chmod(staging, 0o755); err != nil {
		os.RemoveAll(staging)
		return err
	}
	if err := os.Rename(staging, filepath.Join(dir, emoji.Label)); err != nil {
		os.RemoveAll(staging)
		return err
	}
	return nil
}

func saveImage(file string, img image.Image, f imagecodec.Format) error {
	out, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := imagecodec.Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

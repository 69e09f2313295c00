package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagecodec"
	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
)

// Manifest summarises one run. It is written next to the emoji directory as
// {name}.json so that it is not swept up when the directory is replaced.
type Manifest struct {
	Name      string          `json:"name"`
	Source    string          `json:"source"`
	Processed time.Time       `json:"processed"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	TileSize  int             `json:"tileSize"`
	Original  string          `json:"original"`
	Emojis    []ManifestEmoji `json:"emojis"`
}

type ManifestEmoji struct {
	Label   string `json:"label"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	// Tiles holds relative tile paths in row-major order.
	Tiles []string `json:"tiles"`
}

func NewManifest(name, source string, m *imagetiler.Mosaic, f imagecodec.Format) Manifest {
	manifest := Manifest{
		Name:      name,
		Source:    source,
		Processed: time.Now().UTC(),
		Width:     m.Plan.Width,
		Height:    m.Plan.Height,
		TileSize:  m.Plan.TileSize,
		Original:  OriginalPath(name, f),
	}

	for _, emoji := range m.Emojis {
		e := ManifestEmoji{
			Label:   emoji.Label,
			Rows:    emoji.Grid.Rows(),
			Columns: emoji.Grid.Columns(),
		}
		for i, row := range emoji.Grid {
			for j := range row {
				e.Tiles = append(e.Tiles, TilePath(name, emoji.Label, i, j, f))
			}
		}
		manifest.Emojis = append(manifest.Emojis, e)
	}
	return manifest
}

// WriteManifest writes manifest to {root}/{name}.json and returns the path.
func WriteManifest(root string, manifest Manifest) (string, error) {
	if err := ValidateName(manifest.Name); err != nil {
		return "", err
	}

	jsonData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling manifest: %w", err)
	}

	file := filepath.Join(root, manifest.Name+".json")
	if err := os.WriteFile(file, jsonData, 0o644); err != nil {
		return "", fmt.Errorf("error writing manifest: %w", err)
	}
	return file, nil
}

package output

import (
	"archive/zip"
	"io"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagecodec"
	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
)

// WriteZip writes the same layout as Writer into a zip archive.
func WriteZip(w io.Writer, name string, m *imagetiler.Mosaic, f imagecodec.Format) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	if err := addEntry(zw, OriginalPath(name, f), func(out io.Writer) error {
		return imagecodec.Encode(out, m.Base, f)
	}); err != nil {
		return err
	}

	for _, emoji := range m.Emojis {
		for i, row := range emoji.Grid {
			for j, tile := range row {
				if err := addEntry(zw, TilePath(name, emoji.Label, i, j, f), func(out io.Writer) error {
					return imagecodec.Encode(out, tile, f)
				}); err != nil {
					return err
				}
			}
		}
	}
	return zw.Close()
}

func addEntry(zw *zip.Writer, name string, write func(io.Writer) error) error {
	// Encoded images are already compressed.
	entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return err
	}
	return write(entry)
}

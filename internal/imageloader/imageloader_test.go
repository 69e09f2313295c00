package imageloader

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagecodec"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	require.NoError(t, png.Encode(f, img))
}

func TestLoadImageFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "party.png")
	writePNG(t, path, 300, 200)

	img, format, err := LoadImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Pt(300, 200), img.Bounds().Size())
}

func TestLoadImageMissingFile(t *testing.T) {
	_, _, err := LoadImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadImageUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, _, err := LoadImage(context.Background(), path)
	assert.ErrorIs(t, err, imagecodec.ErrUnsupportedFormat)
}

func TestLoadImageUnknownProtocol(t *testing.T) {
	_, _, err := LoadImage(context.Background(), "ftp://example.com/cat.png")
	assert.ErrorContains(t, err, "unknown protocol")
}

func TestLoadImageFromURL(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cat.png"), 256, 256)
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()

	img, format, err := LoadImage(context.Background(), srv.URL+"/cat.png")
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Pt(256, 256), img.Bounds().Size())

	_, _, err = LoadImage(context.Background(), srv.URL+"/dog.png")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestLoadImageFromURLTooLarge(t *testing.T) {
	limit := maxDownloadBytes
	maxDownloadBytes = 64
	t.Cleanup(func() { maxDownloadBytes = limit })

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cat.png"), 256, 256)

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		// Flushing first drops the Content-Length header.
		w.Write(bytes.Repeat([]byte{0}, 32))
		w.(http.Flusher).Flush()
		w.Write(bytes.Repeat([]byte{0}, 64))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := LoadImage(context.Background(), srv.URL+"/cat.png")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, err = LoadImage(context.Background(), srv.URL+"/stream")
	assert.ErrorIs(t, err, ErrTooLarge)
}

package cli

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
	"github.com/StrongerSoftworks/emoji-tiler/internal/prompt"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}

	file := filepath.Join(dir, "source.png")
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return file
}

func testOptions() imagetiler.Options {
	options := imagetiler.DefaultOptions()
	options.TileSize = 16
	return options
}

type fakePrompter struct {
	asked   prompt.Questions
	answers prompt.Answers
	err     error
}

func (p *fakePrompter) Ask(ctx context.Context, q prompt.Questions) (prompt.Answers, error) {
	p.asked = q
	return p.answers, p.err
}

type fakePublisher struct {
	dirs []string
	err  error
}

func (p *fakePublisher) UploadDir(ctx context.Context, dir string) ([]string, error) {
	p.dirs = append(p.dirs, dir)
	return []string{"key"}, p.err
}

func TestRunWithFlags(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "out")
	options := testOptions()
	options.Sizes = []imagetiler.Size{2}

	pub := &fakePublisher{}
	dir, err := run(context.Background(), job{
		Source:   writePNG(t, tmp, 64, 48),
		Name:     "cat",
		Options:  options,
		Output:   out,
		Manifest: true,
	}, nil, false, pub)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "cat"), dir)
	assert.FileExists(t, filepath.Join(out, "cat", "original.png"))
	assert.FileExists(t, filepath.Join(out, "cat", "2x2", "cat-1-1.png"))
	assert.NoDirExists(t, filepath.Join(out, "cat", "3x3"))
	assert.FileExists(t, filepath.Join(out, "cat.json"))
	assert.Equal(t, []string{dir}, pub.dirs)
}

func TestRunPromptsForMissingAnswers(t *testing.T) {
	tmp := t.TempDir()
	p := &fakePrompter{answers: prompt.Answers{
		Name:  "dog",
		Mode:  imagetiler.ModeSquare,
		Sizes: []imagetiler.Size{3},
	}}

	dir, err := run(context.Background(), job{
		Source:  writePNG(t, tmp, 64, 48),
		Options: testOptions(),
		Output:  tmp,
	}, p, true, nil)
	require.NoError(t, err)

	assert.Equal(t, "", p.asked.Name)
	assert.True(t, p.asked.AskMode)
	assert.Equal(t, []imagetiler.Size{2, 3}, p.asked.Sizes)
	assert.FileExists(t, filepath.Join(dir, "3x3", "dog-2-2.png"))
	assert.NoDirExists(t, filepath.Join(dir, "2x2"))
}

func TestRunPromptRectangle(t *testing.T) {
	tmp := t.TempDir()
	p := &fakePrompter{answers: prompt.Answers{Name: "wide", Mode: imagetiler.ModeRectangle}}

	dir, err := run(context.Background(), job{
		Source:  writePNG(t, tmp, 48, 32),
		Options: testOptions(),
		Output:  tmp,
	}, p, true, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "3x2", "wide-1-2.png"))
}

func TestRunPromptAborted(t *testing.T) {
	tmp := t.TempDir()
	p := &fakePrompter{err: prompt.ErrAborted}

	_, err := run(context.Background(), job{
		Source:  writePNG(t, tmp, 64, 48),
		Options: testOptions(),
		Output:  tmp,
	}, p, false, nil)
	assert.ErrorIs(t, err, prompt.ErrAborted)
}

func TestRunRequiresName(t *testing.T) {
	tmp := t.TempDir()
	options := testOptions()
	options.Sizes = []imagetiler.Size{2}

	_, err := run(context.Background(), job{
		Source:  writePNG(t, tmp, 64, 48),
		Options: options,
		Output:  tmp,
	}, nil, false, nil)
	assert.EqualError(t, err, "emoji name is required (use --name)")
}

func TestRunImageTooSmall(t *testing.T) {
	tmp := t.TempDir()
	options := testOptions()
	options.TileSize = 128

	_, err := run(context.Background(), job{
		Source:  writePNG(t, tmp, 64, 48),
		Name:    "tiny",
		Options: options,
		Output:  tmp,
	}, nil, false, nil)
	assert.ErrorIs(t, err, imagetiler.ErrTooSmall)
	assert.NoDirExists(t, filepath.Join(tmp, "tiny"))
}

func TestRunPublishError(t *testing.T) {
	tmp := t.TempDir()
	options := testOptions()
	options.Sizes = []imagetiler.Size{2}

	_, err := run(context.Background(), job{
		Source:  writePNG(t, tmp, 64, 48),
		Name:    "cat",
		Options: options,
		Output:  tmp,
	}, nil, false, &fakePublisher{err: errors.New("bucket gone")})
	assert.ErrorContains(t, err, "error publishing cat: bucket gone")
}

func TestReadBatchList(t *testing.T) {
	list := `
# emoji for the team channel
parrot.gif party-parrot
images/stonks.png
https://example.com/img/this-is-fine.jpg?size=large
`
	items, err := readBatchList(strings.NewReader(list))
	require.NoError(t, err)
	assert.Equal(t, []batchItem{
		{Source: "parrot.gif", Name: "party-parrot"},
		{Source: "images/stonks.png", Name: "stonks"},
		{Source: "https://example.com/img/this-is-fine.jpg?size=large", Name: "this-is-fine"},
	}, items)

	_, err = readBatchList(strings.NewReader("a.png b c"))
	assert.ErrorContains(t, err, "line 1")
}

func TestEngineOptions(t *testing.T) {
	set := func(key string, value any) {
		viper.Set(key, value)
		t.Cleanup(func() { viper.Set(key, nil) })
	}

	options, err := engineOptions()
	require.NoError(t, err)
	assert.Equal(t, imagetiler.DefaultOptions(), options)

	set("sizes", []string{"lg", "2"})
	set("mode", "rectangle")
	set("tile-size", 64)
	options, err = engineOptions()
	require.NoError(t, err)
	assert.Equal(t, []imagetiler.Size{2, 4}, options.Sizes)
	assert.Equal(t, imagetiler.ModeRectangle, options.Mode)
	assert.Equal(t, 64, options.TileSize)

	set("ratio-threshold", 0.0)
	options, err = engineOptions()
	require.NoError(t, err)
	assert.Zero(t, options.RatioThreshold)

	set("ratio-threshold", -0.5)
	_, err = engineOptions()
	assert.ErrorIs(t, err, imagetiler.ErrInvalidRatio)
	set("ratio-threshold", nil)

	set("tile-size", 2048)
	_, err = engineOptions()
	assert.ErrorIs(t, err, imagetiler.ErrInvalidSize)
	set("tile-size", 64)

	set("mode", "triangle")
	_, err = engineOptions()
	assert.Error(t, err)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagecodec"
	"github.com/StrongerSoftworks/emoji-tiler/internal/imageloader"
	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
	"github.com/StrongerSoftworks/emoji-tiler/internal/output"
	"github.com/StrongerSoftworks/emoji-tiler/internal/prompt"
	"github.com/StrongerSoftworks/emoji-tiler/internal/storage"
)

// job is one image to turn into emoji.
type job struct {
	Source   string
	Name     string
	Options  imagetiler.Options
	Output   string
	Manifest bool
}

type publisher interface {
	UploadDir(ctx context.Context, dir string) ([]string, error)
}

func newPublisher(ctx context.Context) (*storage.Uploader, error) {
	return storage.NewUploader(ctx, storage.Config{
		Endpoint:  viper.GetString("s3.endpoint"),
		Region:    viper.GetString("s3.region"),
		AccessKey: viper.GetString("s3.access-key"),
		SecretKey: viper.GetString("s3.secret-key"),
		Bucket:    viper.GetString("s3.bucket"),
		Prefix:    viper.GetString("s3.prefix"),
	})
}

// run loads the image, fills in missing answers with prompter (when not nil)
// and processes the job. askMode offers the rectangle shape as well.
func run(ctx context.Context, j job, prompter prompt.Prompter, askMode bool, pub publisher) (string, error) {
	start := time.Now()
	slog.Info("Processing image", "imagePath", j.Source)

	img, format, err := imageloader.LoadImage(ctx, j.Source)
	if err != nil {
		return "", err
	}

	needsSizes := j.Options.Mode == imagetiler.ModeSquare && len(j.Options.Sizes) == 0
	if prompter != nil && (j.Name == "" || needsSizes || askMode) {
		q := prompt.Questions{Name: j.Name, AskMode: askMode}
		if needsSizes {
			if q.Sizes, err = offeredSizes(img, j.Options); err != nil {
				return "", err
			}
		}

		answers, err := prompter.Ask(ctx, q)
		if err != nil {
			return "", err
		}
		j.Name = answers.Name
		if askMode {
			j.Options.Mode = answers.Mode
		}
		if len(answers.Sizes) > 0 {
			j.Options.Sizes = answers.Sizes
		}
	}

	if j.Name == "" {
		return "", errors.New("emoji name is required (use --name)")
	}

	dir, err := process(ctx, img, format, j, pub)
	if err != nil {
		return "", err
	}
	slog.Info("Completed", "name", j.Name, "dir", dir, "time", time.Since(start))
	return dir, nil
}

// offeredSizes lists the sizes the image supports without upscaling.
func offeredSizes(img image.Image, options imagetiler.Options) ([]imagetiler.Size, error) {
	options.Mode = imagetiler.ModeSquare
	_, base, err := imagetiler.Prepare(img, options)
	if err != nil {
		return nil, err
	}
	maxSize, err := imagetiler.Validate(base, options.TileSize)
	if err != nil {
		return nil, err
	}
	return imagetiler.AvailableSizes(min(maxSize, imagetiler.SizeLimit(options.TileSize))), nil
}

// process tiles an already decoded image and writes, describes and
// publishes the result. It returns the emoji directory.
func process(ctx context.Context, img image.Image, format string, j job, pub publisher) (string, error) {
	if err := output.ValidateName(j.Name); err != nil {
		return "", err
	}

	mosaic, err := imagetiler.MakeImageTiles(ctx, img, j.Options)
	if err != nil {
		return "", fmt.Errorf("error tiling %s: %w", j.Source, err)
	}

	f := imagecodec.FormatFor(format)
	w := &output.Writer{Root: j.Output, Format: f}
	dir, err := w.Write(ctx, j.Name, mosaic)
	if err != nil {
		return "", err
	}
	for _, emoji := range mosaic.Emojis {
		slog.Info("Wrote emoji", "name", j.Name, "size", emoji.Label, "tiles", emoji.Grid.Rows()*emoji.Grid.Columns())
	}

	if j.Manifest {
		file, err := output.WriteManifest(j.Output, output.NewManifest(j.Name, j.Source, mosaic, f))
		if err != nil {
			return "", err
		}
		slog.Debug("Wrote manifest", "file", file)
	}

	if pub != nil {
		keys, err := pub.UploadDir(ctx, dir)
		if err != nil {
			return "", fmt.Errorf("error publishing %s: %w", j.Name, err)
		}
		slog.Info("Published emoji", "name", j.Name, "objects", len(keys))
	}
	return dir, nil
}

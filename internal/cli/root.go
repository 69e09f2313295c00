// Package cli implements the emoji-tiler commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
	"github.com/StrongerSoftworks/emoji-tiler/internal/prompt"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "emoji-tiler",
	Short: "Slice an image into tiled emoji",
	Long: `emoji-tiler cuts an image into a grid of square tiles that, posted side by
side, show the whole picture as one large emoji.

Square emoji come in sizes: a size of 3 is a 3x3 grid. Rectangle emoji keep
the aspect ratio of the image as far as whole tiles allow.

Examples:
  # Ask for the name and sizes interactively
  emoji-tiler -i parrot.gif

  # Everything on the command line
  emoji-tiler -i parrot.gif -n party-parrot -s 2,3,4

  # A rectangular banner from a URL, published to S3
  emoji-tiler -i https://example.com/banner.png -n banner -m rectangle --publish

  # Start the HTTP service
  emoji-tiler serve --port 8080`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(viper.GetBool("debug"))
	},
	RunE: runTile,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("Failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.emoji-tiler.yaml)")
	flags.Bool("debug", false, "enable debug logging")

	// Tiling options, shared with batch.
	flags.StringSliceP("sizes", "s", nil, "emoji sizes, e.g. 2,3,4 or 3x3 or sm,md,lg (default: prompt, or every size that fits)")
	flags.StringP("mode", "m", string(imagetiler.ModeSquare), "emoji shape (square|rectangle)")
	flags.IntP("tile-size", "t", imagetiler.DefaultTileSize, "tile width and height in pixels")
	flags.Int("max-dimension", imagetiler.DefaultMaxDimension, "scale the image down to this width or height before tiling")
	flags.Float64("ratio-threshold", imagetiler.DefaultRatioThreshold, "largest aspect ratio drift accepted for rectangle emoji")
	flags.StringP("output", "o", "output", "output directory")
	flags.Bool("manifest", false, "write {output}/{name}.json describing the tiles")
	flags.Bool("publish", false, "upload the emoji to the configured S3 bucket")

	rootCmd.Flags().StringP("image", "i", "", "path or URL of the image to tile")
	rootCmd.Flags().StringP("name", "n", "", "emoji name (default: prompt)")

	for _, key := range []string{"debug", "sizes", "mode", "tile-size", "max-dimension", "ratio-threshold", "output", "manifest", "publish"} {
		viper.BindPFlag(key, flags.Lookup(key))
	}
	viper.BindPFlag("image", rootCmd.Flags().Lookup("image"))
	viper.BindPFlag("name", rootCmd.Flags().Lookup("name"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".emoji-tiler")
	}

	viper.SetEnvPrefix("EMOJI_TILER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(debug bool) {
	if debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
}

// engineOptions collects the tiling options from flags, env and config.
func engineOptions() (imagetiler.Options, error) {
	mode, err := imagetiler.ParseMode(viper.GetString("mode"))
	if err != nil {
		return imagetiler.Options{}, err
	}
	sizes, err := imagetiler.ParseSizes(viper.GetStringSlice("sizes"))
	if err != nil {
		return imagetiler.Options{}, err
	}

	options := imagetiler.Options{
		TileSize:       viper.GetInt("tile-size"),
		MaxDimension:   viper.GetInt("max-dimension"),
		RatioThreshold: viper.GetFloat64("ratio-threshold"),
		Mode:           mode,
		Sizes:          sizes,
	}
	if options.TileSize <= 0 {
		return imagetiler.Options{}, fmt.Errorf("tile size must be positive, got %d", options.TileSize)
	}
	if options.RatioThreshold < 0 {
		return imagetiler.Options{}, fmt.Errorf("%w: %v", imagetiler.ErrInvalidRatio, options.RatioThreshold)
	}
	if limit := imagetiler.SizeLimit(options.TileSize); len(sizes) > 0 && sizes[len(sizes)-1] > limit {
		return imagetiler.Options{}, fmt.Errorf("%w: at most %s with %dpx tiles", imagetiler.ErrInvalidSize, limit, options.TileSize)
	}
	return options, nil
}

func runTile(cmd *cobra.Command, args []string) error {
	imagePath := viper.GetString("image")
	if imagePath == "" {
		return errors.New("image path or URL is required (use --image)")
	}

	options, err := engineOptions()
	if err != nil {
		return err
	}

	j := job{
		Source:   imagePath,
		Name:     viper.GetString("name"),
		Options:  options,
		Output:   viper.GetString("output"),
		Manifest: viper.GetBool("manifest"),
	}

	var prompter prompt.Prompter
	if isInteractive() {
		prompter = &prompt.Terminal{In: os.Stdin, Out: os.Stderr}
	}

	var pub publisher
	if viper.GetBool("publish") {
		if pub, err = newPublisher(cmd.Context()); err != nil {
			return err
		}
	}

	// Explicit sizes imply a square emoji.
	askMode := !viper.IsSet("mode") && len(options.Sizes) == 0
	_, err = run(cmd.Context(), j, prompter, askMode, pub)
	return err
}

func isInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

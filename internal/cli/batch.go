package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch LIST",
	Short: "Tile every image named in a list file",
	Long: `Tile every image named in a list file without prompting.

Each line holds an image path or URL, optionally followed by the emoji name.
Without a name the file name is used. Blank lines and lines starting with #
are skipped.

  parrot.gif party-parrot
  https://example.com/stonks.png
  # skipped

Failures are logged and the remaining images are still processed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

type batchItem struct {
	Source string
	Name   string
}

func readBatchList(r io.Reader) ([]batchItem, error) {
	var items []batchItem
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		item := batchItem{Source: fields[0]}
		switch len(fields) {
		case 1:
			item.Name = defaultName(item.Source)
		case 2:
			item.Name = fields[1]
		default:
			return nil, fmt.Errorf("line %d: want an image and an optional name, got %q", line, text)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading list: %w", err)
	}
	return items, nil
}

// defaultName derives an emoji name from the file name of source.
func defaultName(source string) string {
	base := filepath.Base(source)
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		base = path.Base(u.Path)
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func runBatch(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("error opening list: %w", err)
	}
	defer file.Close()

	items, err := readBatchList(file)
	if err != nil {
		return err
	}

	options, err := engineOptions()
	if err != nil {
		return err
	}

	var pub publisher
	if viper.GetBool("publish") {
		if pub, err = newPublisher(cmd.Context()); err != nil {
			return err
		}
	}

	start := time.Now()
	failed := 0
	for _, item := range items {
		j := job{
			Source:   item.Source,
			Name:     item.Name,
			Options:  options,
			Output:   viper.GetString("output"),
			Manifest: viper.GetBool("manifest"),
		}
		if _, err := run(cmd.Context(), j, nil, false, pub); err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			slog.Error("Error processing image", "imagePath", item.Source, "error", err)
			failed++
		}
	}

	slog.Info("Batch completed", "images", len(items), "failed", failed, "time", time.Since(start))
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(items))
	}
	return nil
}

package imageloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"image"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagecodec"
)

var protocolPattern = regexp.MustCompile(`^\w+://`)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ErrTooLarge is returned for downloads larger than maxDownloadBytes.
var ErrTooLarge = errors.New("image too large")

var maxDownloadBytes int64 = imagecodec.MaxImageBytes

// LoadImage loads the image at imagePath, which is either a local file or an
// http(s) URL, and returns it with its format name.
func LoadImage(ctx context.Context, imagePath string) (image.Image, string, error) {
	if strings.HasPrefix(imagePath, "http://") || strings.HasPrefix(imagePath, "https://") {
		return loadImageFromURL(ctx, imagePath)
	}
	if protocolPattern.MatchString(imagePath) {
		return nil, "", fmt.Errorf("unknown protocol in %q", imagePath)
	}
	return loadImageFromFile(imagePath)
}

func loadImageFromFile(filePath string) (image.Image, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	slog.Debug("Decoding image", "path", filePath)
	img, format, err := imagecodec.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", filePath, err)
	}
	return img, format, nil
}

func loadImageFromURL(ctx context.Context, url string) (image.Image, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("error fetching image: HTTP %d", resp.StatusCode)
	}

	if resp.ContentLength > maxDownloadBytes {
		return nil, "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, url, resp.ContentLength, maxDownloadBytes)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxDownloadBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, maxDownloadBytes)
	}

	slog.Debug("Decoding image", "url", url)
	img, format, err := imagecodec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", url, err)
	}
	return img, format, nil
}

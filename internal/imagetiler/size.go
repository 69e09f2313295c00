package imagetiler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Size is the number of tiles along each side of a square emoji.
type Size int

const (
	// MinSize is the smallest emoji a mosaic is made of.
	MinSize Size = 2
	// MaxSize is the largest emoji ParseSize accepts.
	MaxSize Size = 16
	// MaxEmojiSide bounds the pixel side of a derived emoji image.
	MaxEmojiSide = 4096
)

// legacySizes maps the size labels of earlier releases to multipliers.
var legacySizes = map[string]Size{
	"sm":     2,
	"small":  2,
	"md":     3,
	"medium": 3,
	"lg":     4,
	"large":  4,
}

// Label renders the size as "NxN".
func (s Size) Label() string {
	return fmt.Sprintf("%dx%d", s, s)
}

func (s Size) String() string {
	return s.Label()
}

// ParseSize accepts "3", "3x3" or one of the legacy labels sm, md and lg.
func ParseSize(value string) (Size, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if s, ok := legacySizes[v]; ok {
		return s, nil
	}

	if a, b, found := strings.Cut(v, "x"); found {
		if a != b {
			return 0, fmt.Errorf("%w: %q is not square", ErrInvalidSize, value)
		}
		v = a
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, value)
	}
	if Size(n) < MinSize {
		return 0, fmt.Errorf("%w: %q is smaller than %s", ErrInvalidSize, value, MinSize)
	}
	if Size(n) > MaxSize {
		return 0, fmt.Errorf("%w: %q is larger than %s", ErrInvalidSize, value, MaxSize)
	}
	return Size(n), nil
}

// ParseSizes parses every value, dropping duplicates. The result is sorted.
func ParseSizes(values []string) ([]Size, error) {
	var sizes []Size
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			s, err := ParseSize(part)
			if err != nil {
				return nil, err
			}
			sizes = append(sizes, s)
		}
	}
	slices.Sort(sizes)
	return slices.Compact(sizes), nil
}

// AvailableSizes lists the sizes from MinSize up to maxSize. A base image too
// small for MinSize still offers MinSize, which is upscaled when derived.
func AvailableSizes(maxSize Size) []Size {
	maxSize = min(maxSize, MaxSize)
	sizes := []Size{MinSize}
	for s := MinSize + 1; s <= maxSize; s++ {
		sizes = append(sizes, s)
	}
	return sizes
}

// SizeLimit is the largest size that can be derived with tileSize tiles.
func SizeLimit(tileSize int) Size {
	if tileSize <= 0 {
		return 0
	}
	return min(MaxSize, Size(MaxEmojiSide/tileSize))
}

func checkSizes(sizes []Size, tileSize int) error {
	limit := SizeLimit(tileSize)
	for _, s := range sizes {
		if s < MinSize || s > limit {
			return fmt.Errorf("%w: %s needs sizes from %s to %s with %dpx tiles", ErrInvalidSize, s, MinSize, limit, tileSize)
		}
	}
	return nil
}

// Package imaging decodes stored photo references and renders cached
// thumbnails for the dashboard and report pages.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"

	"github.com/vbonduro/clandphoto/internal/metrics"
)

var (
	ErrNotDataURL  = errors.New("not a base64 data URL")
	ErrUnsupported = errors.New("unsupported image format")
)

// DecodeDataURL splits a base64 data URL into its MIME type and bytes.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return mimeType, data, nil
}

// Thumbnailer renders JPEG thumbnails that fit in a square of Size pixels,
// keeping the most recent ones in memory.
type Thumbnailer struct {
	size  uint
	cache *lru.Cache[string, []byte]
}

func NewThumbnailer(size uint, cacheEntries int) (*Thumbnailer, error) {
	cache, err := lru.New[string, []byte](cacheEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache: %w", err)
	}
	return &Thumbnailer{size: size, cache: cache}, nil
}

// Thumbnail returns the JPEG thumbnail for src, cached under key.
func (t *Thumbnailer) Thumbnail(key string, src []byte) ([]byte, error) {
	if thumb, ok := t.cache.Get(key); ok {
		metrics.ThumbnailLookup(true)
		return thumb, nil
	}
	metrics.ThumbnailLookup(false)

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	small := resize.Thumbnail(t.size, t.size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	thumb := buf.Bytes()
	t.cache.Add(key, thumb)
	return thumb, nil
}

// Forget drops a cached thumbnail, e.g. after its photo is deleted.
func (t *Thumbnailer) Forget(key string) {
	t.cache.Remove(key)
}

// Purge drops every cached thumbnail.
func (t *Thumbnailer) Purge() {
	t.cache.Purge()
}

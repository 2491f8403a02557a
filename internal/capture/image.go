package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"civireport/internal/model"
)

// ImageService validates and compresses the optional photograph. A draft
// with no image is valid; acceptance failures leave the current selection
// untouched.
type ImageService struct {
	whitelist  map[string]struct{}
	maxBytes   int64
	compressor Compressor

	mu      sync.Mutex
	current *model.ImageAsset
}

// NewImageService builds the service. whitelist holds bare media types
// (no parameters); maxBytes is the per-image ceiling checked before
// compression.
func NewImageService(whitelist []string, maxBytes int64, compressor Compressor) *ImageService {
	wl := make(map[string]struct{}, len(whitelist))
	for _, t := range whitelist {
		wl[strings.ToLower(t)] = struct{}{}
	}
	if compressor == nil {
		compressor = JPEGCompressor{Quality: 80}
	}
	return &ImageService{whitelist: wl, maxBytes: maxBytes, compressor: compressor}
}

// Accept validates the selected file and stores the compressed result.
func (s *ImageService) Accept(ctx context.Context, data []byte, mediaType string) (*model.ImageAsset, error) {
	bare := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(bare, ';'); i >= 0 {
		bare = strings.TrimSpace(bare[:i])
	}
	if _, ok := s.whitelist[bare]; !ok {
		return nil, NewError(CodeInvalidMediaType, fmt.Sprintf("image type %q is not allowed", bare))
	}
	if int64(len(data)) > s.maxBytes {
		return nil, NewError(CodeFileTooLarge, fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}

	out, outType, err := s.compressor.Compress(ctx, data, bare)
	if err != nil {
		return nil, WrapError(CodeUnexpected, "compress image", err)
	}

	asset := &model.ImageAsset{Bytes: out, MediaType: outType, SizeBytes: int64(len(out))}
	s.mu.Lock()
	s.current = asset
	s.mu.Unlock()
	return asset, nil
}

// Remove clears the current selection.
func (s *ImageService) Remove() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Current returns the accepted image, if any.
func (s *ImageService) Current() (*model.ImageAsset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}

// JPEGCompressor re-encodes decodable raster images as JPEG and keeps the
// original bytes when re-encoding does not help (or the format, e.g. webp,
// has no stdlib decoder).
type JPEGCompressor struct {
	Quality int
}

func (c JPEGCompressor) Compress(_ context.Context, data []byte, mediaType string) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Whitelisted but not decodable here; pass through unchanged.
		return data, mediaType, nil
	}

	quality := c.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", err
	}
	if buf.Len() >= len(data) {
		return data, mediaType, nil
	}
	return buf.Bytes(), "image/jpeg", nil
}

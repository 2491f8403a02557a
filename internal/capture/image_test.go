package capture

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newImageService(maxBytes int64) *ImageService {
	return NewImageService([]string{"image/jpeg", "image/png", "image/webp"}, maxBytes, nil)
}

func TestImageServiceAccept(t *testing.T) {
	svc := newImageService(5 << 20)
	data := pngBytes(t, 16, 16)

	asset, err := svc.Accept(context.Background(), data, "image/png")
	require.NoError(t, err)
	assert.NotEmpty(t, asset.Bytes)
	assert.Equal(t, int64(len(asset.Bytes)), asset.SizeBytes)

	current, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, asset, current)
}

func TestImageServiceAcceptStripsTypeParameters(t *testing.T) {
	svc := newImageService(5 << 20)
	data := pngBytes(t, 8, 8)

	_, err := svc.Accept(context.Background(), data, "image/png; charset=binary")
	assert.NoError(t, err)
}

func TestImageServiceRejectsInvalidType(t *testing.T) {
	svc := newImageService(5 << 20)

	_, err := svc.Accept(context.Background(), []byte("not an image"), "application/pdf")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidMediaType, CodeOf(err))

	_, ok := svc.Current()
	assert.False(t, ok)
}

func TestImageServiceRejectsOversizedFile(t *testing.T) {
	// 8 MB selection against a 5 MB ceiling.
	svc := newImageService(5 << 20)
	data := make([]byte, 8<<20)

	_, err := svc.Accept(context.Background(), data, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, CodeFileTooLarge, CodeOf(err))
}

func TestImageServiceRemove(t *testing.T) {
	svc := newImageService(5 << 20)
	_, err := svc.Accept(context.Background(), pngBytes(t, 8, 8), "image/png")
	require.NoError(t, err)

	svc.Remove()
	_, ok := svc.Current()
	assert.False(t, ok)
}

func TestJPEGCompressorPassesThroughUndecodable(t *testing.T) {
	c := JPEGCompressor{Quality: 80}
	in := []byte("RIFF....WEBP") // whitelisted container without a stdlib decoder

	out, mt, err := c.Compress(context.Background(), in, "image/webp")
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "image/webp", mt)
}

func TestJPEGCompressorNeverGrowsOutput(t *testing.T) {
	c := JPEGCompressor{Quality: 80}
	in := pngBytes(t, 4, 4)

	out, _, err := c.Compress(context.Background(), in, "image/png")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), len(in))
}

package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(64, 48, color.RGBA{0, 0, 255, 255}), nil))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestLoadImage_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(10, 20, color.RGBA{200, 100, 50, 255})))
	require.NoError(t, f.Close())

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{200, 100, 50, 255}, img.RGBAAt(3, 3))
}

func TestLoadImage_Missing(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

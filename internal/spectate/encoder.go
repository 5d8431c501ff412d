package spectate

import (
	"bytes"
	"image"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"
)

// JPEGEncoder encodes preview frames as JPEG, downscaled to a maximum width.
type JPEGEncoder struct {
	quality  int
	maxWidth int
}

// NewJPEGEncoder creates an encoder with the given quality (clamped to 1-100).
// maxWidth <= 0 disables scaling.
func NewJPEGEncoder(quality, maxWidth int) *JPEGEncoder {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return &JPEGEncoder{quality: quality, maxWidth: maxWidth}
}

// Quality returns the effective JPEG quality.
func (e *JPEGEncoder) Quality() int { return e.quality }

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if e.maxWidth > 0 && b.Dx() > e.maxWidth {
		h := b.Dy() * e.maxWidth / b.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, e.maxWidth, max(h, 1)))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	buf.Grow(64 * 1024)
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

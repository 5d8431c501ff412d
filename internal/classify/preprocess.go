package classify

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Grayscale converts img to a single-channel image with origin (0,0).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Preprocess crops region out of gray (clipped to its bounds), resizes it to
// InputSize x InputSize and scales intensities to [0,1], row-major.
func Preprocess(gray *image.Gray, region image.Rectangle) []float32 {
	crop := region.Intersect(gray.Bounds())

	dst := image.NewGray(image.Rect(0, 0, InputSize, InputSize))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), gray, crop, xdraw.Src, nil)

	out := make([]float32, InputSize*InputSize)
	for i, p := range dst.Pix {
		out[i] = float32(p) / 255
	}
	return out
}

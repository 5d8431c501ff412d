package opencv

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/junsooki/moodballoon/internal/classify"
)

// Cascade is a Haar cascade face detector backed by OpenCV.
type Cascade struct {
	mu           sync.Mutex
	cc           gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
}

// NewCascade loads the cascade XML at path.
func NewCascade(path string, scaleFactor float64, minNeighbors int) (*Cascade, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", classify.ErrCascadeNotFound, path)
		}
		return nil, fmt.Errorf("stat cascade: %w", err)
	}

	cc := gocv.NewCascadeClassifier()
	if !cc.Load(path) {
		cc.Close()
		return nil, fmt.Errorf("load cascade %s: invalid classifier file", path)
	}
	return &Cascade{cc: cc, scaleFactor: scaleFactor, minNeighbors: minNeighbors}, nil
}

// Detect runs multi-scale detection. Rectangles are in gray's coordinate space.
func (c *Cascade) Detect(gray *image.Gray) ([]image.Rectangle, error) {
	gray = classify.Grayscale(gray)
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("gray to mat: %w", err)
	}
	defer mat.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cc.DetectMultiScaleWithParams(mat, c.scaleFactor, c.minNeighbors, 0, image.Point{}, image.Point{}), nil
}

func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cc.Close()
}

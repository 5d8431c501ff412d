// Package opencv holds the gocv-backed adapters: the webcam, the Haar face
// detector, the ONNX emotion model and the highgui preview window. Everything
// that links OpenCV lives here so the rest of the module builds without it.
package opencv

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/junsooki/moodballoon/internal/capture"
)

// DefaultDevice is the local capture device the camera always opens.
const DefaultDevice = 0

// Camera reads frames from a local webcam.
type Camera struct {
	vc    *gocv.VideoCapture
	mat   gocv.Mat
	index int
	once  sync.Once
}

// OpenCamera acquires DefaultDevice. The handle is exclusive until Close.
func OpenCamera() (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(DefaultDevice)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", capture.ErrCameraUnavailable, DefaultDevice, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d not opened", capture.ErrCameraUnavailable, DefaultDevice)
	}
	return &Camera{vc: vc, mat: gocv.NewMat()}, nil
}

// OpenSource is OpenCamera typed for stream.New.
func OpenSource() (capture.Source, error) {
	cam, err := OpenCamera()
	if err != nil {
		return nil, err
	}
	return cam, nil
}

// Read grabs the next frame. A failed or empty read is reported as
// capture.ErrReadFailed.
func (c *Camera) Read() (capture.Frame, error) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return capture.Frame{}, capture.ErrReadFailed
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return capture.Frame{}, fmt.Errorf("%w: %v", capture.ErrReadFailed, err)
	}
	c.index++
	return capture.Frame{Image: capture.ToRGBA(img), Index: c.index, Timestamp: time.Now()}, nil
}

// Close releases the device. Safe to call more than once.
func (c *Camera) Close() error {
	var err error
	c.once.Do(func() {
		err = c.vc.Close()
		c.mat.Close()
	})
	return err
}

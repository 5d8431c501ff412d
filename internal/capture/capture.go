// Package capture provides camera frames to the inference loop.
package capture

import (
	"errors"
	"image"
	"time"
)

var (
	// ErrCameraUnavailable is returned when the capture device cannot be opened.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrReadFailed is returned when a frame cannot be read from an open device.
	ErrReadFailed = errors.New("could not read frame")
)

// Frame represents a captured camera frame.
type Frame struct {
	Image     *image.RGBA
	Index     int // 1-based position within the capture session
	Timestamp time.Time
}

// Source yields frames until Close is called or a read fails.
type Source interface {
	Read() (Frame, error)
	Close() error
}

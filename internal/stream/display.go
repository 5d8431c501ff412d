package stream

import (
	"errors"
	"image/color"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/emotion"
)

// NoKey is returned by WaitKey when nothing was pressed.
const NoKey = -1

// BoxColor outlines detected faces and their labels on every display.
var BoxColor = color.RGBA{0, 255, 0, 255}

// Display renders annotated frames and reports key presses.
type Display interface {
	Show(frame capture.Frame, res emotion.Result) error
	WaitKey() int
	Close() error
}

// Headless discards frames and never reports a key.
type Headless struct{}

func (Headless) Show(capture.Frame, emotion.Result) error { return nil }
func (Headless) WaitKey() int                             { return NoKey }
func (Headless) Close() error                             { return nil }

// Multi fans frames out to several displays.
type Multi []Display

// Show forwards to every display and joins their errors.
func (m Multi) Show(frame capture.Frame, res emotion.Result) error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.Show(frame, res))
	}
	return errors.Join(errs...)
}

// WaitKey polls every display; the first one reporting a key wins.
func (m Multi) WaitKey() int {
	key := NoKey
	for _, d := range m {
		if k := d.WaitKey(); k != NoKey && key == NoKey {
			key = k
		}
	}
	return key
}

func (m Multi) Close() error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.Close())
	}
	return errors.Join(errs...)
}

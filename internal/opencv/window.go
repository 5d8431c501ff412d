package opencv

import (
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/stream"
)

// Window is an OpenCV highgui preview. It must be created and used from a
// single OS-locked goroutine.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a preview window with the given title.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show draws the face box and upper-cased label, then displays the frame.
func (w *Window) Show(frame capture.Frame, res emotion.Result) error {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return fmt.Errorf("frame to mat: %w", err)
	}
	defer mat.Close()

	if res.Detected() {
		gocv.Rectangle(&mat, res.Region, stream.BoxColor, 2)
		text := strings.ToUpper(res.Label.String())
		org := image.Pt(res.Region.Min.X, res.Region.Min.Y-10)
		gocv.PutText(&mat, text, org, gocv.FontHersheySimplex, 0.9, stream.BoxColor, 2)
	}
	w.win.IMShow(mat)
	return nil
}

// WaitKey pumps window events for 1ms.
func (w *Window) WaitKey() int {
	return w.win.WaitKey(1)
}

func (w *Window) Close() error {
	return w.win.Close()
}

package spectate

import (
	"image"
	"image/draw"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/stream"
)

// FrameSink receives encoded preview frames.
type FrameSink interface {
	Watching() bool
	SendFrame(data []byte) int
}

// Feed is a stream.Display that forwards every Nth annotated frame to
// remote viewers. It never reports a key.
type Feed struct {
	sink  FrameSink
	enc   *JPEGEncoder
	every int
	seen  int
}

// NewFeed sends one in every frames to sink. every < 1 is treated as 1.
func NewFeed(sink FrameSink, enc *JPEGEncoder, every int) *Feed {
	if every < 1 {
		every = 1
	}
	return &Feed{sink: sink, enc: enc, every: every}
}

func (f *Feed) Show(frame capture.Frame, res emotion.Result) error {
	f.seen++
	if f.seen%f.every != 0 || frame.Image == nil || !f.sink.Watching() {
		return nil
	}

	data, err := f.enc.Encode(Annotate(frame.Image, res))
	if err != nil {
		// A bad preview frame must not end the detection session.
		log.WithError(err).Warn("Encode preview frame")
		return nil
	}
	f.sink.SendFrame(data)
	return nil
}

func (f *Feed) WaitKey() int { return stream.NoKey }

func (f *Feed) Close() error { return nil }

// Annotate returns a copy of img with the face box and upper-cased label
// drawn on it. img is not modified.
func Annotate(img *image.RGBA, res emotion.Result) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	if !res.Detected() {
		return out
	}

	r := res.Region.Intersect(b)
	const thick = 2
	fill := image.NewUniform(stream.BoxColor)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick),
		image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y),
		image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(out, edge.Intersect(b), fill, image.Point{}, draw.Src)
	}

	d := font.Drawer{
		Dst:  out,
		Src:  fill,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(res.Region.Min.X, res.Region.Min.Y-6),
	}
	d.DrawString(strings.ToUpper(res.Label.String()))
	return out
}

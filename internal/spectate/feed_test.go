package spectate

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/moodballoon/internal/capture"
	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/stream"
)

type fakeSink struct {
	watching bool
	frames   [][]byte
}

func (s *fakeSink) Watching() bool { return s.watching }

func (s *fakeSink) SendFrame(data []byte) int {
	s.frames = append(s.frames, data)
	return 1
}

func grayFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	return img
}

var _ stream.Display = (*Feed)(nil)

func TestFeed_EveryNth(t *testing.T) {
	sink := &fakeSink{watching: true}
	f := NewFeed(sink, NewJPEGEncoder(70, 0), 3)
	res := emotion.DetectedResult(emotion.Sad, image.Rect(10, 10, 40, 40))

	for i := 1; i <= 7; i++ {
		require.NoError(t, f.Show(capture.Frame{Image: grayFrame(64, 48), Index: i}, res))
	}

	require.Len(t, sink.frames, 2)
	img, err := jpeg.Decode(bytes.NewReader(sink.frames[0]))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, stream.NoKey, f.WaitKey())
	assert.NoError(t, f.Close())
}

func TestFeed_NobodyWatching(t *testing.T) {
	sink := &fakeSink{}
	f := NewFeed(sink, NewJPEGEncoder(70, 0), 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.Show(capture.Frame{Image: grayFrame(8, 8)}, emotion.NoFaceResult()))
	}
	assert.Empty(t, sink.frames)
}

func TestAnnotate(t *testing.T) {
	src := grayFrame(100, 100)
	region := image.Rect(20, 30, 60, 80)

	out := Annotate(src, emotion.DetectedResult(emotion.Happy, region))

	green := color.RGBA{0, 255, 0, 255}
	assert.Equal(t, green, out.RGBAAt(20, 30))
	assert.Equal(t, green, out.RGBAAt(59, 79))
	assert.Equal(t, green, out.RGBAAt(40, 31))
	assert.Equal(t, color.RGBA{100, 100, 100, 100}, out.RGBAAt(40, 55))
	assert.Equal(t, color.RGBA{100, 100, 100, 100}, src.RGBAAt(20, 30), "source must not be modified")

	plain := Annotate(src, emotion.NoFaceResult())
	assert.Equal(t, src.Pix, plain.Pix)
}

func TestJPEGEncoder(t *testing.T) {
	tests := []struct {
		name    string
		quality int
		want    int
	}{
		{"low clamp", -5, 1},
		{"high clamp", 250, 100},
		{"in range", 70, 70},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewJPEGEncoder(tc.quality, 0).Quality())
		})
	}

	data, err := NewJPEGEncoder(80, 320).Encode(grayFrame(640, 480))
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
}

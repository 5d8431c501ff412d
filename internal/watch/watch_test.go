package watch

import (
	"encoding/json"
	"image/color"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/mood"
	"github.com/junsooki/moodballoon/internal/spectate"
)

func TestAspectFitTransform(t *testing.T) {
	tests := []struct {
		name                    string
		viewW, viewH            float64
		frameW, frameH          float64
		scale, offsetX, offsetY float64
	}{
		{"same size", 640, 480, 640, 480, 1, 0, 0},
		{"pillarbox", 1280, 480, 640, 480, 1, 320, 0},
		{"letterbox", 640, 960, 640, 480, 1, 0, 240},
		{"downscale", 320, 240, 640, 480, 0.5, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, x, y := aspectFitTransform(tc.viewW, tc.viewH, tc.frameW, tc.frameH)
			assert.InDelta(t, tc.scale, s, 1e-9)
			assert.InDelta(t, tc.offsetX, x, 1e-9)
			assert.InDelta(t, tc.offsetY, y, 1e-9)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#ffa500")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 165, 0, 255}, c)

	for _, bad := range []string{"", "ffa500", "#ffa50", "#gggggg"} {
		_, err := parseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func startFeed(t *testing.T) (*mood.Slot, *spectate.Hub, string) {
	t.Helper()
	slot := mood.NewSlot(emotion.Neutral, nil)
	hub := spectate.NewHub(slot, spectate.WithICEServers(nil))
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return slot, hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestClient_ReceivesWelcomeAndMood(t *testing.T) {
	slot, hub, url := startFeed(t)

	welcome := make(chan string, 1)
	moods := make(chan spectate.MoodUpdate, 4)
	c := NewClient(url, Handler{
		OnWelcome: func(id string) { welcome <- id },
		OnMood:    func(m spectate.MoodUpdate) { moods <- m },
	})
	require.NoError(t, c.Connect())
	defer c.Close()

	select {
	case id := <-welcome:
		assert.NotEmpty(t, id)
	case <-time.After(5 * time.Second):
		t.Fatal("no welcome")
	}
	select {
	case m := <-moods:
		assert.Equal(t, emotion.Neutral, m.Label)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial mood")
	}

	slot.Observe(emotion.Surprise)
	hub.Observe(emotion.Surprise)
	select {
	case m := <-moods:
		assert.Equal(t, emotion.Surprise, m.Label)
		assert.Equal(t, "#ffa500", m.Color)
	case <-time.After(5 * time.Second):
		t.Fatal("no mood change")
	}
}

func TestPeer_Negotiates(t *testing.T) {
	_, _, url := startFeed(t)

	answers := make(chan json.RawMessage, 1)
	errs := make(chan string, 4)
	c := NewClient(url, Handler{
		OnAnswer: func(p json.RawMessage) { answers <- p },
		OnError:  func(msg string) { errs <- msg },
	})
	require.NoError(t, c.Connect())
	defer c.Close()

	p, err := NewPeer(c, nil, func([]byte) {})
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Connect())

	select {
	case a := <-answers:
		assert.NoError(t, p.HandleAnswer(a))
	case msg := <-errs:
		t.Fatalf("feed error: %s", msg)
	case <-time.After(10 * time.Second):
		t.Fatal("no answer")
	}
}

func TestClient_SendWhenClosed(t *testing.T) {
	_, _, url := startFeed(t)
	c := NewClient(url, Handler{})
	require.NoError(t, c.Connect())
	c.Close()
	c.Close()

	assert.Error(t, c.SendOffer(json.RawMessage(`{}`)))
	select {
	case <-c.Done():
	default:
		t.Fatal("done not closed")
	}
}

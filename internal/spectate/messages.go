package spectate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/mood"
)

// Message types exchanged on the spectator websocket.
const (
	TypeWelcome      = "welcome"
	TypeMood         = "mood"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
)

// FramesChannel is the data channel label viewers open for preview frames.
const FramesChannel = "frames"

// Message is the envelope for all spectator messages.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Mood      *MoodUpdate     `json:"mood,omitempty"`
	Msg       string          `json:"message,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// MoodUpdate is the wire form of a mood snapshot.
type MoodUpdate struct {
	Label   emotion.Label `json:"label"`
	Color   string        `json:"color"` // #rrggbb
	Speed   float64       `json:"speed"`
	Updated time.Time     `json:"updated"`
}

// NewMoodUpdate converts a mood snapshot for the wire.
func NewMoodUpdate(m mood.Mood) MoodUpdate {
	c := m.Style.Color
	return MoodUpdate{
		Label:   m.Label,
		Color:   fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
		Speed:   m.Style.Speed,
		Updated: m.Updated,
	}
}

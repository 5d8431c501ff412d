// Package mood holds the latest detected emotion and the visual style derived
// from it, shared between the inference loop and the game.
package mood

import (
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/junsooki/moodballoon/internal/emotion"
)

// ErrInvalidLabel is returned by Update for a label outside the closed set.
var ErrInvalidLabel = errors.New("invalid emotion label")

// Style is how the balloon looks and moves for a given emotion.
type Style struct {
	Color color.RGBA
	Speed float64
}

// Mood is a snapshot of the slot.
type Mood struct {
	Label   emotion.Label
	Style   Style
	Updated time.Time
}

// Reaction maps an emotion to a style. It must cover every label.
type Reaction func(emotion.Label) Style

// DefaultReaction is the balloon palette.
func DefaultReaction(l emotion.Label) Style {
	switch l {
	case emotion.Happy:
		return Style{Color: color.RGBA{255, 255, 0, 255}, Speed: 4}
	case emotion.Sad:
		return Style{Color: color.RGBA{0, 0, 255, 255}, Speed: 1}
	case emotion.Angry:
		return Style{Color: color.RGBA{255, 0, 0, 255}, Speed: 5}
	case emotion.Surprise:
		return Style{Color: color.RGBA{255, 165, 0, 255}, Speed: 6}
	case emotion.Fear:
		return Style{Color: color.RGBA{128, 0, 128, 255}, Speed: 3}
	case emotion.Disgust:
		return Style{Color: color.RGBA{0, 255, 0, 255}, Speed: 2}
	default:
		return Style{Color: color.RGBA{255, 192, 203, 255}, Speed: 2}
	}
}

// Slot is the single shared location for the current mood. Writers and
// readers never observe a label paired with another label's style.
type Slot struct {
	mu       sync.RWMutex
	cur      Mood
	reaction Reaction
	now      func() time.Time
}

// NewSlot returns a slot holding initial. A nil reaction uses DefaultReaction.
func NewSlot(initial emotion.Label, reaction Reaction) *Slot {
	if reaction == nil {
		reaction = DefaultReaction
	}
	if !initial.Valid() {
		initial = emotion.Neutral
	}
	s := &Slot{reaction: reaction, now: time.Now}
	s.cur = Mood{Label: initial, Style: reaction(initial), Updated: s.now()}
	return s
}

// Update replaces the current mood. Last write wins.
func (s *Slot) Update(l emotion.Label) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLabel, l)
	}
	style := s.reaction(l)
	now := s.now()

	s.mu.Lock()
	s.cur = Mood{Label: l, Style: style, Updated: now}
	s.mu.Unlock()
	return nil
}

// Read returns a copy of the current mood.
func (s *Slot) Read() Mood {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Observe adapts the slot to a label callback; invalid labels are dropped.
func (s *Slot) Observe(l emotion.Label) {
	_ = s.Update(l)
}

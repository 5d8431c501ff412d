package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/junsooki/moodballoon/internal/emotion"
)

// Recorder counts labels for the running session. Observe is called from the
// inference goroutine, Session from the driver once play ends.
type Recorder struct {
	id      string
	started time.Time
	now     func() time.Time

	mu     sync.Mutex
	counts [emotion.Count]int
	frames int
}

// NewRecorder starts a session clock with a fresh id.
func NewRecorder() *Recorder {
	return &Recorder{id: uuid.NewString(), started: time.Now(), now: time.Now}
}

// ID returns the session id.
func (r *Recorder) ID() string { return r.id }

// Observe counts one frame's label.
func (r *Recorder) Observe(l emotion.Label) {
	if !l.Valid() {
		return
	}
	r.mu.Lock()
	r.counts[l]++
	r.frames++
	r.mu.Unlock()
}

// Session snapshots the counts into a record ending now.
func (r *Recorder) Session(score int) Session {
	r.mu.Lock()
	counts, frames := r.counts, r.frames
	r.mu.Unlock()

	dominant := emotion.Neutral
	best := 0
	var tallies []Tally
	for _, l := range emotion.Labels() {
		n := counts[l]
		if n == 0 {
			continue
		}
		tallies = append(tallies, Tally{SessionID: r.id, Label: l.String(), Frames: n})
		if n > best {
			dominant, best = l, n
		}
	}

	return Session{
		ID:        r.id,
		StartedAt: r.started,
		EndedAt:   r.now(),
		Score:     score,
		Frames:    frames,
		Dominant:  dominant.String(),
		Tallies:   tallies,
	}
}

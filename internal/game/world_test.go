package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules(800, 600)
	assert.Equal(t, 400.0, r.StartX)
	assert.Equal(t, 500.0, r.StartY)
	assert.Equal(t, 30.0, r.BalloonRadius)
	assert.Equal(t, 120, r.SpawnEvery)
}

func TestStep_Movement(t *testing.T) {
	tests := []struct {
		name  string
		c     Controls
		speed float64
		want  Point
	}{
		{"idle", Controls{}, 4, Point{400, 500}},
		{"left", Controls{Left: true}, 4, Point{396, 500}},
		{"right", Controls{Right: true}, 6, Point{406, 500}},
		{"up", Controls{Up: true}, 1, Point{400, 499}},
		{"down", Controls{Down: true}, 5, Point{400, 505}},
		{"diagonal", Controls{Left: true, Up: true}, 2, Point{398, 498}},
		{"opposite cancel", Controls{Left: true, Right: true}, 3, Point{400, 500}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWorld(DefaultRules(800, 600), 1)
			w.Step(tc.c, tc.speed)
			assert.Equal(t, tc.want, w.Balloon)
		})
	}
}

func TestStep_StaysInBounds(t *testing.T) {
	w := NewWorld(DefaultRules(800, 600), 1)
	for i := 0; i < 500; i++ {
		w.Step(Controls{Right: true, Down: true}, 6)
	}
	assert.Equal(t, Point{770, 570}, w.Balloon)

	for i := 0; i < 500; i++ {
		w.Step(Controls{Left: true, Up: true}, 6)
	}
	assert.Equal(t, Point{30, 30}, w.Balloon)
}

func TestStep_SpawnsStarsInField(t *testing.T) {
	rules := DefaultRules(800, 600)
	rules.StarPoints = 0
	w := NewWorld(rules, 42)

	for i := 0; i < 120; i++ {
		w.Step(Controls{}, 0)
	}
	assert.Empty(t, w.Stars)

	spawned := 0
	for i := 0; i < 120*50; i++ {
		before := len(w.Stars)
		w.Step(Controls{}, 0)
		if len(w.Stars) > before {
			spawned++
		}
	}
	assert.GreaterOrEqual(t, spawned, 40)
	for _, s := range w.Stars {
		assert.True(t, s.X >= 50 && s.X <= 750, "x=%v", s.X)
		assert.True(t, s.Y >= 50 && s.Y <= 550, "y=%v", s.Y)
	}
}

func TestStep_SpawnCadence(t *testing.T) {
	rules := DefaultRules(800, 600)
	rules.StarPoints = 1
	w := NewWorld(rules, 7)
	// Collected stars still count as spawned.
	spawned := func() int { return len(w.Stars) + w.Score }

	tests := []struct {
		tick int
		want int
	}{
		{120, 0},
		{121, 1},
		{241, 1},
		{242, 2},
		{363, 3},
	}
	for _, tc := range tests {
		for w.Ticks < tc.tick {
			w.Step(Controls{}, 0)
		}
		assert.Equal(t, tc.want, spawned(), "tick %d", tc.tick)
	}
}

func TestStep_CollectStar(t *testing.T) {
	w := NewWorld(DefaultRules(800, 600), 7)
	w.Stars = []Point{{X: 420, Y: 500}, {X: 100, Y: 100}}

	w.Step(Controls{}, 0)

	assert.Equal(t, 10, w.Score)
	require.Len(t, w.Stars, 1)
	assert.Equal(t, Point{X: 100, Y: 100}, w.Stars[0])
}

func TestStep_TouchingEdgesDoNotCollide(t *testing.T) {
	w := NewWorld(DefaultRules(800, 600), 7)
	// Balloon box spans x 370..430; star box starts at 430.
	w.Stars = []Point{{X: 445, Y: 500}}

	w.Step(Controls{}, 0)

	assert.Zero(t, w.Score)
	assert.Len(t, w.Stars, 1)
}

func TestNewWorld_Deterministic(t *testing.T) {
	a := NewWorld(DefaultRules(800, 600), 99)
	b := NewWorld(DefaultRules(800, 600), 99)
	for i := 0; i < 600; i++ {
		a.Step(Controls{}, 0)
		b.Step(Controls{}, 0)
	}
	assert.Equal(t, a.Stars, b.Stars)
}

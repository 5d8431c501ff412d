package game

import (
	"image"
	"math/rand/v2"
)

// Rules are the fixed parameters of one play session.
type Rules struct {
	Width, Height int
	BalloonRadius float64
	StartX        float64
	StartY        float64
	StarRadius    float64
	StarMargin    int // stars spawn at least this far from every edge
	SpawnEvery    int // a star spawns once more than this many ticks have passed
	StarPoints    int
}

// DefaultRules returns the standard balloon rules for a width x height field.
func DefaultRules(width, height int) Rules {
	return Rules{
		Width:         width,
		Height:        height,
		BalloonRadius: 30,
		StartX:        float64(width) / 2,
		StartY:        float64(height) - 100,
		StarRadius:    15,
		StarMargin:    50,
		SpawnEvery:    120,
		StarPoints:    10,
	}
}

// Controls is the set of direction keys held during a tick.
type Controls struct {
	Left, Right, Up, Down bool
}

// Point is a position in field coordinates.
type Point struct {
	X, Y float64
}

// World is the pure game state. It has no rendering or input dependencies.
type World struct {
	rules   Rules
	rng     *rand.Rand
	Balloon Point
	Stars   []Point
	Score   int
	Ticks   int
	timer   int
}

// NewWorld places the balloon at its start position with no stars.
func NewWorld(rules Rules, seed uint64) *World {
	return &World{
		rules:   rules,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Balloon: Point{X: rules.StartX, Y: rules.StartY},
	}
}

// Rules returns the world's rules.
func (w *World) Rules() Rules { return w.rules }

// Step advances one tick: move, spawn, collect.
func (w *World) Step(c Controls, speed float64) {
	w.Ticks++
	r := w.rules.BalloonRadius

	if c.Left {
		w.Balloon.X -= speed
	}
	if c.Right {
		w.Balloon.X += speed
	}
	if c.Up {
		w.Balloon.Y -= speed
	}
	if c.Down {
		w.Balloon.Y += speed
	}
	w.Balloon.X = clamp(w.Balloon.X, r, float64(w.rules.Width)-r)
	w.Balloon.Y = clamp(w.Balloon.Y, r, float64(w.rules.Height)-r)

	w.timer++
	if w.rules.SpawnEvery > 0 && w.timer > w.rules.SpawnEvery {
		w.timer = 0
		w.spawnStar()
	}

	w.collect()
}

// BalloonBox is the balloon's bounding box.
func (w *World) BalloonBox() image.Rectangle {
	return box(w.Balloon, w.rules.BalloonRadius)
}

func (w *World) spawnStar() {
	m := w.rules.StarMargin
	xs := w.rules.Width - 2*m + 1
	ys := w.rules.Height - 2*m + 1
	if xs < 1 || ys < 1 {
		return
	}
	w.Stars = append(w.Stars, Point{
		X: float64(m + w.rng.IntN(xs)),
		Y: float64(m + w.rng.IntN(ys)),
	})
}

func (w *World) collect() {
	balloon := w.BalloonBox()
	kept := w.Stars[:0]
	for _, s := range w.Stars {
		if balloon.Overlaps(box(s, w.rules.StarRadius)) {
			w.Score += w.rules.StarPoints
			continue
		}
		kept = append(kept, s)
	}
	w.Stars = kept
}

func box(p Point, r float64) image.Rectangle {
	return image.Rect(int(p.X-r), int(p.Y-r), int(p.X+r), int(p.Y+r))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

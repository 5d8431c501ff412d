// Package game is the emotion balloon arcade game on Ebitengine.
package game

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/junsooki/moodballoon/internal/mood"
)

// GameOverFor is how long the final score stays on screen.
const GameOverFor = 3 * time.Second

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
	gold  = color.RGBA{255, 255, 0, 255}

	face = text.NewGoXFace(basicfont.Face7x13)
)

var instructions = []string{
	"Use ARROW KEYS to move the balloon",
	"Collect yellow stars to score points",
	"Your emotions change the balloon's behavior!",
	"Press ESC to quit",
}

// MoodReader is the read side of the shared mood slot.
type MoodReader interface {
	Read() mood.Mood
}

// Game drives a World from keyboard input and the current mood.
type Game struct {
	world     *World
	moods     MoodReader
	title     string
	tps       int
	over      bool
	overTicks int
	last      mood.Mood
	stop      atomic.Bool
}

// New creates a game. tps must match the rate Run will use.
func New(world *World, moods MoodReader, title string, tps int) *Game {
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	return &Game{world: world, moods: moods, title: title, tps: tps, last: moods.Read()}
}

// Run opens the window and blocks until the game-over screen has been shown.
// Must be called from the main goroutine.
func (g *Game) Run() error {
	r := g.world.Rules()
	ebiten.SetWindowSize(r.Width, r.Height)
	ebiten.SetWindowTitle(g.title)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(g.tps)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// Stop ends play from another goroutine; the game-over screen still shows.
func (g *Game) Stop() {
	g.stop.Store(true)
}

// Score is the current score. Safe to read after Run returns.
func (g *Game) Score() int {
	return g.world.Score
}

// --- ebiten.Game interface ---

func (g *Game) Update() error {
	if g.over {
		g.overTicks++
		if g.overTicks >= int(GameOverFor.Seconds()*float64(g.tps)) {
			return ebiten.Termination
		}
		return nil
	}

	if g.stop.Load() || ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.over = true
		return nil
	}

	g.last = g.moods.Read()
	g.world.Step(Controls{
		Left:  ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right: ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Up:    ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:  ebiten.IsKeyPressed(ebiten.KeyArrowDown),
	}, g.last.Style.Speed)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.over {
		g.drawGameOver(screen)
		return
	}

	screen.Fill(white)
	g.drawStars(screen)
	g.drawBalloon(screen)
	g.drawHUD(screen)
}

func (g *Game) Layout(_, _ int) (int, int) {
	r := g.world.Rules()
	return r.Width, r.Height
}

// --- Drawing ---

func (g *Game) drawStars(screen *ebiten.Image) {
	rad := float32(g.world.Rules().StarRadius)
	for _, s := range g.world.Stars {
		x, y := float32(s.X), float32(s.Y)
		vector.DrawFilledCircle(screen, x, y, rad*0.6, gold, true)
		// Points.
		vector.StrokeLine(screen, x, y-rad, x, y+rad, 4, gold, true)
		vector.StrokeLine(screen, x-rad, y, x+rad, y, 4, gold, true)
	}
}

func (g *Game) drawBalloon(screen *ebiten.Image) {
	b := g.world.Balloon
	x, y := float32(b.X), float32(b.Y)
	r := float32(g.world.Rules().BalloonRadius)

	vector.DrawFilledCircle(screen, x, y, r, g.last.Style.Color, true)
	vector.DrawFilledCircle(screen, x-8, y-8, 8, white, true)
	vector.StrokeLine(screen, x, y+r, x, y+r+50, 3, black, true)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := []string{
		"Emotion: " + strings.ToUpper(g.last.Label.String()),
		fmt.Sprintf("Score: %d", g.world.Score),
		fmt.Sprintf("Speed: %g", g.last.Style.Speed),
	}
	for i, l := range lines {
		drawText(screen, l, 10, float64(10+i*40), 2, black)
	}
	top := float64(g.world.Rules().Height - 100)
	for i, l := range instructions {
		drawText(screen, l, 10, top+float64(i*22), 1.5, black)
	}
}

func (g *Game) drawGameOver(screen *ebiten.Image) {
	screen.Fill(black)
	drawText(screen, "GAME OVER!", 200, 200, 4, white)
	drawText(screen, fmt.Sprintf("Final Score: %d", g.world.Score), 200, 300, 4, white)
	drawText(screen, "Thanks for playing!", 300, 400, 2, white)
}

func drawText(screen *ebiten.Image, s string, x, y, scale float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, face, op)
}

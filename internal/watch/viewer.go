package watch

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/junsooki/moodballoon/internal/spectate"
)

var face = text.NewGoXFace(basicfont.Face7x13)

// Viewer renders the remote preview and the current mood using Ebitengine.
type Viewer struct {
	title string

	mu          sync.Mutex
	frame       *image.RGBA
	mood        *spectate.MoodUpdate
	connected   bool
	ebitenImage *ebiten.Image
}

// NewViewer creates a viewer window with the given title.
func NewViewer(title string) *Viewer {
	return &Viewer{title: title}
}

// SetFrame updates the displayed frame (called from the network goroutine).
func (v *Viewer) SetFrame(img *image.RGBA) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frame = img
}

// SetMood updates the mood banner.
func (v *Viewer) SetMood(m spectate.MoodUpdate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mood = &m
}

// SetConnected toggles the waiting message.
func (v *Viewer) SetConnected(ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = ok
}

// Run starts the Ebitengine loop. Must be called from the main goroutine.
func (v *Viewer) Run() error {
	ebiten.SetWindowSize(960, 720)
	ebiten.SetWindowTitle(v.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(v)
	if err == ebiten.Termination {
		return nil
	}
	return err
}

// --- ebiten.Game interface ---

func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	v.mu.Lock()
	frame, m, connected := v.frame, v.mood, v.connected
	v.mu.Unlock()

	if frame != nil {
		v.drawFrame(screen, frame)
	}

	status := "Waiting for feed..."
	if connected {
		status = "Connected"
	}
	drawText(screen, status, 10, float64(screen.Bounds().Dy()-30), 1.5, color.White)

	if m == nil {
		return
	}
	clr, err := parseHexColor(m.Color)
	if err != nil {
		clr = color.RGBA{255, 255, 255, 255}
	}
	vector.DrawFilledCircle(screen, 30, 30, 18, clr, true)
	drawText(screen, fmt.Sprintf("%s  speed %g", strings.ToUpper(m.Label.String()), m.Speed), 60, 16, 2, color.White)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (v *Viewer) drawFrame(screen *ebiten.Image, frame *image.RGBA) {
	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()
	if v.ebitenImage == nil || v.ebitenImage.Bounds().Dx() != fw || v.ebitenImage.Bounds().Dy() != fh {
		v.ebitenImage = ebiten.NewImage(fw, fh)
	}
	v.ebitenImage.WritePixels(frame.Pix)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), float64(fw), float64(fh))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(v.ebitenImage, op)
}

func drawText(screen *ebiten.Image, s string, x, y, scale float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, face, op)
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}

// parseHexColor parses #rrggbb.
func parseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
}

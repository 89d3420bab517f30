// Package desktop runs the sketchpad in a native window.
package desktop

import (
	"context"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"

	"github.com/Brownie44l1/digit-sketchpad/internal/canvas"
	"github.com/Brownie44l1/digit-sketchpad/internal/sketchpad"
)

const (
	margin     = 16
	panelX     = margin*2 + canvas.Size
	panelWidth = 200
	barWidth   = 110
	rowHeight  = 20

	screenWidth  = panelX + panelWidth
	screenHeight = canvas.Size + margin*2 + 24
)

var (
	backgroundColor = color.RGBA{0x24, 0x26, 0x2b, 0xff}
	barTrackColor   = color.RGBA{0x4b, 0x50, 0x5a, 0xff}
	barFillColor    = color.RGBA{0x25, 0x63, 0xeb, 0xff}
)

type Game struct {
	ctx     context.Context
	session *sketchpad.Session
	logger  zerolog.Logger
	pointer pointerTracker
	raster  *ebiten.Image
}

func New(ctx context.Context, session *sketchpad.Session, logger zerolog.Logger) *Game {
	return &Game{
		ctx:     ctx,
		session: session,
		logger:  logger,
		pointer: pointerTracker{origin: canvas.Point{X: margin, Y: margin}},
	}
}

// Run opens the window and blocks until it closes or ctx is done.
func Run(ctx context.Context, session *sketchpad.Session, logger zerolog.Logger) error {
	ebiten.SetWindowTitle("Digit Predictor")
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(New(ctx, session, logger))
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}

	x, y := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	g.pointer.step(g.session, pressed, canvas.Point{X: float64(x), Y: float64(y)})

	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		go g.predict()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.session.Clear()
	}
	return nil
}

// predict runs off the game loop; the session discards its outcome if a
// newer request or a clear happened meanwhile.
func (g *Game) predict() {
	state := g.session.Predict(g.ctx)
	if state.Error != "" {
		g.logger.Warn().Str("error", state.Error).Msg("prediction failed")
		return
	}
	g.logger.Info().Str("digit", state.Label()).Msg("prediction")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	if g.raster == nil {
		g.raster = ebiten.NewImage(canvas.Size, canvas.Size)
	}
	g.raster.WritePixels(g.session.Snapshot().Pix)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(margin, margin)
	screen.DrawImage(g.raster, op)

	state := g.session.State()
	label := "-"
	if state.HasPrediction {
		label = state.Label()
	}
	ebitenutil.DebugPrintAt(screen, "Predicted digit: "+label, panelX, margin)

	top := margin + 28
	for _, bar := range state.Bars() {
		y := top + bar.Index*rowHeight
		ebitenutil.DebugPrintAt(screen, fmt.Sprint(bar.Index), panelX, y)
		vector.DrawFilledRect(screen, panelX+14, float32(y+4), barWidth, 8, barTrackColor, false)
		vector.DrawFilledRect(screen, panelX+14, float32(y+4), float32(barWidth*bar.Value), 8, barFillColor, false)
		ebitenutil.DebugPrintAt(screen, bar.Percent, panelX+barWidth+20, y)
	}

	status := ""
	switch {
	case state.Pending:
		status = "Predicting..."
	case state.Error != "":
		status = state.Error
	}
	if status != "" {
		ebitenutil.DebugPrintAt(screen, status, panelX, top+len(state.Probabilities)*rowHeight+8)
	}
	ebitenutil.DebugPrintAt(screen, "[P] predict   [C] clear", margin, canvas.Size+margin+6)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

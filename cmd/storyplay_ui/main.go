package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/cbegin/storyplay-go"
	"github.com/cbegin/storyplay-go/internal/clock"
	"github.com/cbegin/storyplay-go/internal/config"
	"github.com/cbegin/storyplay-go/internal/scene"
	"github.com/cbegin/storyplay-go/internal/settings"
)

const (
	windowW = 960
	windowH = 640

	volumeStep = 0.1
)

var (
	bgColor       = color.RGBA{17, 24, 39, 255}
	panelColor    = color.RGBA{192, 192, 192, 255}
	borderColor   = color.RGBA{128, 128, 128, 255}
	bevelLight    = color.RGBA{255, 255, 255, 255}
	bevelDarker   = color.RGBA{64, 64, 64, 255}
	textColor     = color.RGBA{249, 250, 251, 255}
	buttonText    = color.RGBA{17, 24, 39, 255}
	progressTrack = color.RGBA{55, 65, 81, 255}
	progressFill  = color.RGBA{236, 72, 153, 255}
	captionShade  = color.RGBA{0, 0, 0, 140}
)

type game struct {
	ctrl  *storyplay.Controller
	loop  *clock.FrameLoop
	start time.Time

	store *settings.Store
	audio settings.Session

	face  text.Face
	small text.Face

	captionFade  *gween.Tween
	captionAlpha float32
	motifIn      *gween.Tween
	motifScale   float32

	status string
}

func newGame(cfg config.Config, store *settings.Store) (*game, error) {
	tt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	g := &game{
		loop:         clock.NewFrameLoop(),
		start:        time.Now(),
		store:        store,
		audio:        settings.Session{Prefs: store.Load(), ForceMute: cfg.Mute},
		face:         newFace(tt, 24),
		small:        newFace(tt, 16),
		captionAlpha: 1,
		motifScale:   1,
	}
	ambience := cfg.AmbienceAmount()
	if g.audio.Prefs.Ambience {
		ambience = 1
	}
	ctrl, err := storyplay.NewController(scene.Story,
		storyplay.WithFrameSource(g.loop),
		storyplay.WithSampleRate(cfg.SampleRate),
		storyplay.WithMasterGain(cfg.MasterGain),
		storyplay.WithVolume(g.audio.EffectiveVolume()),
		storyplay.WithAmbience(ambience),
		storyplay.WithSettleDelay(cfg.SettleDelay),
		storyplay.WithLogger(log.Default()),
	)
	if err != nil {
		return nil, err
	}
	ctrl.OnSceneChange(g.sceneChanged)
	g.ctrl = ctrl
	return g, nil
}

func newFace(tt *truetype.Font, size float64) text.Face {
	return text.NewGoXFace(truetype.NewFace(tt, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}))
}

// sceneChanged runs from inside Update, while the frame loop is pumped.
func (g *game) sceneChanged(scene.Scene) {
	g.captionFade = gween.New(0, 1, 0.6, ease.OutQuad)
	g.motifIn = gween.New(0.94, 1, 0.8, ease.OutCubic)
}

func (g *game) Update() error {
	g.loop.Pump(time.Since(g.start))

	dt := float32(1) / float32(ebiten.TPS())
	if g.captionFade != nil {
		v, done := g.captionFade.Update(dt)
		g.captionAlpha = v
		if done {
			g.captionFade = nil
		}
	}
	if g.motifIn != nil {
		v, done := g.motifIn.Update(dt)
		g.motifScale = v
		if done {
			g.motifIn = nil
		}
	}
	g.handleInput()
	return nil
}

func (g *game) handleInput() {
	l := layoutRects()
	st := g.ctrl.State()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if pointInRect(mx, my, l.button) {
			switch st {
			case storyplay.StateIdle:
				g.ctrl.Start()
			case storyplay.StateFinished:
				g.ctrl.Replay()
			}
		}
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace), inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		g.ctrl.Start()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.ctrl.Replay()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.ctrl.Stop()
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.setVolume(g.audio.Prefs.Volume + volumeStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.setVolume(g.audio.Prefs.Volume - volumeStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		g.audio.ToggleMute()
		g.applyPrefs()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.audio.Prefs.Ambience = !g.audio.Prefs.Ambience
		g.applyPrefs()
		g.status = "Ambience takes effect on next launch"
	}
}

func (g *game) setVolume(v float64) {
	g.audio.Prefs.Volume = clamp(v, 0, 1)
	g.applyPrefs()
}

func (g *game) applyPrefs() {
	g.ctrl.Scheduler().SetMasterVolume(g.audio.EffectiveVolume())
	_ = g.store.Save(g.audio.Prefs)
	if g.audio.Muted() {
		g.status = "Muted"
		return
	}
	g.status = fmt.Sprintf("Volume %d%%", int(g.audio.Prefs.Volume*100+0.5))
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := layoutRects()
	snap := g.ctrl.Snapshot()

	drawMotif(screen, l.stage, snap.Scene.Visual, g.motifScale)
	if snap.State != storyplay.StateIdle && snap.Scene.Caption != "" {
		g.drawCaption(screen, l.stage, snap.Scene.Caption)
	}

	vector.DrawFilledRect(screen, float32(l.progress.Min.X), float32(l.progress.Min.Y), float32(l.progress.Dx()), float32(l.progress.Dy()), progressTrack, false)
	fillW := float32(float64(l.progress.Dx()) * snap.Progress)
	vector.DrawFilledRect(screen, float32(l.progress.Min.X), float32(l.progress.Min.Y), fillW, float32(l.progress.Dy()), progressFill, false)

	switch snap.State {
	case storyplay.StateIdle:
		g.drawButton(screen, l.button, "Play Story with Music")
	case storyplay.StateFinished:
		g.drawButton(screen, l.button, "Replay")
	}

	status := fmt.Sprintf("%s  %5.1fs / %.0fs", snap.State, snap.Elapsed.Seconds(), g.ctrl.Table().Duration().Seconds())
	if snap.State == storyplay.StatePlaying {
		if g.ctrl.AudioLive() {
			status += fmt.Sprintf("  audio %5.1fs", max(g.ctrl.AudioPosition(), 0).Seconds())
		} else {
			status += "  (no sound)"
		}
	}
	if g.status != "" {
		status += "  " + g.status
	}
	g.drawText(screen, g.small, status, float64(l.status.Min.X), float64(l.status.Min.Y), textColor, 1)
	g.drawCentered(screen, g.small, "Strong Parents | Strong Miracles", l.footer, textColor, 0.6)
}

func (g *game) Layout(int, int) (int, int) { return windowW, windowH }

func (g *game) Close() { g.ctrl.Close() }

func (g *game) drawCaption(screen *ebiten.Image, stage image.Rectangle, caption string) {
	band := image.Rect(stage.Min.X, stage.Max.Y-72, stage.Max.X, stage.Max.Y-16)
	shade := captionShade
	shade.A = uint8(float32(shade.A) * g.captionAlpha)
	vector.DrawFilledRect(screen, float32(band.Min.X), float32(band.Min.Y), float32(band.Dx()), float32(band.Dy()), shade, false)
	g.drawCentered(screen, g.face, caption, band, textColor, g.captionAlpha)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	vector.DrawFilledRect(screen, float32(rect.Min.X), float32(rect.Min.Y), float32(rect.Dx()), float32(rect.Dy()), panelColor, false)
	drawBorder(screen, rect)
	g.drawCentered(screen, g.small, label, rect, buttonText, 1)
}

func (g *game) drawCentered(screen *ebiten.Image, face text.Face, msg string, rect image.Rectangle, clr color.Color, alpha float32) {
	w, h := text.Measure(msg, face, 0)
	x := float64(rect.Min.X) + (float64(rect.Dx())-w)/2
	y := float64(rect.Min.Y) + (float64(rect.Dy())-h)/2
	g.drawText(screen, face, msg, x, y, clr, alpha)
}

func (g *game) drawText(screen *ebiten.Image, face text.Face, msg string, x, y float64, clr color.Color, alpha float32) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.ColorScale.ScaleAlpha(alpha)
	text.Draw(screen, msg, face, op)
}

// drawBorder draws a raised bevel: highlight top and left, shadow bottom and right.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float32(rect.Min.X)
	y := float32(rect.Min.Y)
	w := float32(rect.Dx())
	h := float32(rect.Dy())
	vector.DrawFilledRect(screen, x, y, w-1, 1, bevelLight, false)
	vector.DrawFilledRect(screen, x, y+1, 1, h-2, bevelLight, false)
	vector.DrawFilledRect(screen, x, y+h-1, w, 1, bevelDarker, false)
	vector.DrawFilledRect(screen, x+w-1, y, 1, h, bevelDarker, false)
	vector.DrawFilledRect(screen, x+1, y+h-2, w-3, 1, borderColor, false)
	vector.DrawFilledRect(screen, x+w-2, y+1, 1, h-3, borderColor, false)
}

type uiLayout struct {
	stage, progress, button, status, footer image.Rectangle
}

func layoutRects() uiLayout {
	stageW, stageH := 800, 480
	left := (windowW - stageW) / 2
	top := 24
	stage := image.Rect(left, top, left+stageW, top+stageH)
	progress := image.Rect(left, stage.Max.Y+10, left+stageW, stage.Max.Y+16)
	buttonW, buttonH := 280, 44
	button := image.Rect(windowW/2-buttonW/2, stage.Min.Y+stageH/2-buttonH/2, windowW/2+buttonW/2, stage.Min.Y+stageH/2+buttonH/2)
	status := image.Rect(left, progress.Max.Y+12, left+stageW, progress.Max.Y+36)
	footer := image.Rect(left, windowH-40, left+stageW, windowH-12)
	return uiLayout{stage: stage, progress: progress, button: button, status: status, footer: footer}
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	g, err := newGame(cfg, settings.Open(cfg.AppName, log.Default()))
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("storyplay")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}

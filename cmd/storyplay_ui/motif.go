package main

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/cbegin/storyplay-go/internal/scene"
)

// Motifs are authored on a 200x120 canvas and scaled to the stage.
const (
	canvasW = 200
	canvasH = 120
)

type canvas struct {
	dst   *ebiten.Image
	rect  image.Rectangle
	unit  float32
	scale float32
}

// pt maps canvas coordinates to screen space, zooming shapes around the
// canvas centre by the entrance scale.
func (c canvas) pt(x, y float32) (float32, float32) {
	x = canvasW/2 + (x-canvasW/2)*c.scale
	y = canvasH/2 + (y-canvasH/2)*c.scale
	return float32(c.rect.Min.X) + x*c.unit, float32(c.rect.Min.Y) + y*c.unit
}

func (c canvas) size(v float32) float32 { return v * c.unit * c.scale }

func (c canvas) gradient(from, to color.RGBA, horizontal bool) {
	const steps = 48
	w := float32(c.rect.Dx())
	h := float32(c.rect.Dy())
	x0 := float32(c.rect.Min.X)
	y0 := float32(c.rect.Min.Y)
	for i := 0; i < steps; i++ {
		clr := lerpColor(from, to, float32(i)/float32(steps-1))
		if horizontal {
			vector.DrawFilledRect(c.dst, x0+w*float32(i)/steps, y0, w/steps+1, h, clr, false)
		} else {
			vector.DrawFilledRect(c.dst, x0, y0+h*float32(i)/steps, w, h/steps+1, clr, false)
		}
	}
}

func (c canvas) circle(cx, cy, r float32, clr color.Color) {
	x, y := c.pt(cx, cy)
	vector.DrawFilledCircle(c.dst, x, y, c.size(r), clr, true)
}

// ellipse is filled one scanline at a time.
func (c canvas) ellipse(cx, cy, rx, ry float32, clr color.Color) {
	x, y := c.pt(cx, cy)
	rx, ry = c.size(rx), c.size(ry)
	for dy := -ry; dy <= ry; dy++ {
		half := rx * float32(math.Sqrt(float64(1-(dy/ry)*(dy/ry))))
		vector.DrawFilledRect(c.dst, x-half, y+dy, 2*half, 1, clr, false)
	}
}

func (c canvas) box(x, y, w, h float32, clr color.Color) {
	sx, sy := c.pt(x, y)
	vector.DrawFilledRect(c.dst, sx, sy, c.size(w), c.size(h), clr, true)
}

// curve strokes a cubic bezier.
func (c canvas) curve(p [4][2]float32, width float32, clr color.Color) {
	const segs = 24
	px, py := c.pt(p[0][0], p[0][1])
	for i := 1; i <= segs; i++ {
		bx, by := bezier(p, float32(i)/segs)
		x, y := c.pt(bx, by)
		vector.StrokeLine(c.dst, px, py, x, y, c.size(width), clr, true)
		vector.DrawFilledCircle(c.dst, x, y, c.size(width)/2, clr, true)
		px, py = x, y
	}
}

// hill fills the area below a cubic bezier running left to right.
func (c canvas) hill(p [4][2]float32, clr color.Color) {
	const segs = 64
	for i := 0; i < segs; i++ {
		bx, by := bezier(p, (float32(i)+0.5)/segs)
		nx, _ := bezier(p, float32(i+1)/segs)
		x, y := c.pt(bx, by)
		_, bottom := c.pt(bx, canvasH)
		next, _ := c.pt(nx, by)
		vector.DrawFilledRect(c.dst, x-1, y, next-x+2, bottom-y, clr, false)
	}
}

func drawMotif(dst *ebiten.Image, rect image.Rectangle, visual scene.VisualTag, scale float32) {
	c := canvas{dst: dst, rect: rect, unit: float32(rect.Dx()) / canvasW, scale: scale}
	switch visual {
	case scene.VisualCouple:
		c.gradient(hex(0x1f2937), hex(0x374151), true)
		c.circle(70, 60, 18, hex(0x9ca3af))
		c.circle(130, 60, 18, hex(0x9ca3af))
		c.box(50, 78, 100, 28, hex(0x6b7280))
		c.box(60, 45, 20, 8, hex(0xd1d5db))
		c.box(120, 45, 20, 8, hex(0xd1d5db))
	case scene.VisualMother:
		c.gradient(hex(0x0ea5e9), hex(0x22d3ee), false)
		c.circle(80, 55, 20, hex(0xf3f4f6))
		c.ellipse(120, 70, 26, 16, hex(0xfdf2f8))
		c.box(60, 75, 80, 24, withAlpha(hex(0xf59e0b), 0.2))
	case scene.VisualEyes:
		c.gradient(hex(0x111827), hex(0x111827), false)
		c.ellipse(70, 60, 28, 14, hex(0xf9fafb))
		c.circle(70, 60, 6, hex(0x1f2937))
		c.ellipse(130, 60, 28, 14, hex(0xf9fafb))
		c.circle(130, 60, 6, hex(0x1f2937))
	case scene.VisualTransition:
		c.gradient(hex(0x1f2937), hex(0x10b981), true)
		c.hill([4][2]float32{{0, 100}, {60, 80}, {140, 40}, {200, 20}}, withAlpha(hex(0x34d399), 0.5))
	case scene.VisualBaby:
		c.gradient(hex(0xfde68a), hex(0xfca5a5), false)
		c.circle(100, 60, 16, hex(0xfde68a))
		c.curve([4][2]float32{{68, 80}, {100, 68}, {100, 68}, {132, 80}}, 10, color.White)
	case scene.VisualParents:
		c.gradient(hex(0x8b5cf6), hex(0xec4899), true)
		c.circle(70, 60, 15, hex(0xf3e8ff))
		c.circle(130, 60, 15, hex(0xfce7f3))
		c.circle(100, 75, 10, hex(0xfef3c7))
	default:
		c.gradient(color.RGBA{A: 255}, color.RGBA{A: 255}, false)
	}
}

func bezier(p [4][2]float32, t float32) (float32, float32) {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return a*p[0][0] + b*p[1][0] + c*p[2][0] + d*p[3][0],
		a*p[0][1] + b*p[1][1] + c*p[2][1] + d*p[3][1]
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// withAlpha returns the premultiplied form of clr at opacity a.
func withAlpha(clr color.RGBA, a float32) color.RGBA {
	return color.RGBA{
		R: uint8(float32(clr.R) * a),
		G: uint8(float32(clr.G) * a),
		B: uint8(float32(clr.B) * a),
		A: uint8(255 * a),
	}
}

func lerpColor(a, b color.RGBA, t float32) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float32(x) + (float32(y)-float32(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

package main

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/jakecoffman/cp"
)

// camera maps scene metres in the X/Y plane to screen pixels, Y up.
type camera struct {
	cx, cy float64
	scale  float64
}

func (c camera) project(x, y float64) (float64, float64) {
	return c.cx + x*c.scale, c.cy - y*c.scale
}

func drawCircle(screen *ebiten.Image, x, y, r, angle float64, clr color.Color) {
	const steps = 24
	px, py := x+r, y
	for i := 1; i <= steps; i++ {
		th := float64(i) * (2 * math.Pi / steps)
		nx, ny := x+math.Cos(th)*r, y+math.Sin(th)*r
		ebitenutil.DrawLine(screen, px, py, nx, ny, clr)
		px, py = nx, ny
	}
	// screen Y points down, so a positive angle is drawn counter-clockwise
	ebitenutil.DrawLine(screen, x, y, x+math.Cos(angle)*r, y-math.Sin(angle)*r, clr)
}

// spaceDrawer renders Chipmunk shapes through the camera.
type spaceDrawer struct {
	screen *ebiten.Image
	cam    camera
}

func (d *spaceDrawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	x, y := d.cam.project(pos.X, pos.Y)
	drawCircle(d.screen, x, y, radius*d.cam.scale, angle, fcolorToRGBA(outline))
}

func (d *spaceDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	ax, ay := d.cam.project(a.X, a.Y)
	bx, by := d.cam.project(b.X, b.Y)
	ebitenutil.DrawLine(d.screen, ax, ay, bx, by, fcolorToRGBA(fill))
}

func (d *spaceDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	d.DrawSegment(a, b, outline, data)
}

func (d *spaceDrawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	for i := 0; i < count; i++ {
		d.DrawSegment(verts[i], verts[(i+1)%count], outline, data)
	}
}

func (d *spaceDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	x, y := d.cam.project(pos.X, pos.Y)
	c := fcolorToRGBA(fill)
	l := size / 2
	ebitenutil.DrawLine(d.screen, x-l, y, x+l, y, c)
	ebitenutil.DrawLine(d.screen, x, y-l, x, y+l, c)
}

func (d *spaceDrawer) Flags() uint {
	return cp.DRAW_SHAPES | cp.DRAW_CONSTRAINTS
}

func (d *spaceDrawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1.0, B: 0.2, A: 1.0}
}

func (d *spaceDrawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	if shape != nil && shape.Body() != nil && shape.Body().GetType() == cp.BODY_KINEMATIC {
		return cp.FColor{R: 1.0, G: 0.6, B: 0.1, A: 1.0}
	}
	return cp.FColor{R: 0.6, G: 0.8, B: 1.0, A: 1.0}
}

func (d *spaceDrawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 0.7, G: 0.7, B: 0.7, A: 1.0}
}

func (d *spaceDrawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1.0, G: 0.1, B: 0.1, A: 1.0}
}

func (d *spaceDrawer) Data() interface{} {
	return nil
}

func fcolorToRGBA(c cp.FColor) color.RGBA {
	clamp := func(v float32) uint8 {
		return uint8(math.Max(0, math.Min(1, float64(v))) * 255)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}

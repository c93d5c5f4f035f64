package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/component"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
	"github.com/mughesh/HVAC-VRB-sub000/sequence"
	"github.com/mughesh/HVAC-VRB-sub000/sim"
)

const (
	screenWidth  = 1280
	screenHeight = 720
	pixelsPerM   = 240
	moveStep     = 0.01
	turnStep     = 3
	markerRadius = 0.08
)

// viewer drives a scene from the keyboard:
// Tab selects, G grabs/releases, arrows move, Q/E turn, Enter seats in the
// nearest socket, Backspace pulls out.
type viewer struct {
	rt      *sim.Runtime
	sc      *scene.Scene
	ctrl    *sequence.Controller
	frameDT float64
	cam     camera
	log     *slog.Logger

	objects  []ecs.Entity
	selected int
	message  string
}

func newViewer(rt *sim.Runtime, ctrl *sequence.Controller, frameDT float64, log *slog.Logger) *viewer {
	v := &viewer{
		rt:      rt,
		sc:      rt.Scene,
		ctrl:    ctrl,
		frameDT: frameDT,
		cam:     camera{cx: screenWidth / 2, cy: screenHeight * 0.6, scale: pixelsPerM},
		log:     log,
	}
	for _, name := range v.sc.Objects() {
		e, _ := v.sc.Resolve(scene.Ref(name))
		if _, ok := v.sc.Grabbable(e); ok {
			v.objects = append(v.objects, e)
		}
	}
	return v
}

func (v *viewer) current() (ecs.Entity, bool) {
	if len(v.objects) == 0 {
		return 0, false
	}
	return v.objects[v.selected%len(v.objects)], true
}

func (v *viewer) Update() error {
	if e, ok := v.current(); ok {
		v.handleInput(e)
	}
	v.rt.Advance(v.frameDT)
	return nil
}

func (v *viewer) handleInput(e ecs.Entity) {
	ref := scene.EntityRef(e)
	report := func(action string, err error) {
		if err != nil {
			v.message = err.Error()
			v.log.Debug("input refused", "action", action, "object", v.sc.NameOf(e), "error", err)
			return
		}
		v.message = action + " " + v.sc.NameOf(e)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.selected = (v.selected + 1) % len(v.objects)
		v.message = ""
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		if g, ok := v.sc.Grabbable(e); ok && g.Held() {
			report("released", v.rt.Release(ref))
		} else {
			report("grabbed", v.rt.Grab(ref))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		report("seated", v.rt.AttachNearest(ref))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		report("pulled", v.rt.Detach(ref))
	}

	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		_ = v.rt.Turn(ref, turnStep)
	}
	if ebiten.IsKeyPressed(ebiten.KeyE) {
		_ = v.rt.Turn(ref, -turnStep)
	}

	var d common.Vec3
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		d.X -= moveStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		d.X += moveStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		d.Y += moveStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		d.Y -= moveStep
	}
	if !d.IsZero() {
		if body, ok := v.sc.Body(e); ok && !body.Kinematic() {
			body.SetPosition(body.Position().Add(d))
		}
	}
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Darkslategray)

	if space := v.sc.Space.Raw(); space != nil {
		cp.DrawSpace(space, &spaceDrawer{screen: screen, cam: v.cam})
	}

	sel, _ := v.current()
	w := v.sc.World()
	ecs.ForEach(w, component.BodyComponent.Kind(), func(e ecs.Entity, b *component.Body) {
		if _, ok := b.Body.(*physics.ChipmunkBody); ok {
			return
		}
		pos := b.Body.Position()
		x, y := v.cam.project(pos.X, pos.Y)
		r := markerRadius * v.cam.scale
		drawCircle(screen, x, y, r, v.angleOf(e)*common.Deg2Rad, v.colorOf(e))
		if e == sel {
			drawCircle(screen, x, y, r+4, 0, colornames.Yellow)
		}
		ebitenutil.DebugPrintAt(screen, v.sc.NameOf(e), int(x+r+4), int(y-8))
	})

	ebitenutil.DebugPrintAt(screen, v.hud(sel), 8, 8)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func (v *viewer) angleOf(e ecs.Entity) float64 {
	if c, ok := v.sc.Valve(e); ok {
		return c.Rotation()
	}
	if c, ok := v.sc.Tool(e); ok {
		return c.Rotation()
	}
	if c, ok := v.sc.Knob(e); ok {
		return c.DisplayAngle()
	}
	return 0
}

func (v *viewer) colorOf(e ecs.Entity) color.Color {
	if c, ok := v.sc.Valve(e); ok {
		switch {
		case c.State() == interaction.ValveUnlocked:
			return colornames.Lightgray
		case c.Substate() == interaction.SubstateTight:
			return colornames.Limegreen
		default:
			return colornames.Orange
		}
	}
	if c, ok := v.sc.Tool(e); ok {
		switch c.State() {
		case interaction.ToolLocked:
			return colornames.Limegreen
		case interaction.ToolSnapped:
			return colornames.Orange
		}
		return colornames.Lightgray
	}
	if _, ok := v.sc.Knob(e); ok {
		return colornames.Skyblue
	}
	if s, ok := v.sc.Socket(e); ok {
		if !s.Enabled() {
			return colornames.Darkgoldenrod
		}
		return colornames.Gold
	}
	return colornames.White
}

func (v *viewer) hud(sel ecs.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  tick %d  %.2fs  FPS %.1f\n", v.sc.Name, v.rt.Ticks(), v.rt.Elapsed(), ebiten.ActualFPS())
	if sel != 0 {
		fmt.Fprintf(&b, "selected: %s\n", v.sc.NameOf(sel))
	}
	for _, name := range v.sc.Objects() {
		e, _ := v.sc.Resolve(scene.Ref(name))
		if c, ok := v.sc.Valve(e); ok {
			fmt.Fprintf(&b, "  %s: %s/%s %.1f\n", name, c.State(), c.Substate(), c.Rotation())
		}
		if c, ok := v.sc.Tool(e); ok {
			fmt.Fprintf(&b, "  %s: %s %.1f\n", name, c.State(), c.Rotation())
		}
		if c, ok := v.sc.Knob(e); ok {
			fmt.Fprintf(&b, "  %s: %.0f\n", name, c.DisplayAngle())
		}
	}
	if v.ctrl != nil {
		p := v.ctrl.Progress()
		switch {
		case p.Finished:
			fmt.Fprintf(&b, "program finished, %d failures\n", p.Failures)
		case p.Running:
			fmt.Fprintf(&b, "%s / %s  %d/%d steps\n", p.ModuleName, p.GroupName, p.CompletedSteps, p.TotalSteps)
		}
	}
	if v.message != "" {
		b.WriteString(v.message + "\n")
	}
	return b.String()
}

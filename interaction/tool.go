package interaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

type ToolState int

const (
	ToolUnlocked ToolState = iota
	ToolSnapped
	ToolLocked
)

func (s ToolState) String() string {
	switch s {
	case ToolSnapped:
		return "snapped"
	case ToolLocked:
		return "locked"
	}
	return "unlocked"
}

// ToolController is the three-state variant of the valve: snapping seats
// the tool, tightening locks it, loosening frees it again.
type ToolController struct {
	env    *Env
	entity ecs.Entity
	body   physics.Body
	grab   *Grabbable
	log    *slog.Logger

	base       *profile.Profile
	params     profile.ToolParams
	configured bool

	state   ToolState
	tracker RotationTracker
	socket  ecs.Entity
	held    bool
	invalid bool
}

func NewToolController(env *Env, e ecs.Entity, body physics.Body, grab *Grabbable) *ToolController {
	return &ToolController{
		env:    env,
		entity: e,
		body:   body,
		grab:   grab,
		log:    env.logger("tool", e),
	}
}

// Configure applies a tool profile; the same profile twice is a no-op.
func (t *ToolController) Configure(p *profile.Profile) error {
	if p == nil {
		t.log.Warn("configure called without a profile")
		return ErrNilProfile
	}
	if p.Kind != profile.KindTool || p.Tool == nil {
		return fmt.Errorf("%w: tool controller given %q", ErrWrongKind, p.Kind)
	}
	if t.configured && p == t.base {
		return nil
	}
	t.base = p
	t.params = *p.Tool
	t.tracker.SetAxis(t.params.Axis)
	if t.configured {
		return nil
	}

	owner := ownerKey("tool", t.entity)
	bus := t.env.bus()
	bus.Subscribe(owner, ecs.Filter{Kind: EventGrabbed, Source: t.entity}, func(ecs.Event) {
		t.held = true
		if t.body != nil {
			t.tracker.Prime(t.body.Euler())
		}
	})
	bus.Subscribe(owner, ecs.Filter{Kind: EventReleased, Source: t.entity}, func(ecs.Event) { t.held = false })
	bus.Subscribe(owner, ecs.Filter{Kind: EventSocketAttached}, func(evt ecs.Event) {
		if evt.Other == t.entity {
			t.onAttached(evt.Source)
		}
	})
	bus.Subscribe(owner, ecs.Filter{Kind: EventSocketDetached}, func(evt ecs.Event) {
		if evt.Other == t.entity {
			t.onDetached(evt.Source)
		}
	})
	t.configured = true
	if t.body != nil {
		t.tracker.Prime(t.body.Euler())
	}
	return nil
}

// ApplyOverrides replaces the thresholds named by o on the runtime parameters.
func (t *ToolController) ApplyOverrides(o profile.Overrides) {
	if !t.configured || o.IsZero() {
		return
	}
	t.params = t.params.WithOverrides(o)
}

// ResetOverrides restores the parameters of the configured profile.
func (t *ToolController) ResetOverrides() {
	if !t.configured {
		return
	}
	t.params = *t.base.Tool
}

// Bind does nothing: tool transitions are immediate, so there is no
// deferred work to tie to a task group.
func (t *ToolController) Bind(context.Context) {}

func (t *ToolController) Entity() ecs.Entity         { return t.entity }
func (t *ToolController) Profile() *profile.Profile  { return t.base }
func (t *ToolController) Params() profile.ToolParams { return t.params }
func (t *ToolController) State() ToolState           { return t.state }
func (t *ToolController) Rotation() float64          { return t.tracker.Total() }
func (t *ToolController) Socket() ecs.Entity         { return t.socket }

func (t *ToolController) Held() bool {
	if t.grab != nil {
		return t.grab.Held()
	}
	return t.held
}

// FixedUpdate runs once per physics tick.
func (t *ToolController) FixedUpdate(dt float64) {
	if !t.configured || t.body == nil {
		return
	}
	delta := t.tracker.Sample(t.body.Euler())
	if t.state == ToolUnlocked {
		return
	}
	if !t.Held() {
		dampenSpin(t.body, t.params.RotationDampening, t.params.DampeningSpeed, dt)
		return
	}
	if delta == 0 {
		return
	}
	t.tracker.Add(delta)
	t.env.emit(ecs.Event{Kind: EventRotationChanged, Source: t.entity, Angle: t.tracker.Total()})

	total := t.tracker.Total()
	tol := t.params.AngleTolerance
	switch t.state {
	case ToolSnapped:
		if total >= t.params.TightenThreshold-tol {
			t.enterLocked()
			return
		}
		t.flagInvalid(total < -tol, total)
	case ToolLocked:
		if -total >= t.params.LoosenThreshold-tol {
			t.leaveLocked()
			return
		}
		t.flagInvalid(total > tol, total)
	}
}

func (t *ToolController) flagInvalid(wrongWay bool, total float64) {
	if !wrongWay {
		t.invalid = false
		return
	}
	if t.invalid {
		return
	}
	t.invalid = true
	t.env.emit(ecs.Event{Kind: EventInvalidRotation, Source: t.entity, Angle: total})
}

func (t *ToolController) onAttached(socket ecs.Entity) {
	if !t.configured || t.state != ToolUnlocked {
		return
	}
	s := t.env.socket(socket)
	if s == nil {
		t.log.Warn("attach from entity without a socket", "socket", socket.String())
		return
	}
	t.socket = socket
	t.body.SetKinematic(true)
	t.body.SetPosition(s.Point())
	t.body.SetConstraints(physics.HingeAbout(t.params.Axis))
	t.setState(ToolSnapped)
	t.env.emit(ecs.Event{Kind: EventSnapped, Source: t.entity, Other: socket})
}

func (t *ToolController) onDetached(socket ecs.Entity) {
	if t.state == ToolLocked {
		t.log.Warn("removal refused while locked")
		if s := t.env.socket(socket); s != nil {
			s.restore(t.entity)
		}
		t.env.emit(ecs.Event{Kind: EventForceRemovalAttempted, Source: t.entity, Other: socket})
		return
	}
	t.release()
	t.socket = 0
	if t.state != ToolUnlocked {
		t.setState(ToolUnlocked)
	}
	t.env.emit(ecs.Event{Kind: EventRemoved, Source: t.entity, Other: socket})
}

func (t *ToolController) enterLocked() {
	t.setState(ToolLocked)
	if s := t.env.socket(t.socket); s != nil {
		s.SetEnabled(false)
	}
	t.env.emit(ecs.Event{Kind: EventTightened, Source: t.entity, Other: t.socket})
}

func (t *ToolController) leaveLocked() {
	t.release()
	if s := t.env.socket(t.socket); s != nil {
		s.SetEnabled(true)
	}
	t.setState(ToolUnlocked)
	t.env.emit(ecs.Event{Kind: EventLoosened, Source: t.entity, Other: t.socket})
}

func (t *ToolController) release() {
	t.body.SetConstraints(physics.FreezeNone)
	t.body.SetKinematic(false)
}

func (t *ToolController) setState(s ToolState) {
	prev := t.state
	t.state = s
	if prev == ToolLocked || s == ToolLocked {
		t.tracker.Reset()
	}
	if s == ToolSnapped {
		t.tracker.Reset()
	}
	t.invalid = false
	t.log.Debug("tool state", "from", prev.String(), "to", s.String())
	t.env.emit(ecs.Event{Kind: EventStateChanged, Source: t.entity, State: s.String()})
}

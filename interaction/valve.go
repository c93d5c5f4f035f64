package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

var (
	ErrNilProfile = errors.New("interaction: nil profile")
	ErrWrongKind  = errors.New("interaction: profile kind does not match controller")
)

type ValveState int

const (
	ValveUnlocked ValveState = iota
	ValveLocked
)

func (s ValveState) String() string {
	if s == ValveLocked {
		return "locked"
	}
	return "unlocked"
}

type ValveSubstate int

const (
	SubstateNone ValveSubstate = iota
	SubstateLoose
	SubstateTight
)

func (s ValveSubstate) String() string {
	switch s {
	case SubstateLoose:
		return "loose"
	case SubstateTight:
		return "tight"
	}
	return "none"
}

// ValveController models a rotary valve seated in a socket:
//
//	Unlocked/None --attach+settle--> Locked/Loose --tighten--> Locked/Tight
//	Locked/Tight --loosen--> Locked/Loose --release, 1 frame + 1 tick--> Unlocked/None
//
// Removal from the socket is only honoured while Unlocked.
type ValveController struct {
	env    *Env
	entity ecs.Entity
	body   physics.Body
	grab   *Grabbable
	log    *slog.Logger

	base       *profile.Profile
	params     profile.ValveParams
	configured bool

	state    ValveState
	substate ValveSubstate
	tracker  RotationTracker
	socket   ecs.Entity
	held     bool

	reenableArmed bool
	invalid       bool
	settling      *task.Handle
	unlocking     *task.Handle
	ctx           context.Context
}

func NewValveController(env *Env, e ecs.Entity, body physics.Body, grab *Grabbable) *ValveController {
	return &ValveController{
		env:    env,
		entity: e,
		body:   body,
		grab:   grab,
		log:    env.logger("valve", e),
		ctx:    context.Background(),
	}
}

// Configure applies a valve profile. Configuring again with the same
// profile is a no-op; a different profile swaps parameters without
// resetting the current state.
func (v *ValveController) Configure(p *profile.Profile) error {
	if p == nil {
		v.log.Warn("configure called without a profile")
		return ErrNilProfile
	}
	if p.Kind != profile.KindValve || p.Valve == nil {
		return fmt.Errorf("%w: valve controller given %q", ErrWrongKind, p.Kind)
	}
	if v.configured && p == v.base {
		return nil
	}
	v.base = p
	v.params = *p.Valve
	v.tracker.SetAxis(v.params.Axis)
	if v.configured {
		v.log.Info("valve reconfigured", "profile", p.Name, "version", p.Version)
		return nil
	}

	owner := ownerKey("valve", v.entity)
	bus := v.env.bus()
	bus.Subscribe(owner, ecs.Filter{Kind: EventGrabbed, Source: v.entity}, func(ecs.Event) { v.onGrabbed() })
	bus.Subscribe(owner, ecs.Filter{Kind: EventReleased, Source: v.entity}, func(ecs.Event) { v.onReleased() })
	bus.Subscribe(owner, ecs.Filter{Kind: EventSocketAttached}, func(evt ecs.Event) {
		if evt.Other == v.entity {
			v.onAttached(evt.Source)
		}
	})
	bus.Subscribe(owner, ecs.Filter{Kind: EventSocketDetached}, func(evt ecs.Event) {
		if evt.Other == v.entity {
			v.onDetached(evt.Source)
		}
	})

	v.configured = true
	v.state = ValveUnlocked
	v.substate = SubstateNone
	v.tracker.Reset()
	if v.body != nil {
		v.tracker.Prime(v.body.Euler())
	}
	v.log.Info("valve configured", "profile", p.Name, "version", p.Version)
	return nil
}

// ApplyOverrides replaces the thresholds named by o on a runtime copy of the
// parameters. The base profile is left untouched.
func (v *ValveController) ApplyOverrides(o profile.Overrides) {
	if !v.configured || o.IsZero() {
		return
	}
	v.params = v.params.WithOverrides(o)
	v.log.Debug("valve overrides applied",
		"tighten_threshold", v.params.TightenThreshold,
		"loosen_threshold", v.params.LoosenThreshold)
}

// ResetOverrides restores the parameters of the configured profile.
func (v *ValveController) ResetOverrides() {
	if !v.configured {
		return
	}
	v.params = *v.base.Valve
}

// Bind ties deferred work started from now on to ctx. Cancelling ctx drops
// any pending settle or unlock without a transition.
func (v *ValveController) Bind(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	v.ctx = ctx
}

func (v *ValveController) Entity() ecs.Entity          { return v.entity }
func (v *ValveController) Profile() *profile.Profile   { return v.base }
func (v *ValveController) Params() profile.ValveParams { return v.params }
func (v *ValveController) State() ValveState           { return v.state }
func (v *ValveController) Substate() ValveSubstate     { return v.substate }
func (v *ValveController) Rotation() float64           { return v.tracker.Total() }
func (v *ValveController) Socket() ecs.Entity          { return v.socket }
func (v *ValveController) ReenableArmed() bool         { return v.reenableArmed }
func (v *ValveController) Settling() bool              { return v.settling != nil && !v.settling.Done() }
func (v *ValveController) Unlocking() bool             { return v.unlocking != nil && !v.unlocking.Done() }

// Held reports whether the valve is in a hand.
func (v *ValveController) Held() bool {
	if v.grab != nil {
		return v.grab.Held()
	}
	return v.held
}

// FixedUpdate runs once per physics tick.
func (v *ValveController) FixedUpdate(dt float64) {
	if !v.configured || v.body == nil {
		return
	}
	delta := v.tracker.Sample(v.body.Euler())
	if v.state != ValveLocked {
		return
	}
	if !v.Held() {
		dampenSpin(v.body, v.params.RotationDampening, v.params.DampeningSpeed, dt)
		return
	}
	if delta == 0 {
		return
	}
	v.tracker.Add(delta)
	v.env.emit(ecs.Event{Kind: EventRotationChanged, Source: v.entity, Angle: v.tracker.Total()})
	v.checkThresholds()
}

func (v *ValveController) checkThresholds() {
	total := v.tracker.Total()
	tol := v.params.AngleTolerance
	switch v.substate {
	case SubstateLoose:
		if total >= v.params.TightenThreshold-tol {
			v.enterTight()
			return
		}
		v.flagInvalid(total < -tol, total)
	case SubstateTight:
		if -total >= v.params.LoosenThreshold-tol {
			v.enterLooseFromTight()
			return
		}
		v.flagInvalid(total > tol, total)
	}
}

// flagInvalid raises invalid-rotation once per excursion past the tolerance
// in the direction the current substate does not allow.
func (v *ValveController) flagInvalid(wrongWay bool, total float64) {
	if !wrongWay {
		v.invalid = false
		return
	}
	if v.invalid {
		return
	}
	v.invalid = true
	v.log.Debug("rotation against allowed direction", "substate", v.substate.String(), "angle", total)
	v.env.emit(ecs.Event{Kind: EventInvalidRotation, Source: v.entity, Angle: total})
}

func (v *ValveController) onGrabbed() {
	v.held = true
	if v.body != nil {
		v.tracker.Prime(v.body.Euler())
	}
}

func (v *ValveController) onReleased() {
	v.held = false
	if !v.reenableArmed || v.state != ValveLocked || v.substate != SubstateLoose {
		return
	}
	v.reenableArmed = false
	if s := v.env.socket(v.socket); s != nil {
		s.SetEnabled(true)
	}
	// Tasks started now are first resumed on the next runner tick, so the
	// unlock lands on the fixed phase that follows the next frame phase. With
	// the frame-then-fixed main loop that is the second fixed step after the
	// release, giving the socket time to take the object back.
	v.unlocking = v.env.Tasks.Start(v.ctx, "valve-unlock:"+v.entity.String(), task.Chain(
		task.NextPhase(task.PhaseFrame),
		task.NextPhase(task.PhaseFixed),
		task.Do(v.commitUnlock),
	))
}

func (v *ValveController) commitUnlock() {
	if v.state != ValveLocked || v.substate != SubstateLoose {
		return
	}
	v.enterUnlocked()
}

func (v *ValveController) onAttached(socket ecs.Entity) {
	if !v.configured {
		return
	}
	if v.state != ValveUnlocked || v.Settling() {
		v.log.Debug("attach ignored", "state", v.state.String(), "settling", v.Settling())
		return
	}
	s := v.env.socket(socket)
	if s == nil {
		v.log.Warn("attach from entity without a socket", "socket", socket.String())
		return
	}
	v.socket = socket
	v.env.emit(ecs.Event{Kind: EventSnapped, Source: v.entity, Other: socket})

	settle := v.params.Settle
	v.settling = v.env.Tasks.Start(v.ctx, "valve-settle:"+v.entity.String(), &task.Poll{
		Phase: task.PhaseFixed,
		Until: func() bool {
			return common.Distance(v.body.Position(), s.Point()) <= settle.PositionTolerance &&
				physics.Speed(v.body) <= settle.SpeedTolerance
		},
		Timeout: settle.Timeout,
		Done: func(timedOut bool) {
			if timedOut {
				v.log.Warn("valve did not settle in socket, locking anyway",
					"socket", socket.String(),
					"distance", common.Distance(v.body.Position(), s.Point()),
					"speed", physics.Speed(v.body))
			}
			if v.state == ValveUnlocked && v.socket == socket {
				v.lockInto(s)
			}
		},
	})
}

func (v *ValveController) onDetached(socket ecs.Entity) {
	if v.state == ValveLocked {
		v.log.Warn("removal refused while locked", "substate", v.substate.String())
		if s := v.env.socket(socket); s != nil {
			s.restore(v.entity)
		}
		v.env.emit(ecs.Event{Kind: EventForceRemovalAttempted, Source: v.entity, Other: socket})
		return
	}
	if v.settling != nil {
		v.settling.Cancel()
		v.settling = nil
	}
	v.socket = 0
	v.env.emit(ecs.Event{Kind: EventRemoved, Source: v.entity, Other: socket})
}

func (v *ValveController) lockInto(s *Socket) {
	v.body.SetKinematic(true)
	v.body.SetPosition(s.Point())
	v.body.SetConstraints(physics.HingeAbout(v.params.Axis))
	v.state = ValveLocked
	v.enterSubstate(SubstateLoose)
	v.log.Info("valve locked", "socket", s.Entity().String())
}

func (v *ValveController) enterTight() {
	v.enterSubstate(SubstateTight)
	v.env.emit(ecs.Event{Kind: EventTightened, Source: v.entity, Other: v.socket})
}

func (v *ValveController) enterLooseFromTight() {
	v.enterSubstate(SubstateLoose)
	v.reenableArmed = true
	v.env.emit(ecs.Event{Kind: EventLoosened, Source: v.entity, Other: v.socket})
}

func (v *ValveController) enterUnlocked() {
	socket := v.socket
	v.state = ValveUnlocked
	v.socket = 0
	v.reenableArmed = false
	v.body.SetConstraints(physics.FreezeNone)
	v.body.SetKinematic(false)
	if s := v.env.socket(socket); s != nil {
		s.SetEnabled(true)
	}
	v.enterSubstate(SubstateNone)
	v.log.Info("valve unlocked", "socket", socket.String())
}

// enterSubstate is the single place the substate changes; the accumulator
// is zeroed on every entry.
func (v *ValveController) enterSubstate(sub ValveSubstate) {
	v.substate = sub
	v.tracker.Reset()
	v.invalid = false
	if sub == SubstateTight {
		v.disableSocket()
	}
	v.env.emit(ecs.Event{
		Kind:     EventStateChanged,
		Source:   v.entity,
		State:    v.state.String(),
		Substate: sub.String(),
	})
}

func (v *ValveController) disableSocket() {
	if s := v.env.socket(v.socket); s != nil {
		s.SetEnabled(false)
	}
}

package interaction

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

// knobEmitEpsilon is the smallest angle change (degrees) worth reporting.
const knobEmitEpsilon = 0.01

// angleLimiter is implemented by bodies that can enforce hinge limits in
// the solver.
type angleLimiter interface {
	SetAngleLimits(minDeg, maxDeg float64)
	ClearAngleLimits()
}

// KnobController tracks one continuous angle about the knob axis.
type KnobController struct {
	env    *Env
	entity ecs.Entity
	body   physics.Body
	log    *slog.Logger

	base       *profile.Profile
	params     profile.KnobParams
	configured bool

	tracker RotationTracker
	angle   float64
	emitted float64
}

func NewKnobController(env *Env, e ecs.Entity, body physics.Body) *KnobController {
	return &KnobController{
		env:    env,
		entity: e,
		body:   body,
		log:    env.logger("knob", e),
	}
}

// Configure applies a knob profile; the same profile twice is a no-op.
func (k *KnobController) Configure(p *profile.Profile) error {
	if p == nil {
		k.log.Warn("configure called without a profile")
		return ErrNilProfile
	}
	if p.Kind != profile.KindKnob || p.Knob == nil {
		return fmt.Errorf("%w: knob controller given %q", ErrWrongKind, p.Kind)
	}
	if k.configured && p == k.base {
		return nil
	}
	k.base = p
	k.params = *p.Knob
	k.tracker.SetAxis(k.params.Axis)
	if lim, ok := k.body.(angleLimiter); ok {
		if k.params.UseLimits {
			lim.SetAngleLimits(k.params.MinAngle, k.params.MaxAngle)
		} else {
			lim.ClearAngleLimits()
		}
	}
	if !k.configured && k.body != nil {
		k.tracker.Prime(k.body.Euler())
	}
	k.configured = true
	k.angle = k.clamp(k.angle)
	k.emitted = k.angle
	return nil
}

func (k *KnobController) Entity() ecs.Entity         { return k.entity }
func (k *KnobController) Profile() *profile.Profile  { return k.base }
func (k *KnobController) Params() profile.KnobParams { return k.params }

// Angle is the tracked knob angle in degrees.
func (k *KnobController) Angle() float64 {
	return k.angle
}

// DisplayAngle is Angle snapped to the configured increment.
func (k *KnobController) DisplayAngle() float64 {
	return common.SnapTo(k.angle, k.params.SnapIncrement)
}

// FixedUpdate runs once per physics tick.
func (k *KnobController) FixedUpdate(float64) {
	if !k.configured || k.body == nil {
		return
	}
	delta := k.tracker.Sample(k.body.Euler())
	if delta == 0 {
		return
	}
	k.angle = k.clamp(k.angle + delta)
	if math.Abs(k.angle-k.emitted) < knobEmitEpsilon {
		return
	}
	k.emitted = k.angle
	k.env.emit(ecs.Event{Kind: EventRotationChanged, Source: k.entity, Angle: k.angle})
}

func (k *KnobController) clamp(a float64) float64 {
	if !k.params.UseLimits {
		return a
	}
	return common.Clamp(a, k.params.MinAngle, k.params.MaxAngle)
}

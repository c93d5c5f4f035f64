package interaction

import (
	"errors"
	"fmt"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/component"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

var ErrNoBody = errors.New("interaction: entity has no physics body")

// Configure applies p to e, creating the capability or controller its kind
// calls for when e does not carry one yet. Rotary controllers also get a
// Grabbable so the hand layer can hold them.
func Configure(env *Env, e ecs.Entity, p *profile.Profile) error {
	if p == nil {
		return ErrNilProfile
	}
	if !ecs.IsAlive(env.World, e) {
		return fmt.Errorf("interaction: configure %s: %w", e, component.ErrEntityNotAlive)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("interaction: configure %s: %w", e, err)
	}

	var err error
	switch p.Kind {
	case profile.KindGrab:
		g, gerr := ensureGrabbable(env, e)
		if gerr != nil {
			return gerr
		}
		g.Configure(*p.Grab)
	case profile.KindSnap:
		s, serr := ensureSocket(env, e)
		if serr != nil {
			return serr
		}
		s.Configure(*p.Snap)
	case profile.KindValve:
		var v *ValveController
		if v, err = ensureValve(env, e); err == nil {
			err = v.Configure(p)
		}
	case profile.KindKnob:
		var k *KnobController
		if k, err = ensureKnob(env, e); err == nil {
			err = k.Configure(p)
		}
	case profile.KindTool:
		var t *ToolController
		if t, err = ensureTool(env, e); err == nil {
			err = t.Configure(p)
		}
	default:
		return fmt.Errorf("%w: %q", profile.ErrInvalidProfile, p.Kind)
	}
	if err != nil {
		return fmt.Errorf("interaction: configure %s: %w", e, err)
	}
	return markInteractable(env, e, p)
}

func markInteractable(env *Env, e ecs.Entity, p *profile.Profile) error {
	tag, ok := ecs.Get(env.World, e, component.InteractableComponent.Kind())
	if !ok {
		return ecs.Add(env.World, e, component.InteractableComponent.Kind(),
			&component.Interactable{Kind: string(p.Kind), Profile: p.Name})
	}
	tag.Kind = string(p.Kind)
	tag.Profile = p.Name
	return nil
}

func bodyOf(env *Env, e ecs.Entity) (physics.Body, error) {
	b, ok := ecs.Get(env.World, e, component.BodyComponent.Kind())
	if !ok || b.Body == nil {
		return nil, ErrNoBody
	}
	return b.Body, nil
}

func ensureGrabbable(env *Env, e ecs.Entity) (*Grabbable, error) {
	if g, ok := ecs.Get(env.World, e, GrabbableComponent.Kind()); ok {
		return g, nil
	}
	g := NewGrabbable(env, e)
	return g, ecs.Add(env.World, e, GrabbableComponent.Kind(), g)
}

// ensureSocket places a new socket at the entity's body position, or at the
// origin for bodiless anchors.
func ensureSocket(env *Env, e ecs.Entity) (*Socket, error) {
	if s, ok := ecs.Get(env.World, e, SocketComponent.Kind()); ok {
		return s, nil
	}
	var point common.Vec3
	if body, err := bodyOf(env, e); err == nil {
		point = body.Position()
	}
	s := NewSocket(env, e, point)
	return s, ecs.Add(env.World, e, SocketComponent.Kind(), s)
}

func ensureValve(env *Env, e ecs.Entity) (*ValveController, error) {
	if v, ok := ecs.Get(env.World, e, ValveComponent.Kind()); ok {
		return v, nil
	}
	body, err := bodyOf(env, e)
	if err != nil {
		return nil, err
	}
	g, err := ensureGrabbable(env, e)
	if err != nil {
		return nil, err
	}
	v := NewValveController(env, e, body, g)
	return v, ecs.Add(env.World, e, ValveComponent.Kind(), v)
}

func ensureKnob(env *Env, e ecs.Entity) (*KnobController, error) {
	if k, ok := ecs.Get(env.World, e, KnobComponent.Kind()); ok {
		return k, nil
	}
	body, err := bodyOf(env, e)
	if err != nil {
		return nil, err
	}
	if _, err := ensureGrabbable(env, e); err != nil {
		return nil, err
	}
	k := NewKnobController(env, e, body)
	return k, ecs.Add(env.World, e, KnobComponent.Kind(), k)
}

func ensureTool(env *Env, e ecs.Entity) (*ToolController, error) {
	if t, ok := ecs.Get(env.World, e, ToolComponent.Kind()); ok {
		return t, nil
	}
	body, err := bodyOf(env, e)
	if err != nil {
		return nil, err
	}
	g, err := ensureGrabbable(env, e)
	if err != nil {
		return nil, err
	}
	t := NewToolController(env, e, body, g)
	return t, ecs.Add(env.World, e, ToolComponent.Kind(), t)
}

// FixedUpdate ticks every socket and controller in the world once.
func FixedUpdate(env *Env, dt float64) {
	ecs.ForEach(env.World, SocketComponent.Kind(), func(_ ecs.Entity, s *Socket) { s.FixedUpdate(dt) })
	ecs.ForEach(env.World, ValveComponent.Kind(), func(_ ecs.Entity, v *ValveController) { v.FixedUpdate(dt) })
	ecs.ForEach(env.World, KnobComponent.Kind(), func(_ ecs.Entity, k *KnobController) { k.FixedUpdate(dt) })
	ecs.ForEach(env.World, ToolComponent.Kind(), func(_ ecs.Entity, t *ToolController) { t.FixedUpdate(dt) })
}

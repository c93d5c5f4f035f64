package system

import (
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/component"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
)

// PhysicsSystem advances rigid bodies by one fixed step: the Chipmunk space
// is stepped once, and bodies without a solver are integrated directly.
type PhysicsSystem struct {
	space *physics.Space
}

func NewPhysicsSystem(space *physics.Space) *PhysicsSystem {
	return &PhysicsSystem{space: space}
}

func (ps *PhysicsSystem) Space() *physics.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *PhysicsSystem) Update(w *ecs.World, dt float64) {
	if ps == nil || w == nil || dt <= 0 {
		return
	}
	ps.space.Step(dt)
	ecs.ForEach(w, component.BodyComponent.Kind(), func(_ ecs.Entity, b *component.Body) {
		if sb, ok := b.Body.(*physics.SimBody); ok {
			sb.Integrate(dt)
		}
	})
}

package system

import (
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
)

// InteractionSystem ticks sockets and interaction controllers once per
// physics step, after the bodies have moved.
type InteractionSystem struct {
	env *interaction.Env
}

func NewInteractionSystem(env *interaction.Env) *InteractionSystem {
	return &InteractionSystem{env: env}
}

func (s *InteractionSystem) Update(w *ecs.World, dt float64) {
	if s == nil || s.env == nil || w != s.env.World {
		return
	}
	interaction.FixedUpdate(s.env, dt)
}

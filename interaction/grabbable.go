package interaction

import (
	"log/slog"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

// Grabbable is the host grab capability: the hand layer calls Grab and
// Release, controllers listen for the resulting signals.
type Grabbable struct {
	env     *Env
	entity  ecs.Entity
	held    bool
	params  profile.GrabParams
	backend profile.Backend
	log     *slog.Logger
}

func NewGrabbable(env *Env, e ecs.Entity) *Grabbable {
	return &Grabbable{
		env:     env,
		entity:  e,
		backend: env.Backend,
		params:  profile.GrabParams{MovementType: "velocity_tracking", TrackRotation: true},
		log:     env.logger("grab", e),
	}
}

// Configure applies a grab profile.
func (g *Grabbable) Configure(p profile.GrabParams) {
	g.params = p
}

func (g *Grabbable) Params() profile.GrabParams {
	return g.params
}

func (g *Grabbable) Backend() profile.Backend {
	return g.backend
}

func (g *Grabbable) Entity() ecs.Entity {
	return g.entity
}

// Held reports whether a hand currently holds the object.
func (g *Grabbable) Held() bool {
	return g != nil && g.held
}

// Grab starts a hold. Grabbing an already held object is ignored.
func (g *Grabbable) Grab() bool {
	if g.held {
		return false
	}
	g.held = true
	g.log.Debug("grabbed", "backend", string(g.backend))
	g.env.emit(ecs.Event{Kind: EventGrabbed, Source: g.entity})
	return true
}

// Release ends a hold.
func (g *Grabbable) Release() bool {
	if !g.held {
		return false
	}
	g.held = false
	g.log.Debug("released")
	g.env.emit(ecs.Event{Kind: EventReleased, Source: g.entity})
	return true
}

package interaction

import (
	"log/slog"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/component"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

const (
	socketPullRate     = 20.0
	socketSnapDistance = 1e-4
	socketVelocityKeep = 0.5
)

// Candidate is what a socket knows about an object offered to it.
type Candidate struct {
	Name string
	Tags []string
}

// IsSocketCompatible reports whether c passes rules. An object is accepted
// when its name is on the allow-list or it carries one of the accepted
// tags; a socket with neither list accepts everything.
func IsSocketCompatible(rules profile.SnapParams, c Candidate) bool {
	if len(rules.AcceptedTags) == 0 && len(rules.AllowedNames) == 0 {
		return true
	}
	for _, name := range rules.AllowedNames {
		if name == c.Name {
			return true
		}
	}
	for _, want := range rules.AcceptedTags {
		for _, tag := range c.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// Socket is a fixed attach point holding at most one object.
type Socket struct {
	env      *Env
	entity   ecs.Entity
	point    common.Vec3
	rules    profile.SnapParams
	enabled  bool
	attached ecs.Entity
	log      *slog.Logger
}

func NewSocket(env *Env, e ecs.Entity, point common.Vec3) *Socket {
	return &Socket{
		env:     env,
		entity:  e,
		point:   point,
		enabled: true,
		log:     env.logger("socket", e),
	}
}

// Configure applies snap rules.
func (s *Socket) Configure(p profile.SnapParams) {
	s.rules = p
}

func (s *Socket) Rules() profile.SnapParams { return s.rules }
func (s *Socket) Entity() ecs.Entity        { return s.entity }
func (s *Socket) Point() common.Vec3        { return s.point }
func (s *Socket) Enabled() bool             { return s != nil && s.enabled }
func (s *Socket) Attached() ecs.Entity      { return s.attached }

// SetEnabled toggles the socket. Disabling keeps the current object
// attached but refuses attach and detach until re-enabled.
func (s *Socket) SetEnabled(enabled bool) {
	if s == nil || s.enabled == enabled {
		return
	}
	s.enabled = enabled
	s.log.Debug("socket toggled", "enabled", enabled)
}

// Candidate describes e from its Name and Tags components.
func (s *Socket) Candidate(e ecs.Entity) Candidate {
	var c Candidate
	if n, ok := ecs.Get(s.env.World, e, component.NameComponent.Kind()); ok {
		c.Name = n.Name
	}
	if t, ok := ecs.Get(s.env.World, e, component.TagsComponent.Kind()); ok {
		c.Tags = t.Values
	}
	return c
}

// IsCompatible applies the socket rules to e.
func (s *Socket) IsCompatible(e ecs.Entity) bool {
	return IsSocketCompatible(s.rules, s.Candidate(e))
}

// InRange reports whether pos is close enough to attach.
func (s *Socket) InRange(pos common.Vec3) bool {
	if s.rules.AttachTolerance <= 0 {
		return true
	}
	return common.Distance(pos, s.point) <= s.rules.AttachTolerance
}

// Attach seats obj and raises socket-attached. Nothing is raised when the
// socket is disabled, occupied or obj is incompatible.
func (s *Socket) Attach(obj ecs.Entity) bool {
	if !s.enabled || s.attached != 0 || obj == 0 {
		return false
	}
	if !s.IsCompatible(obj) {
		s.log.Debug("incompatible object refused", "object", obj.String())
		return false
	}
	s.attached = obj
	s.env.emit(ecs.Event{Kind: EventSocketAttached, Source: s.entity, Other: obj})
	return true
}

// Detach unseats obj and raises socket-detached.
func (s *Socket) Detach(obj ecs.Entity) bool {
	if !s.enabled || s.attached == 0 || s.attached != obj {
		return false
	}
	s.attached = 0
	s.env.emit(ecs.Event{Kind: EventSocketDetached, Source: s.entity, Other: obj})
	return true
}

// restore re-seats obj silently after a refused removal.
func (s *Socket) restore(obj ecs.Entity) {
	if s.attached == 0 {
		s.attached = obj
	}
}

// FixedUpdate eases the attached object's body toward the attach point
// while the body is still free to move, the way an engine socket pulls an
// object into its attach pose.
func (s *Socket) FixedUpdate(dt float64) {
	if s.attached == 0 || !s.enabled {
		return
	}
	b, ok := ecs.Get(s.env.World, s.attached, component.BodyComponent.Kind())
	if !ok || b.Body == nil || b.Body.Constraints().Has(physics.FreezePosition) {
		return
	}
	body := b.Body
	pos := body.Position()
	if common.Distance(pos, s.point) <= socketSnapDistance {
		body.SetPosition(s.point)
	} else {
		body.SetPosition(pos.Add(s.point.Sub(pos).Scale(common.Clamp01(socketPullRate * dt))))
	}
	if v, ok := body.(interface{ SetVelocity(common.Vec3) }); ok {
		v.SetVelocity(body.Velocity().Scale(socketVelocityKeep))
	}
	body.SetAngularVelocity(body.AngularVelocity().Scale(socketVelocityKeep))
}

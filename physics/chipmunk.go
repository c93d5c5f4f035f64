package physics

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/mughesh/HVAC-VRB-sub000/common"
)

// Space owns a Chipmunk space. Bodies live in the X/Y plane and rotate about
// Z; the Z coordinate is carried alongside for scene bookkeeping only.
type Space struct {
	space  *cp.Space
	bodies []*ChipmunkBody
}

// NewSpace creates a space with the given planar gravity.
func NewSpace(gravity common.Vec3) *Space {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: gravity.X, Y: gravity.Y})
	return &Space{space: space}
}

// Raw exposes the Chipmunk space for debug drawing.
func (s *Space) Raw() *cp.Space {
	if s == nil {
		return nil
	}
	return s.space
}

// Step advances the solver by dt seconds.
func (s *Space) Step(dt float64) {
	if s == nil || s.space == nil || dt <= 0 {
		return
	}
	s.space.Step(dt)
}

// Bodies returns every body added to the space.
func (s *Space) Bodies() []*ChipmunkBody {
	if s == nil {
		return nil
	}
	return append([]*ChipmunkBody(nil), s.bodies...)
}

// AddBody creates a dynamic disc body at pos.
func (s *Space) AddBody(pos common.Vec3, radius, mass float64) *ChipmunkBody {
	if radius <= 0 {
		radius = 0.05
	}
	if mass <= 0 {
		mass = 1
	}
	moment := cp.MomentForCircle(mass, 0, radius, cp.Vector{})
	body := s.space.AddBody(cp.NewBody(mass, moment))
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	shape := s.space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))
	shape.SetFriction(0.8)

	cb := &ChipmunkBody{
		space:  s,
		body:   body,
		shape:  shape,
		z:      pos.Z,
		moment: moment,
	}
	s.bodies = append(s.bodies, cb)
	return cb
}

// ChipmunkBody adapts a cp.Body to Body.
type ChipmunkBody struct {
	space  *Space
	body   *cp.Body
	shape  *cp.Shape
	z      float64
	moment float64

	frozen    Constraints
	kinematic bool
	hinge     *cp.Constraint
	limit     *cp.Constraint
}

func (b *ChipmunkBody) Raw() *cp.Body {
	return b.body
}

func (b *ChipmunkBody) Position() common.Vec3 {
	p := b.body.Position()
	return common.Vec3{X: p.X, Y: p.Y, Z: b.z}
}

func (b *ChipmunkBody) SetPosition(p common.Vec3) {
	b.body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
	b.z = p.Z
	if b.hinge != nil {
		b.rebuildHinge()
	}
}

func (b *ChipmunkBody) Euler() common.Vec3 {
	return common.Vec3{Z: common.Repeat(b.body.Angle() * common.Rad2Deg)}
}

// Turn rotates the body by deg about Z, the way a hand would drive it.
func (b *ChipmunkBody) Turn(deg float64) {
	if b.frozen.Has(FreezeRotationZ) {
		return
	}
	b.body.SetAngle(b.body.Angle() + deg*common.Deg2Rad)
}

func (b *ChipmunkBody) Velocity() common.Vec3 {
	v := b.body.Velocity()
	return common.Vec3{X: v.X, Y: v.Y}
}

func (b *ChipmunkBody) SetVelocity(v common.Vec3) {
	if b.frozen.Has(FreezePositionX) {
		v.X = 0
	}
	if b.frozen.Has(FreezePositionY) {
		v.Y = 0
	}
	b.body.SetVelocity(v.X, v.Y)
}

func (b *ChipmunkBody) AngularVelocity() common.Vec3 {
	return common.Vec3{Z: b.body.AngularVelocity() * common.Rad2Deg}
}

func (b *ChipmunkBody) SetAngularVelocity(w common.Vec3) {
	if b.frozen.Has(FreezeRotationZ) {
		w.Z = 0
	}
	b.body.SetAngularVelocity(w.Z * common.Deg2Rad)
}

func (b *ChipmunkBody) Constraints() Constraints {
	return b.frozen
}

// SetConstraints maps the planar subset of c onto the solver: a frozen
// position pins the body to the static body with a pivot joint, a frozen Z
// rotation gives the body an infinite moment.
func (b *ChipmunkBody) SetConstraints(c Constraints) {
	b.frozen = c
	pinned := c.Has(FreezePositionX | FreezePositionY)
	switch {
	case pinned && b.hinge == nil:
		b.rebuildHinge()
	case !pinned && b.hinge != nil:
		b.space.space.RemoveConstraint(b.hinge)
		b.hinge = nil
	}
	if pinned {
		b.body.SetVelocity(0, 0)
	}
	if c.Has(FreezeRotationZ) {
		b.body.SetAngularVelocity(0)
		if !b.kinematic {
			b.body.SetMoment(math.Inf(1))
		}
	} else if !b.kinematic {
		b.body.SetMoment(b.moment)
	}
}

func (b *ChipmunkBody) rebuildHinge() {
	if b.hinge != nil {
		b.space.space.RemoveConstraint(b.hinge)
	}
	b.hinge = b.space.space.AddConstraint(cp.NewPivotJoint(b.body, b.space.space.StaticBody, b.body.Position()))
}

func (b *ChipmunkBody) Kinematic() bool {
	return b.kinematic
}

func (b *ChipmunkBody) SetKinematic(k bool) {
	if b.kinematic == k {
		return
	}
	b.kinematic = k
	if k {
		b.body.SetType(cp.BODY_KINEMATIC)
		return
	}
	b.body.SetType(cp.BODY_DYNAMIC)
	if b.frozen.Has(FreezeRotationZ) {
		b.body.SetMoment(math.Inf(1))
	} else {
		b.body.SetMoment(b.moment)
	}
}

// SetAngleLimits restricts rotation to [minDeg, maxDeg] with a rotary limit
// joint against the static body.
func (b *ChipmunkBody) SetAngleLimits(minDeg, maxDeg float64) {
	b.ClearAngleLimits()
	if maxDeg < minDeg {
		minDeg, maxDeg = maxDeg, minDeg
	}
	b.limit = b.space.space.AddConstraint(cp.NewRotaryLimitJoint(b.body, b.space.space.StaticBody, minDeg*common.Deg2Rad, maxDeg*common.Deg2Rad))
}

func (b *ChipmunkBody) ClearAngleLimits() {
	if b.limit == nil {
		return
	}
	b.space.space.RemoveConstraint(b.limit)
	b.limit = nil
}

// Hinged reports whether the body is currently pinned in place.
func (b *ChipmunkBody) Hinged() bool {
	return b.hinge != nil
}

package physics

import "github.com/mughesh/HVAC-VRB-sub000/common"

// SimBody is a body with no solver behind it. Scripted runs and tests move
// it directly; Integrate applies velocities while honouring constraints.
type SimBody struct {
	Pos         common.Vec3
	Rot         common.Vec3
	Vel         common.Vec3
	AngVel      common.Vec3
	Frozen      Constraints
	IsKinematic bool
}

func NewSimBody(pos common.Vec3) *SimBody {
	return &SimBody{Pos: pos}
}

func (b *SimBody) Position() common.Vec3     { return b.Pos }
func (b *SimBody) SetPosition(p common.Vec3) { b.Pos = p }
func (b *SimBody) Euler() common.Vec3        { return b.Rot }
func (b *SimBody) Velocity() common.Vec3     { return b.Vel }
func (b *SimBody) AngularVelocity() common.Vec3 {
	return b.AngVel
}
func (b *SimBody) SetAngularVelocity(w common.Vec3) { b.AngVel = b.maskRotation(w) }
func (b *SimBody) Constraints() Constraints         { return b.Frozen }
func (b *SimBody) SetConstraints(c Constraints) {
	b.Frozen = c
	b.Vel = b.maskPosition(b.Vel)
	b.AngVel = b.maskRotation(b.AngVel)
}
func (b *SimBody) Kinematic() bool     { return b.IsKinematic }
func (b *SimBody) SetKinematic(k bool) { b.IsKinematic = k }

// Rotate turns the body by deg about axis. Euler components are kept in
// [0, 360) the way an engine reports them, so callers see the wrap seam.
func (b *SimBody) Rotate(axis common.Vec3, deg float64) {
	d := axis.Normalize().Scale(deg)
	b.Rot = common.Vec3{
		X: common.Repeat(b.Rot.X + d.X),
		Y: common.Repeat(b.Rot.Y + d.Y),
		Z: common.Repeat(b.Rot.Z + d.Z),
	}
}

// Integrate advances position and rotation by the current velocities.
func (b *SimBody) Integrate(dt float64) {
	if dt <= 0 {
		return
	}
	b.Pos = b.Pos.Add(b.maskPosition(b.Vel).Scale(dt))
	w := b.maskRotation(b.AngVel)
	if !w.IsZero() {
		b.Rotate(w.Normalize(), w.Len()*dt)
	}
}

func (b *SimBody) maskPosition(v common.Vec3) common.Vec3 {
	if b.Frozen.Has(FreezePositionX) {
		v.X = 0
	}
	if b.Frozen.Has(FreezePositionY) {
		v.Y = 0
	}
	if b.Frozen.Has(FreezePositionZ) {
		v.Z = 0
	}
	return v
}

func (b *SimBody) maskRotation(w common.Vec3) common.Vec3 {
	if b.Frozen.Has(FreezeRotationX) {
		w.X = 0
	}
	if b.Frozen.Has(FreezeRotationY) {
		w.Y = 0
	}
	if b.Frozen.Has(FreezeRotationZ) {
		w.Z = 0
	}
	return w
}

// SetVelocity sets the linear velocity, masked by the frozen axes.
func (b *SimBody) SetVelocity(v common.Vec3) { b.Vel = b.maskPosition(v) }

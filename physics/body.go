// Package physics describes the rigid-body capability interaction controllers
// drive, with an in-memory body and a Chipmunk2D-backed body.
package physics

import "github.com/mughesh/HVAC-VRB-sub000/common"

// Constraints freezes position or rotation per axis.
type Constraints uint8

const (
	FreezePositionX Constraints = 1 << iota
	FreezePositionY
	FreezePositionZ
	FreezeRotationX
	FreezeRotationY
	FreezeRotationZ

	FreezeNone     Constraints = 0
	FreezePosition             = FreezePositionX | FreezePositionY | FreezePositionZ
	FreezeRotation             = FreezeRotationX | FreezeRotationY | FreezeRotationZ
	FreezeAll                  = FreezePosition | FreezeRotation
)

func (c Constraints) Has(flag Constraints) bool {
	return c&flag == flag
}

// HingeAbout freezes position and every rotation axis except the dominant
// component of axis.
func HingeAbout(axis common.Vec3) Constraints {
	c := FreezeAll
	switch dominantAxis(axis) {
	case 0:
		c &^= FreezeRotationX
	case 1:
		c &^= FreezeRotationY
	default:
		c &^= FreezeRotationZ
	}
	return c
}

func dominantAxis(v common.Vec3) int {
	ax, ay, az := abs(v.X), abs(v.Y), abs(v.Z)
	switch {
	case ax >= ay && ax >= az:
		return 0
	case ay >= az:
		return 1
	default:
		return 2
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Body is a rigid body as seen by interaction controllers. Rotation is
// reported as Euler angles in degrees and angular velocity in degrees per
// second.
type Body interface {
	Position() common.Vec3
	SetPosition(p common.Vec3)
	Euler() common.Vec3
	Velocity() common.Vec3
	AngularVelocity() common.Vec3
	SetAngularVelocity(w common.Vec3)
	Constraints() Constraints
	SetConstraints(c Constraints)
	Kinematic() bool
	SetKinematic(k bool)
}

// Speed returns the combined linear and angular speed used by settle checks.
func Speed(b Body) float64 {
	if b == nil {
		return 0
	}
	return b.Velocity().Len() + b.AngularVelocity().Len()
}

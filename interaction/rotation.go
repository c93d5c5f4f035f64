package interaction

import "github.com/mughesh/HVAC-VRB-sub000/common"

// RotationTracker accumulates signed rotation about an axis from successive
// Euler samples. Each sample is differenced against the previous one with
// every component wrapped into [-180, 180] before projecting onto the axis,
// so crossing the 0/360 seam never produces a jump.
type RotationTracker struct {
	axis   common.Vec3
	last   common.Vec3
	primed bool
	total  float64
}

func NewRotationTracker(axis common.Vec3) RotationTracker {
	return RotationTracker{axis: axis.Normalize()}
}

func (r *RotationTracker) SetAxis(axis common.Vec3) {
	r.axis = axis.Normalize()
}

func (r *RotationTracker) Axis() common.Vec3 {
	return r.axis
}

// Prime sets the reference sample without producing a delta.
func (r *RotationTracker) Prime(euler common.Vec3) {
	r.last = euler
	r.primed = true
}

// Sample returns the rotation about the axis since the previous sample and
// makes euler the new reference. It does not touch the running total.
func (r *RotationTracker) Sample(euler common.Vec3) float64 {
	if !r.primed {
		r.Prime(euler)
		return 0
	}
	d := common.EulerDelta(r.last, euler)
	r.last = euler
	return d.Dot(r.axis)
}

func (r *RotationTracker) Add(delta float64) {
	r.total += delta
}

func (r *RotationTracker) Total() float64 {
	return r.total
}

func (r *RotationTracker) Reset() {
	r.total = 0
}

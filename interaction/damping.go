package interaction

import (
	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
)

// angularSpeedFloor is the spin (deg/s) below which a released object is
// stopped outright.
const angularSpeedFloor = 0.1

// dampenSpin bleeds residual angular velocity off a body nobody is holding.
func dampenSpin(body physics.Body, dampening, speed, dt float64) {
	if body == nil || dampening <= 0 {
		return
	}
	w := body.AngularVelocity()
	if w.IsZero() {
		return
	}
	w = w.Scale(1 - common.Clamp01(dampening*speed*dt))
	if w.Len() < angularSpeedFloor {
		w = common.Vec3{}
	}
	body.SetAngularVelocity(w)
}

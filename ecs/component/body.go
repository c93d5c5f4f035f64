package component

import "github.com/mughesh/HVAC-VRB-sub000/physics"

// Body holds the rigid body an interaction controller drives.
type Body struct {
	Body physics.Body
}

var BodyComponent = NewComponent[Body]()

package interaction

import "github.com/mughesh/HVAC-VRB-sub000/ecs/component"

var (
	GrabbableComponent = component.NewComponent[Grabbable]()
	SocketComponent    = component.NewComponent[Socket]()
	ValveComponent     = component.NewComponent[ValveController]()
	KnobComponent      = component.NewComponent[KnobController]()
	ToolComponent      = component.NewComponent[ToolController]()
)

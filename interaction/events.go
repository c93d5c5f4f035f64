// Package interaction implements the per-object interaction state machines
// (valve, knob, tool) and the grab/socket host capabilities they consume.
package interaction

import "github.com/mughesh/HVAC-VRB-sub000/ecs"

// Host signals.
const (
	EventGrabbed        ecs.EventKind = "grabbed"
	EventReleased       ecs.EventKind = "released"
	EventSocketAttached ecs.EventKind = "socket-attached"
	EventSocketDetached ecs.EventKind = "socket-detached"
)

// Controller outputs.
const (
	EventRotationChanged       ecs.EventKind = "rotation-changed"
	EventTightened             ecs.EventKind = "tightened"
	EventLoosened              ecs.EventKind = "loosened"
	EventSnapped               ecs.EventKind = "snapped"
	EventRemoved               ecs.EventKind = "removed"
	EventStateChanged          ecs.EventKind = "state-changed"
	EventInvalidRotation       ecs.EventKind = "invalid-rotation"
	EventForceRemovalAttempted ecs.EventKind = "force-removal-attempted"
)

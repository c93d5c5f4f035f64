package sim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mughesh/HVAC-VRB-sub000/bridge"
	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
)

var (
	ErrNotGrabbable  = errors.New("sim: object is not grabbable")
	ErrNotSocket     = errors.New("sim: object is not a socket")
	ErrNotSeated     = errors.New("sim: object is not in a socket")
	ErrRefused       = errors.New("sim: input refused")
	ErrUnknownAction = errors.New("sim: unknown action")
)

// Grab starts a hold on ref.
func (r *Runtime) Grab(ref scene.ObjectRef) error {
	g, err := r.grabbable(ref)
	if err != nil {
		return err
	}
	g.Grab()
	return nil
}

// Release ends a hold on ref.
func (r *Runtime) Release(ref scene.ObjectRef) error {
	g, err := r.grabbable(ref)
	if err != nil {
		return err
	}
	g.Release()
	return nil
}

// Attach seats obj in socket. A socket that refuses the object returns
// ErrRefused.
func (r *Runtime) Attach(obj, socket scene.ObjectRef) error {
	e, err := r.Scene.MustResolve(obj)
	if err != nil {
		return err
	}
	s, err := r.socket(socket)
	if err != nil {
		return err
	}
	if !s.Attach(e) {
		return fmt.Errorf("%w: %s into %s", ErrRefused, obj, socket)
	}
	return nil
}

// AttachNearest seats obj in the closest enabled socket that accepts it and
// has it in range.
func (r *Runtime) AttachNearest(obj scene.ObjectRef) error {
	e, err := r.Scene.MustResolve(obj)
	if err != nil {
		return err
	}
	body, ok := r.Scene.Body(e)
	if !ok {
		return fmt.Errorf("%w: %s", interaction.ErrNoBody, obj)
	}
	pos := body.Position()
	var best *interaction.Socket
	bestDist := math.Inf(1)
	ecs.ForEach(r.World(), interaction.SocketComponent.Kind(), func(_ ecs.Entity, s *interaction.Socket) {
		if !s.Enabled() || s.Attached() != 0 || !s.InRange(pos) || !s.IsCompatible(e) {
			return
		}
		if d := common.Distance(pos, s.Point()); d < bestDist {
			best, bestDist = s, d
		}
	})
	if best == nil {
		return fmt.Errorf("%w: no socket takes %s", ErrRefused, obj)
	}
	if !best.Attach(e) {
		return fmt.Errorf("%w: %s", ErrRefused, obj)
	}
	return nil
}

// Detach pulls obj out of whichever socket holds it. A locked socket
// refuses; that is reported as ErrRefused.
func (r *Runtime) Detach(obj scene.ObjectRef) error {
	e, err := r.Scene.MustResolve(obj)
	if err != nil {
		return err
	}
	s := r.holder(e)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrNotSeated, obj)
	}
	if !s.Detach(e) {
		return fmt.Errorf("%w: detach %s", ErrRefused, obj)
	}
	return nil
}

// Turn rotates obj by deg about its interaction axis without advancing
// time.
func (r *Runtime) Turn(obj scene.ObjectRef, deg float64) error {
	e, err := r.Scene.MustResolve(obj)
	if err != nil {
		return err
	}
	body, ok := r.Scene.Body(e)
	if !ok {
		return fmt.Errorf("%w: %s", interaction.ErrNoBody, obj)
	}
	turn(body, r.axisOf(e), deg)
	return nil
}

// Rotate turns obj by deg spread evenly over ticks physics steps.
func (r *Runtime) Rotate(obj scene.ObjectRef, deg float64, ticks int) error {
	if ticks <= 0 {
		ticks = 1
	}
	per := deg / float64(ticks)
	for i := 0; i < ticks; i++ {
		if err := r.Turn(obj, per); err != nil {
			return err
		}
		r.Tick()
	}
	return nil
}

// Move places obj at the attach point of to, or at its position when to is
// not a socket.
func (r *Runtime) Move(obj, to scene.ObjectRef) error {
	e, err := r.Scene.MustResolve(obj)
	if err != nil {
		return err
	}
	body, ok := r.Scene.Body(e)
	if !ok {
		return fmt.Errorf("%w: %s", interaction.ErrNoBody, obj)
	}
	target, err := r.Scene.MustResolve(to)
	if err != nil {
		return err
	}
	if s, ok := r.Scene.Socket(target); ok {
		body.SetPosition(s.Point())
		return nil
	}
	tb, ok := r.Scene.Body(target)
	if !ok {
		return fmt.Errorf("%w: %s", interaction.ErrNoBody, to)
	}
	body.SetPosition(tb.Position())
	return nil
}

// Wait runs ticks physics steps.
func (r *Runtime) Wait(ticks int) {
	for i := 0; i < ticks; i++ {
		r.Tick()
	}
}

// Apply performs one remote input. Actions are grab, release, detach,
// attach (body: socket name, or empty for the nearest socket) and rotate (body: degrees, turned in one step).
func (r *Runtime) Apply(cmd bridge.Command) error {
	obj := scene.Ref(cmd.Object)
	arg := strings.TrimSpace(string(cmd.Body))
	switch cmd.Action {
	case "grab":
		return r.Grab(obj)
	case "release":
		return r.Release(obj)
	case "detach":
		return r.Detach(obj)
	case "attach":
		if arg == "" {
			return r.AttachNearest(obj)
		}
		return r.Attach(obj, scene.Ref(arg))
	case "rotate":
		deg, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("sim: rotate %s: %w", cmd.Object, err)
		}
		return r.Rotate(obj, deg, 1)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
}

func (r *Runtime) grabbable(ref scene.ObjectRef) (*interaction.Grabbable, error) {
	e, err := r.Scene.MustResolve(ref)
	if err != nil {
		return nil, err
	}
	g, ok := r.Scene.Grabbable(e)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGrabbable, ref)
	}
	return g, nil
}

func (r *Runtime) socket(ref scene.ObjectRef) (*interaction.Socket, error) {
	e, err := r.Scene.MustResolve(ref)
	if err != nil {
		return nil, err
	}
	s, ok := r.Scene.Socket(e)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSocket, ref)
	}
	return s, nil
}

func (r *Runtime) holder(e ecs.Entity) *interaction.Socket {
	var found *interaction.Socket
	ecs.ForEach(r.World(), interaction.SocketComponent.Kind(), func(_ ecs.Entity, s *interaction.Socket) {
		if found == nil && s.Attached() == e {
			found = s
		}
	})
	return found
}

func (r *Runtime) axisOf(e ecs.Entity) common.Vec3 {
	if v, ok := r.Scene.Valve(e); ok {
		return v.Params().Axis
	}
	if t, ok := r.Scene.Tool(e); ok {
		return t.Params().Axis
	}
	if k, ok := r.Scene.Knob(e); ok {
		return k.Params().Axis
	}
	return common.AxisY
}

// turn drives a body the way a hand would. Chipmunk bodies only turn in
// the plane.
func turn(body physics.Body, axis common.Vec3, deg float64) {
	switch b := body.(type) {
	case interface{ Rotate(common.Vec3, float64) }:
		b.Rotate(axis, deg)
	case interface{ Turn(float64) }:
		b.Turn(deg)
	}
}

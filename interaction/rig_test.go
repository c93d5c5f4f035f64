package interaction

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/component"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

const (
	fixedDT = 1.0 / 50
	frameDT = 1.0 / 60
)

var socketPoint = common.Vec3{Y: 1}

type rig struct {
	t      *testing.T
	world  *ecs.World
	env    *Env
	tasks  *task.Runner
	socket *Socket
	object ecs.Entity
	body   *physics.SimBody
	grab   *Grabbable
	events []ecs.Event
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRig builds a socket accepting tag and an object carrying tag, then
// configures the object with p.
func newRig(t *testing.T, p *profile.Profile, tag string) *rig {
	t.Helper()
	w := ecs.NewWorld()
	tasks := task.NewRunner()
	env := NewEnv(w, tasks, quietLogger())

	se := ecs.CreateEntity(w)
	s := NewSocket(env, se, socketPoint)
	s.Configure(profile.SnapParams{AcceptedTags: []string{tag}})
	require.NoError(t, ecs.Add(w, se, SocketComponent.Kind(), s))

	obj := ecs.CreateEntity(w)
	body := physics.NewSimBody(socketPoint)
	require.NoError(t, ecs.Add(w, obj, component.NameComponent.Kind(), &component.Name{Name: "Object"}))
	require.NoError(t, ecs.Add(w, obj, component.TagsComponent.Kind(), &component.Tags{Values: []string{tag}}))
	require.NoError(t, ecs.Add(w, obj, component.BodyComponent.Kind(), &component.Body{Body: body}))
	require.NoError(t, Configure(env, obj, p))

	g, ok := ecs.Get(w, obj, GrabbableComponent.Kind())
	require.True(t, ok)

	r := &rig{t: t, world: w, env: env, tasks: tasks, socket: s, object: obj, body: body, grab: g}
	w.Events().Subscribe("test", ecs.Filter{}, func(evt ecs.Event) { r.events = append(r.events, evt) })
	return r
}

func (r *rig) valve() *ValveController {
	v, ok := ecs.Get(r.world, r.object, ValveComponent.Kind())
	require.True(r.t, ok)
	return v
}

func (r *rig) tool() *ToolController {
	tc, ok := ecs.Get(r.world, r.object, ToolComponent.Kind())
	require.True(r.t, ok)
	return tc
}

func (r *rig) fixed(n int) {
	for i := 0; i < n; i++ {
		FixedUpdate(r.env, fixedDT)
		r.tasks.Tick(task.PhaseFixed, fixedDT)
	}
}

func (r *rig) frame() {
	r.tasks.Tick(task.PhaseFrame, frameDT)
}

// turn rotates the object by deg about Y over steps physics ticks.
func (r *rig) turn(deg float64, steps int) {
	for i := 0; i < steps; i++ {
		r.body.Rotate(common.AxisY, deg/float64(steps))
		r.fixed(1)
	}
}

func (r *rig) count(kind ecs.EventKind) int {
	n := 0
	for _, evt := range r.events {
		if evt.Kind == kind {
			n++
		}
	}
	return n
}

func (r *rig) seat() {
	r.t.Helper()
	require.True(r.t, r.socket.Attach(r.object))
	r.fixed(3)
}

package sequence

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

const (
	fixedDT = 1.0 / 50
	frameDT = 1.0 / 60
)

const bay = `
name: bay
objects:
  - name: Socket_A
    path: Rig/Socket_A
    position: {x: 0, y: 1, z: 0}
    profiles: [valve-socket]
  - name: Valve_A
    path: Rig/Valve_A
    tags: [valve]
    position: {x: 0, y: 1, z: 0}
    profiles: [valve-default]
  - name: Dial
    profiles: [dial]
  - name: Handle
    profiles: [handle]
`

type harness struct {
	t     *testing.T
	env   *interaction.Env
	tasks *task.Runner
	sc    *scene.Scene
	log   *slog.Logger
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tasks := task.NewRunner()
	env := interaction.NewEnv(ecs.NewWorld(), tasks, quietLogger())
	lib := profile.NewLibrary(
		profile.NewSnap("valve-socket", profile.SnapParams{AcceptedTags: []string{"valve"}}),
		profile.NewValve("valve-default", profile.DefaultValve()),
		profile.NewKnob("dial", profile.DefaultKnob()),
		profile.NewGrab("handle", profile.GrabParams{MovementType: "instantaneous"}),
	)
	spec, err := scene.ParseSpec([]byte(bay))
	require.NoError(t, err)
	sc, err := scene.Build(env, spec, lib)
	require.NoError(t, err)
	return &harness{t: t, env: env, tasks: tasks, sc: sc, log: quietLogger()}
}

func (h *harness) entity(name string) ecs.Entity {
	h.t.Helper()
	e, ok := h.sc.Resolve(scene.Ref(name))
	require.True(h.t, ok, name)
	return e
}

func (h *harness) grab(name string) *interaction.Grabbable {
	h.t.Helper()
	g, ok := h.sc.Grabbable(h.entity(name))
	require.True(h.t, ok, name)
	return g
}

func (h *harness) socket(name string) *interaction.Socket {
	h.t.Helper()
	s, ok := h.sc.Socket(h.entity(name))
	require.True(h.t, ok, name)
	return s
}

func (h *harness) valve(name string) *interaction.ValveController {
	h.t.Helper()
	v, ok := h.sc.Valve(h.entity(name))
	require.True(h.t, ok, name)
	return v
}

func (h *harness) fixed(n int) {
	for i := 0; i < n; i++ {
		interaction.FixedUpdate(h.env, fixedDT)
		h.tasks.Tick(task.PhaseFixed, fixedDT)
	}
}

func (h *harness) frame() {
	h.tasks.Tick(task.PhaseFrame, frameDT)
}

func (h *harness) turn(name string, deg float64, steps int) {
	h.t.Helper()
	b, ok := h.sc.Body(h.entity(name))
	require.True(h.t, ok)
	body := b.(*physics.SimBody)
	for i := 0; i < steps; i++ {
		body.Rotate(common.AxisY, deg/float64(steps))
		h.fixed(1)
	}
}

func (h *harness) controller(p *Program, hooks ...Hooks) *Controller {
	opts := []Option{WithLogger(h.log)}
	for _, hk := range hooks {
		opts = append(opts, WithHooks(hk))
	}
	return NewController(p, h.sc, opts...)
}

func program(groups ...TaskGroup) *Program {
	return &Program{Name: "test", Modules: []Module{{Name: "m0", Groups: groups}}}
}

func group(steps ...Step) TaskGroup {
	return TaskGroup{Name: "g", Steps: steps}
}

func step(t StepType, target string) Step {
	s := Step{Name: string(t), Type: t}
	if target != "" {
		s.Target = scene.Ref(target)
	}
	return s
}

type recorder struct {
	completed []StepEvent
	failed    []StepEvent
	groups    []GroupEvent
	modules   []GroupEvent
	runs      []RunEvent
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnStepCompleted:     func(e StepEvent) { r.completed = append(r.completed, e) },
		OnStepFailed:        func(e StepEvent) { r.failed = append(r.failed, e) },
		OnGroupCompleted:    func(e GroupEvent) { r.groups = append(r.groups, e) },
		OnModuleCompleted:   func(e GroupEvent) { r.modules = append(r.modules, e) },
		OnSequenceCompleted: func(e RunEvent) { r.runs = append(r.runs, e) },
	}
}

func (r *recorder) steps() []int {
	out := make([]int, 0, len(r.completed))
	for _, e := range r.completed {
		out = append(out, e.Step)
	}
	return out
}

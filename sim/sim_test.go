package sim

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mughesh/HVAC-VRB-sub000/bridge"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

const bay = `
name: bay
objects:
  - name: Socket_A
    position: {x: 0, y: 1, z: 0}
    profiles: [valve-socket]
  - name: Valve_A
    tags: [valve]
    position: {x: 0, y: 1, z: 0}
    profiles: [valve-default]
  - name: Dial
    body: chipmunk
    radius: 0.1
    profiles: [dial]
  - name: Crate
    position: {x: 3, y: 0, z: 2}
`

const tighten = `
name: tighten-and-remove
actions:
  - grab: Valve_A
  - attach: {object: Valve_A, socket: Socket_A}
  - wait: 5
  - rotate: {object: Valve_A, deg: 95, ticks: 10}
  - detach: Valve_A
  - rotate: {object: Valve_A, deg: -95, ticks: 10}
  - release: Valve_A
  - wait: 3
  - detach: Valve_A
`

type recorder struct {
	kinds []ecs.EventKind
}

func (r *recorder) count(kind ecs.EventKind) int {
	n := 0
	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func newRuntime(t *testing.T, opts ...Option) (*Runtime, *recorder) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := interaction.NewEnv(ecs.NewWorld(), task.NewRunner(), log)

	knob := profile.DefaultKnob()
	knob.Axis.Y, knob.Axis.Z = 0, 1
	lib := profile.NewLibrary(
		profile.NewSnap("valve-socket", profile.SnapParams{AcceptedTags: []string{"valve"}}),
		profile.NewValve("valve-default", profile.DefaultValve()),
		profile.NewKnob("dial", knob),
	)
	spec, err := scene.ParseSpec([]byte(bay))
	require.NoError(t, err)
	sc, err := scene.Build(env, spec, lib)
	require.NoError(t, err)

	rec := &recorder{}
	env.World.Events().Subscribe("test", ecs.Filter{}, func(evt ecs.Event) {
		rec.kinds = append(rec.kinds, evt.Kind)
	})
	return New(sc, opts...), rec
}

func (r *Runtime) valve(t *testing.T) *interaction.ValveController {
	t.Helper()
	e, err := r.Scene.MustResolve(scene.Ref("Valve_A"))
	require.NoError(t, err)
	v, ok := r.Scene.Valve(e)
	require.True(t, ok)
	return v
}

func TestAdvanceAccumulatesFixedSteps(t *testing.T) {
	rt, _ := newRuntime(t, WithFixedDT(0.02), WithMaxFixedSteps(5))

	assert.Equal(t, 5, rt.Advance(0.5), "capped")
	assert.Equal(t, 5, rt.Ticks())

	assert.Equal(t, 0, rt.Advance(1.0/60), "excess time was dropped")
	assert.Equal(t, 1, rt.Advance(1.0/60))
	assert.Equal(t, 6, rt.Ticks())
	assert.Equal(t, 3, rt.Frames())
	assert.InDelta(t, 0.12, rt.Elapsed(), 1e-9)

	assert.Zero(t, rt.Advance(0))
	assert.Equal(t, 3, rt.Frames())
}

func TestScriptDrivesValveCycle(t *testing.T) {
	rt, rec := newRuntime(t)
	s, err := ParseScript([]byte(tighten))
	require.NoError(t, err)
	require.Len(t, s.Actions, 9)

	require.NoError(t, rt.Play(context.Background(), s))

	v := rt.valve(t)
	assert.Equal(t, interaction.ValveUnlocked, v.State())
	assert.Equal(t, 1, rec.count(interaction.EventSnapped))
	assert.Equal(t, 1, rec.count(interaction.EventTightened))
	assert.Equal(t, 1, rec.count(interaction.EventLoosened))
	assert.Equal(t, 1, rec.count(interaction.EventRemoved))
}

func TestReleaseUnlocksOnSecondTick(t *testing.T) {
	rt, _ := newRuntime(t)
	valve := scene.Ref("Valve_A")
	require.NoError(t, rt.Grab(valve))
	require.NoError(t, rt.Attach(valve, scene.Ref("Socket_A")))
	rt.Wait(5)
	require.NoError(t, rt.Rotate(valve, 90, 10))
	require.Equal(t, interaction.SubstateTight, rt.valve(t).Substate())
	require.NoError(t, rt.Rotate(valve, -90, 10))
	require.True(t, rt.valve(t).ReenableArmed())

	require.NoError(t, rt.Release(valve))
	rt.Tick()
	assert.Equal(t, interaction.ValveLocked, rt.valve(t).State(), "the unlock task is only promoted on the first tick")
	rt.Tick()
	assert.Equal(t, interaction.ValveUnlocked, rt.valve(t).State())
}

func TestPlayStopsOnUnresolvedObject(t *testing.T) {
	rt, _ := newRuntime(t)
	s, err := ParseScript([]byte("name: typo\nactions:\n  - grab: Valve_B\n"))
	require.NoError(t, err)

	err = rt.Play(context.Background(), s)
	require.ErrorIs(t, err, scene.ErrUnresolvedRef)
}

func TestPlayHonoursContext(t *testing.T) {
	rt, _ := newRuntime(t)
	s, err := ParseScript([]byte("actions:\n  - wait: 1\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, rt.Play(ctx, s), context.Canceled)
	assert.Zero(t, rt.Ticks())
}

func TestParseScriptRejectsAmbiguousActions(t *testing.T) {
	tests := map[string]string{
		"two inputs": "actions:\n  - {grab: Valve_A, release: Valve_A}\n",
		"no input":   "actions:\n  - {}\n",
		"negative":   "actions:\n  - wait: -1\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(doc))
			require.ErrorIs(t, err, ErrBadAction)
		})
	}

	_, err := ParseScript([]byte("actions:\n  - jump: Valve_A\n"))
	require.Error(t, err, "unknown fields are rejected")
}

func TestRotateTurnsChipmunkKnob(t *testing.T) {
	rt, _ := newRuntime(t)
	require.NoError(t, rt.Rotate(scene.Ref("Dial"), 30, 3))

	e, err := rt.Scene.MustResolve(scene.Ref("Dial"))
	require.NoError(t, err)
	k, ok := rt.Scene.Knob(e)
	require.True(t, ok)
	assert.InDelta(t, 30, k.Angle(), 1e-6)
	assert.Equal(t, 3, rt.Ticks())
}

func TestMoveToSocketAndObject(t *testing.T) {
	rt, _ := newRuntime(t)
	require.NoError(t, rt.Move(scene.Ref("Valve_A"), scene.Ref("Crate")))
	e, _ := rt.Scene.MustResolve(scene.Ref("Valve_A"))
	body, _ := rt.Scene.Body(e)
	assert.InDelta(t, 3, body.Position().X, 1e-9)

	require.NoError(t, rt.Move(scene.Ref("Valve_A"), scene.Ref("Socket_A")))
	assert.InDelta(t, 1, body.Position().Y, 1e-9)
	assert.InDelta(t, 0, body.Position().X, 1e-9)
}

func TestApplyBridgeCommands(t *testing.T) {
	rt, rec := newRuntime(t)

	require.NoError(t, rt.Apply(bridge.Command{Object: "Valve_A", Action: "grab"}))
	assert.True(t, rt.valve(t).Held())

	require.NoError(t, rt.Apply(bridge.Command{Object: "Valve_A", Action: "attach", Body: []byte(" Socket_A\n")}))
	assert.Equal(t, 1, rec.count(interaction.EventSnapped))

	err := rt.Apply(bridge.Command{Object: "Valve_A", Action: "rotate", Body: []byte("a lot")})
	require.Error(t, err)

	err = rt.Apply(bridge.Command{Object: "Valve_A", Action: "spin"})
	require.ErrorIs(t, err, ErrUnknownAction)

	err = rt.Apply(bridge.Command{Object: "Crate", Action: "grab"})
	require.ErrorIs(t, err, ErrNotGrabbable)

	err = rt.Apply(bridge.Command{Object: "Crate", Action: "detach"})
	require.ErrorIs(t, err, ErrNotSeated)

	err = rt.Apply(bridge.Command{Object: "Valve_A", Action: "attach", Body: []byte("Crate")})
	require.ErrorIs(t, err, ErrNotSocket)
}

func TestAttachNearestPicksCompatibleSocket(t *testing.T) {
	rt, rec := newRuntime(t)

	err := rt.AttachNearest(scene.Ref("Crate"))
	require.ErrorIs(t, err, ErrRefused, "no socket accepts an untagged object")

	require.NoError(t, rt.Apply(bridge.Command{Object: "Valve_A", Action: "attach"}))
	assert.Equal(t, 1, rec.count(interaction.EventSocketAttached))

	err = rt.AttachNearest(scene.Ref("Valve_A"))
	require.ErrorIs(t, err, ErrRefused, "the only socket is occupied")
}

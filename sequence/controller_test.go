package sequence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
)

func TestWaitForConditionCompletesOnSamePass(t *testing.T) {
	h := newHarness(t)
	wait := step(StepWaitForCondition, "")
	wait.WaitFor = []int{0}
	rec := &recorder{}
	c := h.controller(program(group(step(StepGrab, "Handle"), wait)), rec.hooks())
	require.NoError(t, c.Start(context.Background()))

	p := c.Progress()
	assert.Equal(t, 2, p.TotalSteps)
	assert.Zero(t, p.CompletedSteps)

	h.grab("Handle").Grab()
	assert.Equal(t, []int{0, 1}, rec.steps())
	assert.True(t, c.Finished())
	assert.Len(t, rec.runs, 1)
}

func TestStepCompletesExactlyOnce(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	c := h.controller(program(group(step(StepGrab, "Handle"), step(StepGrab, "Dial"))), rec.hooks())
	require.NoError(t, c.Start(context.Background()))

	g := h.grab("Handle")
	g.Grab()
	g.Release()
	g.Grab()
	assert.Equal(t, []int{0}, rec.steps())
	assert.True(t, c.StepCompleted(0))
	assert.False(t, c.Finished())
}

func TestMismatchedObjectIsIgnored(t *testing.T) {
	h := newHarness(t)
	c := h.controller(program(group(step(StepGrab, "Handle"))))
	require.NoError(t, c.Start(context.Background()))

	h.grab("Dial").Grab()
	assert.False(t, c.StepCompleted(0))
	assert.True(t, c.Running())
}

func TestListenersDoNotLeakAcrossGroups(t *testing.T) {
	h := newHarness(t)
	bus := h.sc.World().Events()
	baseline := bus.Len()

	c := h.controller(program(
		group(step(StepGrab, "Handle"), step(StepGrab, "Valve_A")),
		group(step(StepGrab, "Dial")),
	))
	require.NoError(t, c.Start(context.Background()))
	run := "seq:" + c.RunID() + ":"
	assert.Equal(t, 2, bus.OwnerLen(run+"g0.0:"))

	h.grab("Handle").Grab()
	assert.Equal(t, 1, bus.OwnerLen(run+"g0.0:"), "a completed step drops its listener")
	h.grab("Valve_A").Grab()
	assert.Zero(t, bus.OwnerLen(run+"g0.0:"))
	assert.Equal(t, 1, bus.OwnerLen(run+"g0.1:"))

	h.grab("Dial").Grab()
	assert.True(t, c.Finished())
	assert.Zero(t, bus.OwnerLen(run))
	assert.Equal(t, baseline, bus.Len())
}

func TestMissingTargetStallsWithoutFailure(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	c := h.controller(program(group(step(StepGrab, "Ghost"))), rec.hooks())
	require.NoError(t, c.Start(context.Background()))

	h.grab("Handle").Grab()
	p := c.Progress()
	assert.True(t, p.Running)
	assert.Zero(t, p.CompletedSteps)
	assert.Empty(t, rec.failed)
}

func TestOptionalStepsDoNotBlock(t *testing.T) {
	h := newHarness(t)
	opt := step(StepGrab, "Dial")
	opt.Optional = true
	c := h.controller(program(group(step(StepGrab, "Handle"), opt)))
	require.NoError(t, c.Start(context.Background()))

	h.grab("Handle").Grab()
	assert.True(t, c.Finished())
}

func TestShowInstructionOnlyGroupsAdvanceImmediately(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	p := &Program{Name: "intro", Modules: []Module{
		{Name: "empty"},
		{Name: "brief", Groups: []TaskGroup{group(step(StepShowInstruction, "")), group(step(StepShowInstruction, ""))}},
	}}
	c := h.controller(p, rec.hooks())
	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Finished())
	assert.Len(t, rec.groups, 2)
	assert.Len(t, rec.modules, 2)
}

func TestTengoConditionGatesWait(t *testing.T) {
	h := newHarness(t)
	opt := step(StepGrab, "Dial")
	opt.Optional = true
	wait := step(StepWaitForCondition, "")
	wait.WaitFor = []int{0}
	wait.Condition = "done(1) && len(completed) == 3"
	c := h.controller(program(group(step(StepGrab, "Handle"), opt, wait)))
	require.NoError(t, c.Start(context.Background()))

	h.grab("Handle").Grab()
	assert.False(t, c.StepCompleted(2))
	assert.True(t, c.Running())

	h.grab("Dial").Grab()
	assert.True(t, c.Finished())
}

func TestConditionErrorCountsAsFailure(t *testing.T) {
	h := newHarness(t)
	wait := step(StepWaitForCondition, "")
	wait.WaitFor = []int{0}
	wait.Condition = "done()"
	rec := &recorder{}
	c := h.controller(program(group(step(StepGrab, "Handle"), wait)), rec.hooks())
	require.NoError(t, c.Start(context.Background()))

	h.grab("Handle").Grab()
	require.Len(t, rec.failed, 1)
	assert.Equal(t, 1, rec.failed[0].Step)
	assert.Error(t, rec.failed[0].Err)
	assert.Equal(t, 1, c.Progress().Failures)
	assert.True(t, c.Running())
}

func TestPanicInStepIsRecovered(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	boom := Hooks{OnStepCompleted: func(StepEvent) { panic("display went away") }}
	c := h.controller(program(group(step(StepShowInstruction, ""))), rec.hooks(), boom)
	require.NoError(t, c.Start(context.Background()))

	assert.Len(t, rec.failed, 1)
	assert.True(t, c.Finished(), "the run continues after a failed step")
}

func TestTurnKnobCompletesNearTarget(t *testing.T) {
	h := newHarness(t)
	s := step(StepTurnKnob, "Dial")
	s.Overrides = profile.Overrides{TargetAngle: profile.Float(45), AngleTolerance: profile.Float(2)}
	c := h.controller(program(group(s)))
	require.NoError(t, c.Start(context.Background()))

	h.turn("Dial", 30, 3)
	assert.False(t, c.Finished())
	h.turn("Dial", 14, 1)
	assert.True(t, c.Finished())
}

func TestValveOverrideIsScopedToStepDirection(t *testing.T) {
	h := newHarness(t)
	snap := step(StepGrabAndSnap, "Valve_A")
	snap.Destination = scene.Ref("Socket_A")
	tighten := step(StepTightenValve, "Valve_A")
	tighten.Overrides = profile.Overrides{TightenThreshold: profile.Float(50), LoosenThreshold: profile.Float(10)}

	c := h.controller(program(group(snap), group(tighten)))
	require.NoError(t, c.Start(context.Background()))
	v := h.valve("Valve_A")

	g := h.grab("Valve_A")
	g.Grab()
	require.True(t, h.socket("Socket_A").Attach(h.entity("Valve_A")))
	assert.Equal(t, 50.0, v.Params().TightenThreshold)
	assert.Equal(t, 90.0, v.Params().LoosenThreshold, "loosen threshold keeps the base profile value")

	h.fixed(3)
	require.Equal(t, interaction.ValveLocked, v.State())
	g.Release()
	g.Grab()
	h.turn("Valve_A", 46, 2)
	assert.True(t, c.Finished())
	assert.Equal(t, 90.0, v.Params().TightenThreshold, "overrides end with their task group")
}

func TestValveInstallAndRemoveProgram(t *testing.T) {
	h := newHarness(t)
	snap := step(StepGrabAndSnap, "Valve_A")
	snap.Destination = scene.Ref("Socket_A")
	install := step(StepInstallValve, "Valve_A")
	install.Destination = scene.Ref("Socket_A")
	remove := step(StepRemoveValve, "Valve_A")
	remove.Destination = scene.Ref("Socket_A")
	p := &Program{Name: "valve", Modules: []Module{
		{Name: "install", Groups: []TaskGroup{group(snap), group(install)}},
		{Name: "remove", Groups: []TaskGroup{group(step(StepLoosenValve, "Valve_A")), group(remove)}},
	}}
	rec := &recorder{}
	c := h.controller(p, rec.hooks())
	require.NoError(t, c.Start(context.Background()))

	valve := h.entity("Valve_A")
	sock := h.socket("Socket_A")
	g := h.grab("Valve_A")

	g.Grab()
	require.True(t, sock.Attach(valve))
	h.fixed(3)
	h.turn("Valve_A", 90, 3)
	require.Len(t, rec.modules, 1)

	h.turn("Valve_A", -90, 3)
	assert.Equal(t, 3, len(rec.groups))
	g.Release()
	h.fixed(1)
	h.frame()
	h.fixed(1)
	require.Equal(t, interaction.ValveUnlocked, h.valve("Valve_A").State())

	require.True(t, sock.Detach(valve))
	assert.True(t, c.Finished())
	assert.Len(t, rec.modules, 2)
	assert.Equal(t, []int{0, 0, 0, 0}, rec.steps())
}

func TestStopCancelsPendingSettle(t *testing.T) {
	h := newHarness(t)
	c := h.controller(program(group(step(StepInstallValve, "Valve_A"))))
	require.NoError(t, c.Start(context.Background()))
	v := h.valve("Valve_A")

	require.True(t, h.socket("Socket_A").Attach(h.entity("Valve_A")))
	require.True(t, v.Settling())
	c.Stop()
	h.fixed(5)
	assert.Equal(t, interaction.ValveUnlocked, v.State())
	assert.False(t, c.Running())
	assert.Zero(t, h.sc.World().Events().OwnerLen("seq:"))
}

func TestCancelledContextStopsRun(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	c := h.controller(program(group(step(StepGrab, "Handle"))))
	require.NoError(t, c.Start(ctx))
	assert.ErrorIs(t, c.Start(ctx), ErrAlreadyRunning)

	cancel()
	h.grab("Handle").Grab()
	assert.False(t, c.Running())
	assert.False(t, c.Finished())
}

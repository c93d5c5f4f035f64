package system

import (
	"context"
	"testing"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/component"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

func TestFixedScheduleOrder(t *testing.T) {
	w := ecs.NewWorld()
	runner := task.NewRunner()
	env := interaction.NewEnv(w, runner, nil)

	e := ecs.CreateEntity(w)
	body := physics.NewSimBody(common.Vec3{})
	if err := ecs.Add(w, e, component.BodyComponent.Kind(), &component.Body{Body: body}); err != nil {
		t.Fatalf("add body: %v", err)
	}
	if err := interaction.Configure(env, e, profile.NewKnob("dial", profile.DefaultKnob())); err != nil {
		t.Fatalf("configure: %v", err)
	}
	knob, _ := ecs.Get(w, e, interaction.KnobComponent.Kind())

	fixed := ecs.NewScheduler(
		NewPhysicsSystem(physics.NewSpace(common.Vec3{})),
		NewInteractionSystem(env),
		NewTaskSystem(runner, task.PhaseFixed),
	)

	body.SetAngularVelocity(common.Vec3{Y: 50})
	fixed.Update(w, 0.1)
	if got := knob.Angle(); got < 4.999 || got > 5.001 {
		t.Fatalf("knob should see the integrated rotation in the same step, got %v", got)
	}

	stepped := 0
	runner.Start(context.Background(), "probe", task.Func(func(ph task.Phase, _ float64) bool {
		stepped++
		return ph == task.PhaseFixed
	}))
	fixed.Update(w, 0.1)
	fixed.Update(w, 0.1)
	if stepped != 1 {
		t.Fatalf("expected fixed task to run once, ran %d", stepped)
	}
}

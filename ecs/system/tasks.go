package system

import (
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

// TaskSystem resumes suspended tasks for one loop phase. A runtime adds one
// instance to the frame schedule and one to the fixed schedule.
type TaskSystem struct {
	runner *task.Runner
	phase  task.Phase
}

func NewTaskSystem(runner *task.Runner, phase task.Phase) *TaskSystem {
	return &TaskSystem{runner: runner, phase: phase}
}

func (s *TaskSystem) Update(_ *ecs.World, dt float64) {
	if s == nil || s.runner == nil {
		return
	}
	s.runner.Tick(s.phase, dt)
}

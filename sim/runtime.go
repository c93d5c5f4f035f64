// Package sim runs a scene without a headset: a fixed-step physics loop
// under a frame loop, driven by scripted or remote input.
package sim

import (
	"log/slog"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/system"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

const (
	DefaultFixedDT       = 1.0 / 50
	DefaultMaxFixedSteps = 5
)

type Option func(*Runtime)

// WithFixedDT sets the physics step.
func WithFixedDT(dt float64) Option {
	return func(r *Runtime) {
		if dt > 0 {
			r.fixedDT = dt
		}
	}
}

// WithMaxFixedSteps caps how many physics steps one frame may run.
func WithMaxFixedSteps(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Runtime) {
		if log != nil {
			r.log = log
		}
	}
}

// Runtime owns the two schedules of a scene. The frame schedule resumes
// frame-phase tasks; the fixed schedule steps physics, ticks controllers
// and then resumes fixed-phase tasks.
type Runtime struct {
	Scene *scene.Scene

	frame *ecs.Scheduler
	fixed *ecs.Scheduler

	fixedDT  float64
	maxSteps int
	acc      float64
	frames   int
	ticks    int
	elapsed  float64
	log      *slog.Logger
}

func New(sc *scene.Scene, opts ...Option) *Runtime {
	r := &Runtime{
		Scene:    sc,
		fixedDT:  DefaultFixedDT,
		maxSteps: DefaultMaxFixedSteps,
		log:      sc.Env.Log,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "sim")

	tasks := sc.Env.Tasks
	r.frame = ecs.NewScheduler(system.NewTaskSystem(tasks, task.PhaseFrame))
	r.fixed = ecs.NewScheduler(
		system.NewPhysicsSystem(sc.Space),
		system.NewInteractionSystem(sc.Env),
		system.NewTaskSystem(tasks, task.PhaseFixed),
	)
	return r
}

func (r *Runtime) World() *ecs.World { return r.Scene.World() }
func (r *Runtime) FixedDT() float64  { return r.fixedDT }
func (r *Runtime) Frames() int       { return r.frames }
func (r *Runtime) Ticks() int        { return r.ticks }

// Elapsed is simulated time in seconds, counted in physics steps.
func (r *Runtime) Elapsed() float64 { return r.elapsed }

// Advance runs one frame of length frameDT and then as many physics steps
// as the accumulated time allows. Time beyond the step cap is dropped.
// It returns the number of physics steps taken.
func (r *Runtime) Advance(frameDT float64) int {
	if frameDT <= 0 {
		return 0
	}
	r.frames++
	r.frame.Update(r.World(), frameDT)

	r.acc += frameDT
	steps := 0
	for r.acc >= r.fixedDT && steps < r.maxSteps {
		r.step()
		r.acc -= r.fixedDT
		steps++
	}
	if r.acc >= r.fixedDT {
		r.log.Debug("dropping physics time", "behind", r.acc)
		r.acc = 0
	}
	return steps
}

// Tick runs one frame followed by exactly one physics step, independent of
// the accumulator. Scripts count time in ticks.
func (r *Runtime) Tick() {
	r.frames++
	r.frame.Update(r.World(), r.fixedDT)
	r.step()
}

func (r *Runtime) step() {
	r.fixed.Update(r.World(), r.fixedDT)
	r.ticks++
	r.elapsed += r.fixedDT
}

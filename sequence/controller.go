package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
)

var (
	ErrAlreadyRunning = errors.New("sequence: already running")
	ErrNoProgram      = errors.New("sequence: no program")
)

// Progress is a snapshot of where a run is.
type Progress struct {
	RunID          string
	Module         int
	Modules        int
	ModuleName     string
	Group          int
	Groups         int
	GroupName      string
	CompletedSteps int
	TotalSteps     int
	Failures       int
	Running        bool
	Finished       bool
}

// Controller walks a program one task group at a time. It is driven
// entirely by bus events and must be used from the main loop goroutine.
type Controller struct {
	program *Program
	scene   Scene
	bus     *ecs.Bus
	base    *slog.Logger
	log     *slog.Logger
	hooks   hookList

	runID    string
	ctx      context.Context
	running  bool
	finished bool
	module   int
	group    int
	failures int
	active   *groupRun
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHooks adds observability hooks; several sets may be registered.
func WithHooks(h Hooks) Option {
	return func(c *Controller) {
		c.hooks = append(c.hooks, h)
	}
}

func NewController(p *Program, sc Scene, opts ...Option) *Controller {
	c := &Controller{
		program: p,
		scene:   sc,
		log:     slog.Default(),
		ctx:     context.Background(),
	}
	if sc != nil {
		c.bus = sc.World().Events()
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base = c.log.With("component", "sequence")
	c.log = c.base
	return c
}

// Start begins a new run at the first task group. Cancelling ctx stops the
// run at the next step event and cancels pending controller work bound to
// the active group.
func (c *Controller) Start(ctx context.Context) error {
	if c.program == nil || c.scene == nil {
		return ErrNoProgram
	}
	if c.running {
		return ErrAlreadyRunning
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sequence: start: %w", err)
	}
	c.ctx = ctx
	c.runID = uuid.NewString()
	c.running = true
	c.finished = false
	c.failures = 0
	c.module, c.group = 0, 0
	c.log = c.base.With("run", c.runID)
	c.log.Info("sequence started", "program", c.program.Name, "modules", len(c.program.Modules))
	c.enter(0, 0)
	return nil
}

// Stop abandons the run. Listeners of the active group are removed and its
// pending work is cancelled; only OnSequenceStopped fires.
func (c *Controller) Stop() {
	if !c.running {
		return
	}
	if c.active != nil {
		c.teardown(c.active)
		c.active = nil
	}
	c.running = false
	c.log.Info("sequence stopped", "module", c.module, "group", c.group)
	c.hooks.sequenceStopped(RunEvent{RunID: c.runID, Program: c.program.Name, Failures: c.failures})
}

func (c *Controller) RunID() string  { return c.runID }
func (c *Controller) Running() bool  { return c.running }
func (c *Controller) Finished() bool { return c.finished }

// Progress reports the current position and step counts of the active group.
func (c *Controller) Progress() Progress {
	p := Progress{
		RunID:    c.runID,
		Module:   c.module,
		Group:    c.group,
		Failures: c.failures,
		Running:  c.running,
		Finished: c.finished,
	}
	if c.program == nil {
		return p
	}
	p.Modules = len(c.program.Modules)
	if c.module < len(c.program.Modules) {
		m := c.program.Modules[c.module]
		p.ModuleName = m.Name
		p.Groups = len(m.Groups)
		if c.group < len(m.Groups) {
			p.GroupName = m.Groups[c.group].Name
		}
	}
	if run := c.active; run != nil {
		p.TotalSteps = len(run.steps)
		for _, done := range run.completed {
			if done {
				p.CompletedSteps++
			}
		}
	}
	return p
}

// StepCompleted reports the completion flag of step i in the active group.
func (c *Controller) StepCompleted(i int) bool {
	run := c.active
	return run != nil && i >= 0 && i < len(run.completed) && run.completed[i]
}

// enter starts the group at (mi, gi), moving past exhausted modules.
func (c *Controller) enter(mi, gi int) {
	for c.running {
		if mi >= len(c.program.Modules) {
			c.finish()
			return
		}
		m := &c.program.Modules[mi]
		if gi >= len(m.Groups) {
			c.hooks.moduleCompleted(GroupEvent{RunID: c.runID, Program: c.program.Name, Module: mi, Group: -1, ModuleName: m.Name})
			c.log.Info("module completed", "module", mi, "name", m.Name)
			mi, gi = mi+1, 0
			continue
		}
		c.module, c.group = mi, gi
		c.startGroup(mi, gi)
		return
	}
}

func (c *Controller) finish() {
	c.running = false
	c.finished = true
	c.module = len(c.program.Modules)
	c.group = 0
	c.log.Info("sequence completed", "program", c.program.Name, "failures", c.failures)
	c.hooks.sequenceCompleted(RunEvent{RunID: c.runID, Program: c.program.Name, Failures: c.failures})
}

func (c *Controller) groupEvent(run *groupRun) GroupEvent {
	m := &c.program.Modules[run.module]
	return GroupEvent{
		RunID:      c.runID,
		Program:    c.program.Name,
		Module:     run.module,
		Group:      run.group,
		ModuleName: m.Name,
		GroupName:  m.Groups[run.group].Name,
	}
}

func (c *Controller) stepEvent(run *groupRun, i int, err error) StepEvent {
	s := &run.steps[i]
	return StepEvent{
		RunID:   c.runID,
		Program: c.program.Name,
		Module:  run.module,
		Group:   run.group,
		Step:    i,
		Name:    s.Name,
		Type:    s.Type,
		Err:     err,
	}
}

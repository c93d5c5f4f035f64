package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

// rotary is the part of a valve or tool controller a step may adjust.
type rotary interface {
	ApplyOverrides(o profile.Overrides)
	ResetOverrides()
	Bind(ctx context.Context)
}

// groupRun is the state of one active task group.
type groupRun struct {
	module, group int
	steps         []Step
	completed     []bool
	failed        []bool
	conditions    []*condition
	prefix        string
	ctx           context.Context
	cancel        context.CancelFunc
	bound         []rotary
	log           *slog.Logger

	activating bool
	evaluating bool
	closed     bool
}

func (run *groupRun) owner(i int) string {
	return fmt.Sprintf("%ss%d", run.prefix, i)
}

func (c *Controller) startGroup(mi, gi int) {
	g := &c.program.Modules[mi].Groups[gi]
	ctx, cancel := context.WithCancel(c.ctx)
	run := &groupRun{
		module:     mi,
		group:      gi,
		steps:      g.Steps,
		completed:  make([]bool, len(g.Steps)),
		failed:     make([]bool, len(g.Steps)),
		conditions: make([]*condition, len(g.Steps)),
		prefix:     fmt.Sprintf("seq:%s:g%d.%d:", c.runID, mi, gi),
		ctx:        ctx,
		cancel:     cancel,
		log:        c.log.With("module", mi, "group", gi),
	}
	c.active = run
	run.log.Info("task group started", "name", g.Name, "steps", len(g.Steps))
	c.hooks.groupStarted(c.groupEvent(run))

	run.activating = true
	for i := range run.steps {
		if run.closed {
			return
		}
		c.guard(run, i, func() error { return c.activate(run, i) })
	}
	run.activating = false
	c.evaluate(run)
}

// guard runs fn for step i, turning errors and panics into step failures.
func (c *Controller) guard(run *groupRun, i int, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(run, i, fmt.Errorf("panic: %v", r))
			run.log.Debug("step panic", "stack", string(debug.Stack()))
		}
	}()
	if err := fn(); err != nil {
		c.fail(run, i, err)
	}
}

func (c *Controller) fail(run *groupRun, i int, err error) {
	if run.failed[i] {
		return
	}
	run.failed[i] = true
	c.failures++
	s := &run.steps[i]
	run.log.Error("step failed", "step", i, "name", s.Name, "type", string(s.Type), "error", err)
	c.hooks.stepFailed(c.stepEvent(run, i, err))
}

// complete marks step i done. Repeated calls and calls for a group that
// is no longer active are ignored.
func (c *Controller) complete(run *groupRun, i int) {
	if run.closed || run != c.active || run.completed[i] {
		return
	}
	if c.ctx.Err() != nil {
		run.log.Info("run context cancelled")
		c.Stop()
		return
	}
	run.completed[i] = true
	c.bus.RemoveOwner(run.owner(i))
	s := &run.steps[i]
	run.log.Info("step completed", "step", i, "name", s.Name, "type", string(s.Type))
	c.hooks.stepCompleted(c.stepEvent(run, i, nil))
	if run.activating || run.evaluating {
		return
	}
	c.evaluate(run)
}

// evaluate rechecks wait conditions until nothing changes, then completes
// the group once every required step is done.
func (c *Controller) evaluate(run *groupRun) {
	if run.closed || run != c.active {
		return
	}
	run.evaluating = true
	for changed := true; changed && !run.closed; {
		changed = false
		for i := range run.steps {
			if run.completed[i] || run.failed[i] || run.steps[i].Type != StepWaitForCondition {
				continue
			}
			ok := false
			c.guard(run, i, func() error {
				var err error
				ok, err = c.waitSatisfied(run, i)
				return err
			})
			if ok {
				c.complete(run, i)
				changed = true
			}
		}
	}
	run.evaluating = false
	if run.closed {
		return
	}
	for i, s := range run.steps {
		if !s.Optional && !run.completed[i] {
			return
		}
	}
	c.completeGroup(run)
}

func (c *Controller) waitSatisfied(run *groupRun, i int) (bool, error) {
	s := &run.steps[i]
	for _, w := range s.WaitFor {
		if w < 0 || w >= len(run.completed) || w == i || !run.completed[w] {
			return false, nil
		}
	}
	if cond := run.conditions[i]; cond != nil {
		return cond.Eval(run.completed)
	}
	return true, nil
}

func (c *Controller) completeGroup(run *groupRun) {
	c.teardown(run)
	c.active = nil
	run.log.Info("task group completed")
	c.hooks.groupCompleted(c.groupEvent(run))
	c.enter(run.module, run.group+1)
}

// teardown removes every listener of the group, cancels its pending work
// and returns bound controllers to their base parameters.
func (c *Controller) teardown(run *groupRun) {
	if run.closed {
		return
	}
	run.closed = true
	removed := c.bus.RemoveOwnerPrefix(run.prefix)
	run.cancel()
	for _, r := range run.bound {
		r.ResetOverrides()
		r.Bind(context.Background())
	}
	run.bound = nil
	run.log.Debug("task group torn down", "listeners", removed)
}

func (c *Controller) listen(run *groupRun, i int, kind ecs.EventKind, match func(ecs.Event) bool) {
	c.bus.Subscribe(run.owner(i), ecs.Filter{Kind: kind}, func(evt ecs.Event) {
		if !match(evt) {
			return
		}
		c.guard(run, i, func() error {
			c.complete(run, i)
			return nil
		})
	})
}

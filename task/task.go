// Package task runs cooperative suspended work on the frame and fixed
// (physics) ticks of a single-threaded main loop.
package task

import "context"

// Phase is the loop phase a tick belongs to.
type Phase int

const (
	PhaseFrame Phase = iota
	PhaseFixed
)

func (p Phase) String() string {
	if p == PhaseFixed {
		return "fixed"
	}
	return "frame"
}

// Task is resumed once per tick until Step reports true.
type Task interface {
	Step(ph Phase, dt float64) bool
}

// Canceler is implemented by tasks that need to know they were dropped.
type Canceler interface {
	Cancel()
}

// Func adapts a function to Task.
type Func func(ph Phase, dt float64) bool

func (f Func) Step(ph Phase, dt float64) bool { return f(ph, dt) }

type entry struct {
	id        uint64
	name      string
	ctx       context.Context
	task      Task
	done      bool
	cancelled bool
}

// Handle refers to a started task.
type Handle struct {
	e *entry
}

// Done reports whether the task finished or was cancelled.
func (h *Handle) Done() bool {
	return h == nil || h.e == nil || h.e.done
}

// Cancelled reports whether the task was dropped before finishing.
func (h *Handle) Cancelled() bool {
	return h != nil && h.e != nil && h.e.cancelled
}

// Name returns the label the task was started with.
func (h *Handle) Name() string {
	if h == nil || h.e == nil {
		return ""
	}
	return h.e.name
}

// Cancel drops the task before its next step.
func (h *Handle) Cancel() {
	if h == nil || h.e == nil || h.e.done {
		return
	}
	h.e.done = true
	h.e.cancelled = true
	if c, ok := h.e.task.(Canceler); ok {
		c.Cancel()
	}
}

// Runner owns the suspended tasks. A task started during a tick (or between
// ticks) is first resumed on the following tick.
type Runner struct {
	next    uint64
	entries []*entry
	pending []*entry
}

func NewRunner() *Runner {
	return &Runner{}
}

// Start suspends t until the next tick. When ctx is cancelled the task is
// dropped without being stepped again.
func (r *Runner) Start(ctx context.Context, name string, t Task) *Handle {
	if t == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r.next++
	e := &entry{id: r.next, name: name, ctx: ctx, task: t}
	r.pending = append(r.pending, e)
	return &Handle{e: e}
}

// Tick resumes every live task once for the given phase.
func (r *Runner) Tick(ph Phase, dt float64) {
	for _, e := range r.entries {
		if e.done {
			continue
		}
		if e.ctx.Err() != nil {
			(&Handle{e: e}).Cancel()
			continue
		}
		if e.task.Step(ph, dt) {
			e.done = true
		}
	}
	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.done {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = append(kept, r.pending...)
	r.pending = nil
}

// Len returns the number of tasks not yet finished.
func (r *Runner) Len() int {
	n := 0
	for _, e := range r.entries {
		if !e.done {
			n++
		}
	}
	for _, e := range r.pending {
		if !e.done {
			n++
		}
	}
	return n
}

// CancelAll drops every task.
func (r *Runner) CancelAll() {
	for _, e := range append(r.entries, r.pending...) {
		(&Handle{e: e}).Cancel()
	}
	r.entries = nil
	r.pending = nil
}

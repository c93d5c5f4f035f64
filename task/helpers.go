package task

// Poll resumes on Phase ticks until Until reports true or Timeout seconds
// have elapsed, then calls Done once. A zero Timeout polls forever.
type Poll struct {
	Phase    Phase
	Until    func() bool
	Timeout  float64
	Done     func(timedOut bool)
	OnCancel func()

	elapsed float64
}

func (p *Poll) Step(ph Phase, dt float64) bool {
	if ph != p.Phase {
		return false
	}
	if p.Until != nil && p.Until() {
		if p.Done != nil {
			p.Done(false)
		}
		return true
	}
	p.elapsed += dt
	if p.Timeout > 0 && p.elapsed >= p.Timeout {
		if p.Done != nil {
			p.Done(true)
		}
		return true
	}
	return false
}

func (p *Poll) Cancel() {
	if p.OnCancel != nil {
		p.OnCancel()
	}
}

// Elapsed returns the seconds spent polling so far.
func (p *Poll) Elapsed() float64 {
	return p.elapsed
}

// NextPhase completes on the first tick of ph it is resumed on.
func NextPhase(ph Phase) Task {
	return Func(func(got Phase, _ float64) bool { return got == ph })
}

// Do runs fn once on whatever tick reaches it.
func Do(fn func()) Task {
	return Func(func(Phase, float64) bool {
		if fn != nil {
			fn()
		}
		return true
	})
}

type chain struct {
	tasks    []Task
	idx      int
	onCancel func()
}

// Chain runs tasks one after another. When a task completes, the next one is
// resumed within the same tick.
func Chain(tasks ...Task) Task {
	return &chain{tasks: tasks}
}

// ChainWithCancel is Chain with a callback for when the chain is dropped.
func ChainWithCancel(onCancel func(), tasks ...Task) Task {
	return &chain{tasks: tasks, onCancel: onCancel}
}

func (c *chain) Step(ph Phase, dt float64) bool {
	for c.idx < len(c.tasks) {
		if !c.tasks[c.idx].Step(ph, dt) {
			return false
		}
		c.idx++
	}
	return true
}

func (c *chain) Cancel() {
	if c.idx < len(c.tasks) {
		if cc, ok := c.tasks[c.idx].(Canceler); ok {
			cc.Cancel()
		}
	}
	if c.onCancel != nil {
		c.onCancel()
	}
}

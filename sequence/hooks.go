package sequence

// StepEvent describes a step that completed or failed.
type StepEvent struct {
	RunID   string
	Program string
	Module  int
	Group   int
	Step    int
	Name    string
	Type    StepType
	Err     error
}

// GroupEvent describes a task group (or, for module completion, a module)
// transition. Group is -1 for module events.
type GroupEvent struct {
	RunID      string
	Program    string
	Module     int
	Group      int
	ModuleName string
	GroupName  string
}

// RunEvent describes a finished run.
type RunEvent struct {
	RunID    string
	Program  string
	Failures int
}

// Hooks are observability callbacks. Nil fields are skipped.
type Hooks struct {
	OnStepCompleted     func(StepEvent)
	OnStepFailed        func(StepEvent)
	OnGroupStarted      func(GroupEvent)
	OnGroupCompleted    func(GroupEvent)
	OnModuleCompleted   func(GroupEvent)
	OnSequenceCompleted func(RunEvent)
	OnSequenceStopped   func(RunEvent)
}

type hookList []Hooks

func (hs hookList) stepCompleted(e StepEvent) {
	for _, h := range hs {
		if h.OnStepCompleted != nil {
			h.OnStepCompleted(e)
		}
	}
}

func (hs hookList) stepFailed(e StepEvent) {
	for _, h := range hs {
		if h.OnStepFailed != nil {
			h.OnStepFailed(e)
		}
	}
}

func (hs hookList) groupStarted(e GroupEvent) {
	for _, h := range hs {
		if h.OnGroupStarted != nil {
			h.OnGroupStarted(e)
		}
	}
}

func (hs hookList) groupCompleted(e GroupEvent) {
	for _, h := range hs {
		if h.OnGroupCompleted != nil {
			h.OnGroupCompleted(e)
		}
	}
}

func (hs hookList) moduleCompleted(e GroupEvent) {
	for _, h := range hs {
		if h.OnModuleCompleted != nil {
			h.OnModuleCompleted(e)
		}
	}
}

func (hs hookList) sequenceCompleted(e RunEvent) {
	for _, h := range hs {
		if h.OnSequenceCompleted != nil {
			h.OnSequenceCompleted(e)
		}
	}
}

func (hs hookList) sequenceStopped(e RunEvent) {
	for _, h := range hs {
		if h.OnSequenceStopped != nil {
			h.OnSequenceStopped(e)
		}
	}
}

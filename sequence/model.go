// Package sequence runs training programs: Program -> Module -> TaskGroup ->
// Step, one task group at a time, completing steps from interaction events.
package sequence

import (
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
)

// StepType selects a step's completion predicate.
type StepType string

const (
	StepGrab             StepType = "grab"
	StepGrabAndSnap      StepType = "grab_and_snap"
	StepTurnKnob         StepType = "turn_knob"
	StepWaitForCondition StepType = "wait_for_condition"
	StepShowInstruction  StepType = "show_instruction"
	StepTightenValve     StepType = "tighten_valve"
	StepLoosenValve      StepType = "loosen_valve"
	StepInstallValve     StepType = "install_valve"
	StepRemoveValve      StepType = "remove_valve"
)

var stepTypes = []StepType{
	StepGrab, StepGrabAndSnap, StepTurnKnob, StepWaitForCondition, StepShowInstruction,
	StepTightenValve, StepLoosenValve, StepInstallValve, StepRemoveValve,
}

func (t StepType) Valid() bool {
	for _, st := range stepTypes {
		if st == t {
			return true
		}
	}
	return false
}

// Direction is the rotation sense overrides apply to.
func (t StepType) Direction() profile.Direction {
	switch t {
	case StepTightenValve, StepInstallValve:
		return profile.DirectionTighten
	case StepLoosenValve, StepRemoveValve:
		return profile.DirectionLoosen
	}
	return profile.DirectionNone
}

func (t StepType) needsTarget() bool {
	return t != StepShowInstruction && t != StepWaitForCondition
}

func (t StepType) rotary() bool {
	return t.Direction() != profile.DirectionNone
}

// DefaultKnobTolerance is used by turn_knob steps without an angle tolerance.
const DefaultKnobTolerance = 5.0

// Step is one scripted action.
type Step struct {
	Name          string            `yaml:"name"`
	Type          StepType          `yaml:"type"`
	Target        scene.ObjectRef   `yaml:"target,omitempty"`
	Destination   scene.ObjectRef   `yaml:"destination,omitempty"`
	Instruction   string            `yaml:"instruction,omitempty"`
	Params        map[string]any    `yaml:"params,omitempty"`
	Overrides     profile.Overrides `yaml:"-"`
	Optional      bool              `yaml:"optional,omitempty"`
	AllowParallel bool              `yaml:"allow_parallel,omitempty"`
	WaitFor       []int             `yaml:"wait_for,omitempty"`
	Condition     string            `yaml:"condition,omitempty"`
}

// KnobTarget returns the angle a turn_knob step waits for and its tolerance.
func (s *Step) KnobTarget() (angle, tolerance float64, ok bool) {
	if s.Overrides.TargetAngle == nil {
		return 0, 0, false
	}
	tolerance = DefaultKnobTolerance
	if s.Overrides.AngleTolerance != nil {
		tolerance = *s.Overrides.AngleTolerance
	}
	return *s.Overrides.TargetAngle, tolerance, true
}

// TaskGroup is a set of steps that complete as one unit.
type TaskGroup struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

type Module struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Groups      []TaskGroup `yaml:"task_groups"`
}

type Program struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Modules     []Module `yaml:"modules"`
}

// StepCount returns the number of steps across the whole program.
func (p *Program) StepCount() int {
	n := 0
	for _, m := range p.Modules {
		for _, g := range m.Groups {
			n += len(g.Steps)
		}
	}
	return n
}

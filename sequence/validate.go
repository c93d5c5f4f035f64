package sequence

import (
	"fmt"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
)

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one validation finding.
type Issue struct {
	Severity Severity
	Location string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Location, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks program structure without a scene.
func Validate(p *Program) []Issue {
	var issues []Issue
	add := func(sev Severity, loc, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Location: loc, Message: fmt.Sprintf(format, args...)})
	}
	if p == nil {
		add(SeverityError, "program", "program is nil")
		return issues
	}
	if len(p.Modules) == 0 {
		add(SeverityError, "program", "program has no modules")
	}
	for mi, m := range p.Modules {
		if len(m.Groups) == 0 {
			add(SeverityWarning, location(mi, -1, -1), "module %q has no task groups", m.Name)
		}
		for gi, g := range m.Groups {
			if len(g.Steps) == 0 {
				add(SeverityWarning, location(mi, gi, -1), "task group %q has no steps", g.Name)
			}
			for si := range g.Steps {
				validateStep(&g.Steps[si], si, len(g.Steps), location(mi, gi, si), add)
			}
		}
	}
	return issues
}

func validateStep(s *Step, idx, groupLen int, loc string, add func(Severity, string, string, ...any)) {
	if !s.Type.Valid() {
		add(SeverityError, loc, "unknown step type %q", s.Type)
		return
	}
	if s.Type.needsTarget() && s.Target.IsZero() {
		add(SeverityError, loc, "%s step needs a target", s.Type)
	}
	if s.Type == StepGrabAndSnap && s.Destination.IsZero() {
		add(SeverityError, loc, "grab_and_snap step needs a destination")
	}
	switch s.Type {
	case StepWaitForCondition:
		if len(s.WaitFor) == 0 {
			add(SeverityError, loc, "wait_for_condition step needs a non-empty wait list")
		}
		for _, w := range s.WaitFor {
			switch {
			case w < 0 || w >= groupLen:
				add(SeverityError, loc, "wait index %d outside the task group", w)
			case w == idx:
				add(SeverityError, loc, "step waits on itself")
			}
		}
		if s.Condition != "" {
			if _, err := compileCondition(s.Condition); err != nil {
				add(SeverityError, loc, "%v", err)
			}
		}
	case StepTurnKnob:
		if _, _, ok := s.KnobTarget(); !ok {
			add(SeverityError, loc, "turn_knob step needs params.target_angle")
		}
	case StepShowInstruction:
		if s.Instruction == "" {
			add(SeverityWarning, loc, "show_instruction step has no text")
		}
	}
	if s.Condition != "" && s.Type != StepWaitForCondition {
		add(SeverityWarning, loc, "condition is only used by wait_for_condition steps")
	}
	o := s.Overrides
	switch s.Type.Direction() {
	case profile.DirectionNone:
		if s.Type != StepTurnKnob && !o.IsZero() {
			add(SeverityWarning, loc, "%s step ignores params", s.Type)
		}
	default:
		relevant := o.ForDirection(s.Type.Direction())
		if (o.TightenThreshold != nil && relevant.TightenThreshold == nil) ||
			(o.LoosenThreshold != nil && relevant.LoosenThreshold == nil) ||
			o.TargetAngle != nil || o.AngleTolerance != nil {
			add(SeverityWarning, loc, "%s step only applies the %s threshold", s.Type, s.Type.Direction())
		}
		for _, v := range []*float64{relevant.TightenThreshold, relevant.LoosenThreshold} {
			if v != nil && *v <= 0 {
				add(SeverityError, loc, "threshold override must be positive")
			}
		}
	}
}

// Scene is what the controller and scene validation need from a scene.
type Scene interface {
	World() *ecs.World
	Resolve(ref scene.ObjectRef) (ecs.Entity, bool)
	NameOf(e ecs.Entity) string
}

// ValidateScene checks that every reference resolves and points at an
// object able to raise the events its step waits for.
func ValidateScene(p *Program, sc Scene) []Issue {
	issues := Validate(p)
	if p == nil || sc == nil {
		return issues
	}
	w := sc.World()
	for mi, m := range p.Modules {
		for gi, g := range m.Groups {
			for si, s := range g.Steps {
				loc := location(mi, gi, si)
				if !s.Type.needsTarget() {
					continue
				}
				target, ok := sc.Resolve(s.Target)
				if !ok {
					if !s.Target.IsZero() {
						issues = append(issues, Issue{SeverityError, loc, fmt.Sprintf("target %s does not resolve", s.Target)})
					}
					continue
				}
				if msg := capabilityProblem(w, s.Type, target); msg != "" {
					issues = append(issues, Issue{SeverityError, loc, fmt.Sprintf("target %s: %s", sc.NameOf(target), msg)})
				}
				if s.Destination.IsZero() {
					continue
				}
				dest, ok := sc.Resolve(s.Destination)
				if !ok {
					issues = append(issues, Issue{SeverityError, loc, fmt.Sprintf("destination %s does not resolve", s.Destination)})
					continue
				}
				if !hasSocket(w, dest) {
					issues = append(issues, Issue{SeverityError, loc, fmt.Sprintf("destination %s has no socket", sc.NameOf(dest))})
				}
			}
		}
	}
	return issues
}

package sequence

import (
	"fmt"
	"math"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
)

// activate wires step i of run to the event that completes it. A target
// that does not resolve is logged and leaves the step incomplete.
func (c *Controller) activate(run *groupRun, i int) error {
	s := &run.steps[i]
	switch s.Type {
	case StepShowInstruction:
		run.log.Info("instruction", "step", i, "text", s.Instruction)
		c.complete(run, i)
		return nil
	case StepWaitForCondition:
		if s.Condition == "" {
			return nil
		}
		cond, err := compileCondition(s.Condition)
		if err != nil {
			return err
		}
		run.conditions[i] = cond
		return nil
	}
	if !s.Type.Valid() {
		return fmt.Errorf("unknown step type %q", s.Type)
	}

	w := c.scene.World()
	target, ok := c.scene.Resolve(s.Target)
	if !ok {
		run.log.Warn("step target does not resolve; step cannot complete", "step", i, "name", s.Name, "target", s.Target.String())
		return nil
	}
	var dest ecs.Entity
	if !s.Destination.IsZero() {
		if dest, ok = c.scene.Resolve(s.Destination); !ok {
			run.log.Warn("step destination does not resolve; step cannot complete", "step", i, "name", s.Name, "destination", s.Destination.String())
			return nil
		}
	}
	if msg := capabilityProblem(w, s.Type, target); msg != "" {
		run.log.Warn("step target cannot raise the awaited event", "step", i, "name", s.Name, "target", c.scene.NameOf(target), "problem", msg)
		return nil
	}

	switch s.Type {
	case StepGrab:
		c.listen(run, i, interaction.EventGrabbed, func(evt ecs.Event) bool {
			return evt.Source == target
		})
	case StepGrabAndSnap:
		c.listen(run, i, interaction.EventSocketAttached, func(evt ecs.Event) bool {
			return evt.Source == dest && evt.Other == target
		})
	case StepTurnKnob:
		angle, tol, ok := s.KnobTarget()
		if !ok {
			return fmt.Errorf("turn_knob step without target angle")
		}
		c.listen(run, i, interaction.EventRotationChanged, func(evt ecs.Event) bool {
			return evt.Source == target && math.Abs(evt.Angle-angle) <= tol
		})
	case StepTightenValve, StepLoosenValve, StepInstallValve, StepRemoveValve:
		r := rotaryOf(w, target)
		r.ApplyOverrides(s.Overrides.ForDirection(s.Type.Direction()))
		r.Bind(run.ctx)
		run.bound = append(run.bound, r)
		c.listen(run, i, completionEvent(s.Type), func(evt ecs.Event) bool {
			return evt.Source == target && (dest == 0 || evt.Other == dest)
		})
	}
	return nil
}

func completionEvent(t StepType) ecs.EventKind {
	switch t {
	case StepTightenValve, StepInstallValve:
		return interaction.EventTightened
	case StepLoosenValve:
		return interaction.EventLoosened
	}
	return interaction.EventRemoved
}

func rotaryOf(w *ecs.World, e ecs.Entity) rotary {
	if v, ok := ecs.Get(w, e, interaction.ValveComponent.Kind()); ok {
		return v
	}
	if t, ok := ecs.Get(w, e, interaction.ToolComponent.Kind()); ok {
		return t
	}
	return nil
}

// capabilityProblem explains why target cannot complete a step of type t,
// or returns "".
func capabilityProblem(w *ecs.World, t StepType, target ecs.Entity) string {
	switch t {
	case StepGrab, StepGrabAndSnap:
		if !ecs.Has(w, target, interaction.GrabbableComponent.Kind()) {
			return "not grabbable"
		}
	case StepTurnKnob:
		if !ecs.Has(w, target, interaction.KnobComponent.Kind()) {
			return "no knob controller"
		}
	case StepTightenValve, StepLoosenValve, StepInstallValve, StepRemoveValve:
		if rotaryOf(w, target) == nil {
			return "no valve or tool controller"
		}
	}
	return ""
}

func hasSocket(w *ecs.World, e ecs.Entity) bool {
	return ecs.Has(w, e, interaction.SocketComponent.Kind())
}

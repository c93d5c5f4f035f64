package sequence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
)

func messages(issues []Issue) string {
	var b strings.Builder
	for _, i := range issues {
		b.WriteString(i.String())
		b.WriteString("\n")
	}
	return b.String()
}

func TestValidateStructure(t *testing.T) {
	cases := []struct {
		name string
		step Step
		want string
	}{
		{"unknown type", Step{Type: "juggle"}, `unknown step type "juggle"`},
		{"missing target", Step{Type: StepGrab}, "grab step needs a target"},
		{"snap without destination", Step{Type: StepGrabAndSnap, Target: scene.Ref("Valve_A")}, "needs a destination"},
		{"empty wait list", Step{Type: StepWaitForCondition}, "non-empty wait list"},
		{"wait on self", Step{Type: StepWaitForCondition, WaitFor: []int{0}}, "waits on itself"},
		{"wait out of range", Step{Type: StepWaitForCondition, WaitFor: []int{4}}, "outside the task group"},
		{"bad condition", Step{Type: StepWaitForCondition, WaitFor: []int{1}, Condition: "(("}, "condition"},
		{"knob without angle", Step{Type: StepTurnKnob, Target: scene.Ref("Dial")}, "target_angle"},
		{"cross direction override", Step{Type: StepTightenValve, Target: scene.Ref("Valve_A"),
			Overrides: profile.Overrides{LoosenThreshold: profile.Float(30)}}, "only applies the tighten threshold"},
		{"negative override", Step{Type: StepLoosenValve, Target: scene.Ref("Valve_A"),
			Overrides: profile.Overrides{LoosenThreshold: profile.Float(-1)}}, "must be positive"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := program(group(c.step, Step{Type: StepShowInstruction, Instruction: "pad"}))
			assert.Contains(t, messages(Validate(p)), c.want)
		})
	}
}

func TestValidateCleanProgram(t *testing.T) {
	s := step(StepTightenValve, "Valve_A")
	s.Overrides = profile.Overrides{TightenThreshold: profile.Float(50)}
	issues := Validate(program(group(s)))
	assert.Empty(t, issues, messages(issues))
	assert.True(t, HasErrors(Validate(&Program{})))
}

func TestValidateScene(t *testing.T) {
	h := newHarness(t)
	snap := step(StepGrabAndSnap, "Valve_A")
	snap.Destination = scene.Ref("Dial")
	knob := step(StepTurnKnob, "Handle")
	knob.Overrides.TargetAngle = profile.Float(10)
	p := program(group(step(StepGrab, "Ghost"), snap, knob, step(StepLoosenValve, "Rig/Valve_A")))

	issues := ValidateScene(p, h.sc)
	require.True(t, HasErrors(issues))
	text := messages(issues)
	assert.Contains(t, text, "target Ghost does not resolve")
	assert.Contains(t, text, "destination Dial has no socket")
	assert.Contains(t, text, "target Handle: no knob controller")
	assert.NotContains(t, text, "steps[3]")
}

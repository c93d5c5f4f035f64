package profile

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Direction is the rotation sense a step cares about.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionTighten
	DirectionLoosen
)

func (d Direction) String() string {
	switch d {
	case DirectionTighten:
		return "tighten"
	case DirectionLoosen:
		return "loosen"
	}
	return "none"
}

// Overrides are step-level replacements for profile parameters. Nil fields
// leave the controller's value alone.
type Overrides struct {
	TightenThreshold *float64 `mapstructure:"tighten_threshold" yaml:"tighten_threshold,omitempty"`
	LoosenThreshold  *float64 `mapstructure:"loosen_threshold" yaml:"loosen_threshold,omitempty"`
	TargetAngle      *float64 `mapstructure:"target_angle" yaml:"target_angle,omitempty"`
	AngleTolerance   *float64 `mapstructure:"angle_tolerance" yaml:"angle_tolerance,omitempty"`
}

// DecodeOverrides reads overrides from loosely typed step parameters.
// Unknown keys are rejected so typos surface at load time.
func DecodeOverrides(raw map[string]any) (Overrides, error) {
	var o Overrides
	if len(raw) == 0 {
		return o, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &o,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return o, fmt.Errorf("profile: overrides decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return o, fmt.Errorf("profile: decode overrides: %w", err)
	}
	return o, nil
}

func (o Overrides) IsZero() bool {
	return o.TightenThreshold == nil && o.LoosenThreshold == nil && o.TargetAngle == nil && o.AngleTolerance == nil
}

// ForDirection keeps only the field relevant to d: the tighten threshold
// for tightening, the loosen threshold for loosening, the target angle and
// tolerance for undirected (knob) steps.
func (o Overrides) ForDirection(d Direction) Overrides {
	switch d {
	case DirectionTighten:
		return Overrides{TightenThreshold: o.TightenThreshold}
	case DirectionLoosen:
		return Overrides{LoosenThreshold: o.LoosenThreshold}
	}
	return Overrides{TargetAngle: o.TargetAngle, AngleTolerance: o.AngleTolerance}
}

// WithOverrides returns a copy of v with the thresholds set by o replaced.
func (v ValveParams) WithOverrides(o Overrides) ValveParams {
	if o.TightenThreshold != nil {
		v.TightenThreshold = *o.TightenThreshold
	}
	if o.LoosenThreshold != nil {
		v.LoosenThreshold = *o.LoosenThreshold
	}
	return v
}

func (t ToolParams) WithOverrides(o Overrides) ToolParams {
	if o.TightenThreshold != nil {
		t.TightenThreshold = *o.TightenThreshold
	}
	if o.LoosenThreshold != nil {
		t.LoosenThreshold = *o.LoosenThreshold
	}
	return t
}

// Float returns a pointer to v, for building overrides in code.
func Float(v float64) *float64 {
	return &v
}

// Package profile defines interaction profiles: named, versioned parameter
// records that configure grab, knob, snap, valve and tool objects.
package profile

import (
	"errors"
	"fmt"

	"github.com/mughesh/HVAC-VRB-sub000/common"
)

var (
	ErrUnknownProfile = errors.New("profile: unknown profile")
	ErrInvalidProfile = errors.New("profile: invalid profile")
)

// Kind tags which parameter record a profile carries.
type Kind string

const (
	KindGrab  Kind = "grab"
	KindKnob  Kind = "knob"
	KindSnap  Kind = "snap"
	KindValve Kind = "valve"
	KindTool  Kind = "tool"
)

// Backend selects the grab implementation objects are wired against. It is
// chosen once from configuration.
type Backend string

const (
	BackendXRI      Backend = "xri"
	BackendAutoHand Backend = "autohand"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendXRI, "":
		return BackendXRI, nil
	case BackendAutoHand:
		return BackendAutoHand, nil
	}
	return "", fmt.Errorf("profile: unknown grab backend %q", s)
}

// Profile is a closed tagged variant: exactly the record matching Kind is set.
type Profile struct {
	Kind        Kind   `yaml:"kind"`
	Name        string `yaml:"name"`
	Version     int    `yaml:"version"`
	Description string `yaml:"description,omitempty"`

	Grab  *GrabParams  `yaml:"grab,omitempty"`
	Knob  *KnobParams  `yaml:"knob,omitempty"`
	Snap  *SnapParams  `yaml:"snap,omitempty"`
	Valve *ValveParams `yaml:"valve,omitempty"`
	Tool  *ToolParams  `yaml:"tool,omitempty"`
}

type GrabParams struct {
	MovementType  string  `yaml:"movement_type"`
	ThrowOnDetach bool    `yaml:"throw_on_detach"`
	TrackRotation bool    `yaml:"track_rotation"`
	Mass          float64 `yaml:"mass"`
}

type KnobParams struct {
	Axis          common.Vec3 `yaml:"axis"`
	UseLimits     bool        `yaml:"use_limits"`
	MinAngle      float64     `yaml:"min_angle"`
	MaxAngle      float64     `yaml:"max_angle"`
	SnapIncrement float64     `yaml:"snap_increment"`
}

type SnapParams struct {
	AcceptedTags    []string `yaml:"accepted_tags"`
	AllowedNames    []string `yaml:"allowed_names"`
	AttachTolerance float64  `yaml:"attach_tolerance"`
}

// SettleParams bound the wait between a socket attach and the lock.
type SettleParams struct {
	PositionTolerance float64 `yaml:"position_tolerance"`
	SpeedTolerance    float64 `yaml:"speed_tolerance"`
	Timeout           float64 `yaml:"timeout"`
}

type ValveParams struct {
	Axis              common.Vec3  `yaml:"axis"`
	TightenThreshold  float64      `yaml:"tighten_threshold"`
	LoosenThreshold   float64      `yaml:"loosen_threshold"`
	AngleTolerance    float64      `yaml:"angle_tolerance"`
	RotationDampening float64      `yaml:"rotation_dampening"`
	DampeningSpeed    float64      `yaml:"dampening_speed"`
	Settle            SettleParams `yaml:"settle"`
}

type ToolParams struct {
	Axis              common.Vec3 `yaml:"axis"`
	TightenThreshold  float64     `yaml:"tighten_threshold"`
	LoosenThreshold   float64     `yaml:"loosen_threshold"`
	AngleTolerance    float64     `yaml:"angle_tolerance"`
	RotationDampening float64     `yaml:"rotation_dampening"`
	DampeningSpeed    float64     `yaml:"dampening_speed"`
}

func DefaultSettle() SettleParams {
	return SettleParams{PositionTolerance: 0.01, SpeedTolerance: 0.05, Timeout: 1}
}

func DefaultValve() ValveParams {
	return ValveParams{
		Axis:              common.AxisY,
		TightenThreshold:  90,
		LoosenThreshold:   90,
		AngleTolerance:    5,
		RotationDampening: 5,
		DampeningSpeed:    1,
		Settle:            DefaultSettle(),
	}
}

func DefaultTool() ToolParams {
	return ToolParams{
		Axis:              common.AxisY,
		TightenThreshold:  360,
		LoosenThreshold:   360,
		AngleTolerance:    10,
		RotationDampening: 5,
		DampeningSpeed:    1,
	}
}

func DefaultKnob() KnobParams {
	return KnobParams{Axis: common.AxisY, MinAngle: -90, MaxAngle: 90}
}

// NewValve builds a valve profile around p.
func NewValve(name string, p ValveParams) *Profile {
	return &Profile{Kind: KindValve, Name: name, Version: 1, Valve: &p}
}

func NewTool(name string, p ToolParams) *Profile {
	return &Profile{Kind: KindTool, Name: name, Version: 1, Tool: &p}
}

func NewKnob(name string, p KnobParams) *Profile {
	return &Profile{Kind: KindKnob, Name: name, Version: 1, Knob: &p}
}

func NewSnap(name string, p SnapParams) *Profile {
	return &Profile{Kind: KindSnap, Name: name, Version: 1, Snap: &p}
}

func NewGrab(name string, p GrabParams) *Profile {
	return &Profile{Kind: KindGrab, Name: name, Version: 1, Grab: &p}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Grab != nil {
		g := *p.Grab
		out.Grab = &g
	}
	if p.Knob != nil {
		k := *p.Knob
		out.Knob = &k
	}
	if p.Snap != nil {
		s := *p.Snap
		s.AcceptedTags = append([]string(nil), p.Snap.AcceptedTags...)
		s.AllowedNames = append([]string(nil), p.Snap.AllowedNames...)
		out.Snap = &s
	}
	if p.Valve != nil {
		v := *p.Valve
		out.Valve = &v
	}
	if p.Tool != nil {
		t := *p.Tool
		out.Tool = &t
	}
	return &out
}

// Validate checks that the record matching Kind is present and sane.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil profile", ErrInvalidProfile)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidProfile, p.Name, fmt.Sprintf(format, args...))
	}
	switch p.Kind {
	case KindGrab:
		if p.Grab == nil {
			return invalid("grab record missing")
		}
	case KindKnob:
		if p.Knob == nil {
			return invalid("knob record missing")
		}
		if p.Knob.Axis.IsZero() {
			return invalid("knob axis is zero")
		}
		if p.Knob.UseLimits && p.Knob.MinAngle > p.Knob.MaxAngle {
			return invalid("knob min angle %v above max angle %v", p.Knob.MinAngle, p.Knob.MaxAngle)
		}
	case KindSnap:
		if p.Snap == nil {
			return invalid("snap record missing")
		}
	case KindValve:
		v := p.Valve
		if v == nil {
			return invalid("valve record missing")
		}
		if err := checkRotary(v.Axis, v.TightenThreshold, v.LoosenThreshold, v.AngleTolerance); err != nil {
			return invalid("%v", err)
		}
		if v.Settle.PositionTolerance < 0 || v.Settle.SpeedTolerance < 0 || v.Settle.Timeout < 0 {
			return invalid("settle tolerances must not be negative")
		}
	case KindTool:
		t := p.Tool
		if t == nil {
			return invalid("tool record missing")
		}
		if err := checkRotary(t.Axis, t.TightenThreshold, t.LoosenThreshold, t.AngleTolerance); err != nil {
			return invalid("%v", err)
		}
	default:
		return invalid("unknown kind %q", p.Kind)
	}
	return nil
}

func checkRotary(axis common.Vec3, tighten, loosen, tolerance float64) error {
	switch {
	case axis.IsZero():
		return errors.New("rotation axis is zero")
	case tighten <= 0 || loosen <= 0:
		return errors.New("thresholds must be positive")
	case tolerance < 0:
		return errors.New("angle tolerance must not be negative")
	case tolerance >= tighten || tolerance >= loosen:
		return errors.New("angle tolerance must be below both thresholds")
	}
	return nil
}

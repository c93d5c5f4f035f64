package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mughesh/HVAC-VRB-sub000/scene"
)

// Script is a recorded trainee session: input actions played in order.
type Script struct {
	Name    string   `yaml:"name"`
	Actions []Action `yaml:"actions"`
}

// Action is one input. Exactly one field is set.
type Action struct {
	Grab    *scene.ObjectRef `yaml:"grab,omitempty"`
	Release *scene.ObjectRef `yaml:"release,omitempty"`
	Attach  *AttachAction    `yaml:"attach,omitempty"`
	Detach  *scene.ObjectRef `yaml:"detach,omitempty"`
	Rotate  *RotateAction    `yaml:"rotate,omitempty"`
	Move    *MoveAction      `yaml:"move,omitempty"`
	Wait    *int             `yaml:"wait,omitempty"`
}

type AttachAction struct {
	Object scene.ObjectRef `yaml:"object"`
	Socket scene.ObjectRef `yaml:"socket"`
}

type RotateAction struct {
	Object scene.ObjectRef `yaml:"object"`
	Deg    float64         `yaml:"deg"`
	Ticks  int             `yaml:"ticks"`
}

type MoveAction struct {
	Object scene.ObjectRef `yaml:"object"`
	To     scene.ObjectRef `yaml:"to"`
}

func (a Action) set() int {
	n := 0
	for _, ok := range []bool{a.Grab != nil, a.Release != nil, a.Attach != nil, a.Detach != nil, a.Rotate != nil, a.Move != nil, a.Wait != nil} {
		if ok {
			n++
		}
	}
	return n
}

func (a Action) String() string {
	switch {
	case a.Grab != nil:
		return "grab " + a.Grab.String()
	case a.Release != nil:
		return "release " + a.Release.String()
	case a.Attach != nil:
		return fmt.Sprintf("attach %s to %s", a.Attach.Object, a.Attach.Socket)
	case a.Detach != nil:
		return "detach " + a.Detach.String()
	case a.Rotate != nil:
		return fmt.Sprintf("rotate %s %gdeg over %d ticks", a.Rotate.Object, a.Rotate.Deg, a.Rotate.Ticks)
	case a.Move != nil:
		return fmt.Sprintf("move %s to %s", a.Move.Object, a.Move.To)
	case a.Wait != nil:
		return fmt.Sprintf("wait %d ticks", *a.Wait)
	}
	return "empty"
}

var ErrBadAction = errors.New("sim: action must set exactly one input")

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sim: read %s: %w", path, err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("sim: load %s: %w", path, err)
	}
	return s, nil
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	for i, a := range s.Actions {
		if a.set() != 1 {
			return nil, fmt.Errorf("%w: action %d", ErrBadAction, i)
		}
		if a.Wait != nil && *a.Wait < 0 {
			return nil, fmt.Errorf("%w: action %d: negative wait", ErrBadAction, i)
		}
	}
	return &s, nil
}

// Play runs every action against r. Refused inputs are logged and playback
// continues; unresolved objects stop it. ctx is checked between actions.
func (r *Runtime) Play(ctx context.Context, s *Script) error {
	for i, a := range s.Actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.do(a)
		if errors.Is(err, ErrRefused) || errors.Is(err, ErrNotSeated) {
			r.log.Info("input refused", "action", a.String(), "index", i)
			continue
		}
		if err != nil {
			return fmt.Errorf("sim: %s action %d (%s): %w", s.Name, i, a, err)
		}
		r.log.Debug("action played", "action", a.String(), "index", i, "tick", r.ticks)
	}
	return nil
}

func (r *Runtime) do(a Action) error {
	switch {
	case a.Grab != nil:
		return r.Grab(*a.Grab)
	case a.Release != nil:
		return r.Release(*a.Release)
	case a.Attach != nil:
		return r.Attach(a.Attach.Object, a.Attach.Socket)
	case a.Detach != nil:
		return r.Detach(*a.Detach)
	case a.Rotate != nil:
		return r.Rotate(a.Rotate.Object, a.Rotate.Deg, a.Rotate.Ticks)
	case a.Move != nil:
		return r.Move(a.Move.Object, a.Move.To)
	case a.Wait != nil:
		r.Wait(*a.Wait)
		return nil
	}
	return ErrBadAction
}

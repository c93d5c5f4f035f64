package scene

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
)

// ObjectRef points at a scene object. It keeps a direct entity handle plus
// the name and hierarchy path it was authored with, so it still resolves
// after the object has been rebuilt.
type ObjectRef struct {
	Entity ecs.Entity `yaml:"-"`
	Name   string     `yaml:"name,omitempty"`
	Path   string     `yaml:"path,omitempty"`
}

// Ref builds a reference from a plain string. Strings with a slash are
// hierarchy paths; anything else is a name.
func Ref(s string) ObjectRef {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return ObjectRef{Path: strings.Trim(s, "/"), Name: s[strings.LastIndex(s, "/")+1:]}
	}
	return ObjectRef{Name: s}
}

// EntityRef references e directly.
func EntityRef(e ecs.Entity) ObjectRef {
	return ObjectRef{Entity: e}
}

func (r ObjectRef) IsZero() bool {
	return r.Entity == 0 && r.Name == "" && r.Path == ""
}

func (r ObjectRef) String() string {
	switch {
	case r.Path != "":
		return r.Path
	case r.Name != "":
		return r.Name
	case r.Entity != 0:
		return r.Entity.String()
	}
	return "<none>"
}

// UnmarshalYAML accepts either a scalar ("Valve_A", "Rig/Valves/Valve_A")
// or a mapping with name and path keys.
func (r *ObjectRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = Ref(node.Value)
		return nil
	case yaml.MappingNode:
		var raw struct {
			Name string `yaml:"name"`
			Path string `yaml:"path"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*r = ObjectRef{Name: raw.Name, Path: strings.Trim(raw.Path, "/")}
		return nil
	}
	return fmt.Errorf("scene: line %d: object reference must be a string or mapping", node.Line)
}

package scene

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mughesh/HVAC-VRB-sub000/common"
)

// BodyKind selects what simulates an object.
type BodyKind string

const (
	BodySim      BodyKind = "sim"
	BodyChipmunk BodyKind = "chipmunk"
)

// Spec is a scene file.
type Spec struct {
	Name    string       `yaml:"name"`
	Gravity common.Vec3  `yaml:"gravity"`
	Objects []ObjectSpec `yaml:"objects"`
}

// ObjectSpec describes one scene object and the profiles applied to it, in
// order.
type ObjectSpec struct {
	Name     string      `yaml:"name"`
	Path     string      `yaml:"path"`
	Tags     []string    `yaml:"tags"`
	Position common.Vec3 `yaml:"position"`
	Rotation common.Vec3 `yaml:"rotation"`
	Body     BodyKind    `yaml:"body"`
	Radius   float64     `yaml:"radius"`
	Mass     float64     `yaml:"mass"`
	Profiles []string    `yaml:"profiles"`
}

// LoadSpec reads a scene file.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("scene: read %s: %w", path, err)
	}
	spec, err := ParseSpec(data)
	if err != nil {
		return Spec{}, fmt.Errorf("scene: load %s: %w", path, err)
	}
	return spec, nil
}

func ParseSpec(data []byte) (Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return Spec{}, err
	}
	for i := range spec.Objects {
		if spec.Objects[i].Body == "" {
			spec.Objects[i].Body = BodySim
		}
	}
	return spec, nil
}

package sequence

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

// LoadFile reads a program from a YAML file.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sequence: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("sequence: load %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a program and each step's parameter overrides.
func Parse(data []byte) (*Program, error) {
	var p Program
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if err := p.DecodeParams(); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeParams fills every step's Overrides from its raw Params.
func (p *Program) DecodeParams() error {
	for mi := range p.Modules {
		for gi := range p.Modules[mi].Groups {
			steps := p.Modules[mi].Groups[gi].Steps
			for si := range steps {
				o, err := profile.DecodeOverrides(steps[si].Params)
				if err != nil {
					return fmt.Errorf("%s: %w", location(mi, gi, si), err)
				}
				steps[si].Overrides = o
			}
		}
	}
	return nil
}

func location(mi, gi, si int) string {
	switch {
	case si >= 0:
		return fmt.Sprintf("modules[%d].task_groups[%d].steps[%d]", mi, gi, si)
	case gi >= 0:
		return fmt.Sprintf("modules[%d].task_groups[%d]", mi, gi)
	case mi >= 0:
		return fmt.Sprintf("modules[%d]", mi)
	}
	return "program"
}

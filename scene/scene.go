// Package scene builds interactive objects into a world and resolves
// object references against them.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/mughesh/HVAC-VRB-sub000/common"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/ecs/component"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/physics"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
)

var (
	ErrUnresolvedRef = errors.New("scene: unresolved object reference")
	ErrDuplicate     = errors.New("scene: duplicate object")
	ErrPlanarAxis    = errors.New("scene: chipmunk bodies only turn about Z")
)

// Scene owns the interactive objects of one training environment.
type Scene struct {
	Name  string
	Env   *interaction.Env
	Space *physics.Space

	log      *slog.Logger
	byName   map[string]ecs.Entity
	byPath   map[string]ecs.Entity
	profiles map[string][]ecs.Entity
}

func New(env *interaction.Env, space *physics.Space) *Scene {
	log := env.Log
	if log == nil {
		log = slog.Default()
	}
	return &Scene{
		Env:      env,
		Space:    space,
		log:      log.With("component", "scene"),
		byName:   make(map[string]ecs.Entity),
		byPath:   make(map[string]ecs.Entity),
		profiles: make(map[string][]ecs.Entity),
	}
}

// Build creates every object in spec and applies its profiles from lib.
func Build(env *interaction.Env, spec Spec, lib *profile.Library) (*Scene, error) {
	s := New(env, physics.NewSpace(spec.Gravity))
	s.Name = spec.Name
	for _, obj := range spec.Objects {
		if _, err := s.AddObject(obj, lib); err != nil {
			return nil, err
		}
	}
	s.log.Info("scene built", "scene", spec.Name, "objects", len(spec.Objects))
	return s, nil
}

func (s *Scene) World() *ecs.World {
	return s.Env.World
}

// AddObject creates one object. Profiles are looked up in lib and applied
// in order.
func (s *Scene) AddObject(spec ObjectSpec, lib *profile.Library) (ecs.Entity, error) {
	if spec.Name == "" {
		return 0, fmt.Errorf("scene: object without a name")
	}
	if _, ok := s.byName[spec.Name]; ok {
		return 0, fmt.Errorf("%w: name %q", ErrDuplicate, spec.Name)
	}
	if spec.Path != "" {
		if _, ok := s.byPath[spec.Path]; ok {
			return 0, fmt.Errorf("%w: path %q", ErrDuplicate, spec.Path)
		}
	}

	w := s.World()
	e := ecs.CreateEntity(w)
	body, err := s.newBody(spec)
	if err != nil {
		ecs.DestroyEntity(w, e)
		return 0, err
	}
	if err := ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Name: spec.Name, Path: spec.Path}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.TagsComponent.Kind(), &component.Tags{Values: append([]string(nil), spec.Tags...)}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.BodyComponent.Kind(), &component.Body{Body: body}); err != nil {
		return 0, err
	}
	s.byName[spec.Name] = e
	if spec.Path != "" {
		s.byPath[spec.Path] = e
	}

	for _, name := range spec.Profiles {
		p, err := lib.Get(name)
		if err != nil {
			return 0, fmt.Errorf("scene: object %s: %w", spec.Name, err)
		}
		if err := checkAxis(body, p); err != nil {
			return 0, fmt.Errorf("scene: object %s: %w", spec.Name, err)
		}
		if err := interaction.Configure(s.Env, e, p); err != nil {
			return 0, fmt.Errorf("scene: object %s: %w", spec.Name, err)
		}
		s.profiles[name] = append(s.profiles[name], e)
	}
	return e, nil
}

// Reconfigure applies a reloaded profile to every live object built with a
// profile of the same name. It returns how many objects took it.
func (s *Scene) Reconfigure(p *profile.Profile) int {
	n := 0
	for _, e := range s.profiles[p.Name] {
		if !ecs.IsAlive(s.World(), e) {
			continue
		}
		body, _ := s.Body(e)
		if err := checkAxis(body, p); err != nil {
			s.log.Warn("reload rejected", "object", s.NameOf(e), "profile", p.Name, "error", err)
			continue
		}
		if err := interaction.Configure(s.Env, e, p); err != nil {
			s.log.Warn("reload rejected", "object", s.NameOf(e), "profile", p.Name, "error", err)
			continue
		}
		n++
	}
	return n
}

func (s *Scene) newBody(spec ObjectSpec) (physics.Body, error) {
	switch spec.Body {
	case BodySim, "":
		b := physics.NewSimBody(spec.Position)
		b.Rot = spec.Rotation
		return b, nil
	case BodyChipmunk:
		b := s.Space.AddBody(spec.Position, spec.Radius, spec.Mass)
		b.Turn(spec.Rotation.Z)
		return b, nil
	}
	return nil, fmt.Errorf("scene: object %s: unknown body kind %q", spec.Name, spec.Body)
}

// checkAxis refuses rotary profiles a planar body could never turn about.
func checkAxis(body physics.Body, p *profile.Profile) error {
	if _, ok := body.(*physics.ChipmunkBody); !ok {
		return nil
	}
	var axis common.Vec3
	switch {
	case p.Valve != nil:
		axis = p.Valve.Axis
	case p.Tool != nil:
		axis = p.Tool.Axis
	case p.Knob != nil:
		axis = p.Knob.Axis
	default:
		return nil
	}
	if math.Abs(axis.Normalize().Z) < 1-1e-6 {
		return fmt.Errorf("%w: profile %s has axis %+v", ErrPlanarAxis, p.Name, axis)
	}
	return nil
}

// Resolve finds the live object ref points at: the direct entity first,
// then the hierarchy path, then the name.
func (s *Scene) Resolve(ref ObjectRef) (ecs.Entity, bool) {
	if ref.Entity != 0 && ecs.IsAlive(s.World(), ref.Entity) {
		return ref.Entity, true
	}
	if ref.Path != "" {
		if e, ok := s.byPath[ref.Path]; ok && ecs.IsAlive(s.World(), e) {
			return e, true
		}
	}
	if ref.Name != "" {
		if e, ok := s.byName[ref.Name]; ok && ecs.IsAlive(s.World(), e) {
			return e, true
		}
	}
	return 0, false
}

// MustResolve is Resolve with an error for unresolved references.
func (s *Scene) MustResolve(ref ObjectRef) (ecs.Entity, error) {
	if e, ok := s.Resolve(ref); ok {
		return e, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnresolvedRef, ref)
}

// Remove destroys an object and forgets its lookup keys.
func (s *Scene) Remove(e ecs.Entity) bool {
	n, ok := ecs.Get(s.World(), e, component.NameComponent.Kind())
	if ok {
		delete(s.byName, n.Name)
		delete(s.byPath, n.Path)
	}
	return ecs.DestroyEntity(s.World(), e)
}

// NameOf returns the object's name, or its entity string.
func (s *Scene) NameOf(e ecs.Entity) string {
	if n, ok := ecs.Get(s.World(), e, component.NameComponent.Kind()); ok {
		return n.Name
	}
	return e.String()
}

// Objects returns object names in sorted order.
func (s *Scene) Objects() []string {
	out := make([]string, 0, len(s.byName))
	for name := range s.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Scene) Body(e ecs.Entity) (physics.Body, bool) {
	b, ok := ecs.Get(s.World(), e, component.BodyComponent.Kind())
	if !ok || b.Body == nil {
		return nil, false
	}
	return b.Body, true
}

func (s *Scene) Grabbable(e ecs.Entity) (*interaction.Grabbable, bool) {
	return ecs.Get(s.World(), e, interaction.GrabbableComponent.Kind())
}

func (s *Scene) Socket(e ecs.Entity) (*interaction.Socket, bool) {
	return ecs.Get(s.World(), e, interaction.SocketComponent.Kind())
}

func (s *Scene) Valve(e ecs.Entity) (*interaction.ValveController, bool) {
	return ecs.Get(s.World(), e, interaction.ValveComponent.Kind())
}

func (s *Scene) Knob(e ecs.Entity) (*interaction.KnobController, bool) {
	return ecs.Get(s.World(), e, interaction.KnobComponent.Kind())
}

func (s *Scene) Tool(e ecs.Entity) (*interaction.ToolController, bool) {
	return ecs.Get(s.World(), e, interaction.ToolComponent.Kind())
}

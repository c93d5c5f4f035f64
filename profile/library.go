package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Library holds profiles by name. It is safe for concurrent use so a file
// watcher can replace entries while the main loop reads them.
type Library struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	sources  map[string]string
	rejected map[string]error
}

// NewLibrary stores the given profiles. Invalid ones are logged and left
// out; looking one up later reports why it was rejected.
func NewLibrary(profiles ...*Profile) *Library {
	l := &Library{
		profiles: make(map[string]*Profile),
		sources:  make(map[string]string),
		rejected: make(map[string]error),
	}
	for _, p := range profiles {
		if err := l.Put(p); err != nil {
			name := ""
			if p != nil {
				name = p.Name
			}
			slog.Default().Warn("profile rejected", "component", "profile", "profile", name, "error", err)
			l.mu.Lock()
			l.rejected[name] = err
			l.mu.Unlock()
		}
	}
	return l
}

// Put validates and stores p, replacing any profile with the same name.
func (l *Library) Put(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profiles[p.Name] = p
	delete(l.rejected, p.Name)
	return nil
}

// Get returns the profile called name.
func (l *Library) Get(name string) (*Profile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.profiles[name]
	if !ok {
		if err, bad := l.rejected[name]; bad {
			return nil, fmt.Errorf("%w: %q was rejected: %w", ErrUnknownProfile, name, err)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Names returns the stored profile names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.profiles))
	for name := range l.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Source returns the file a profile was loaded from, if any.
func (l *Library) Source(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sources[name]
}

// LoadFile parses one YAML profile document and stores it.
func (l *Library) LoadFile(path string) (*Profile, error) {
	p, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := l.Put(p); err != nil {
		return nil, fmt.Errorf("profile: load %s: %w", path, err)
	}
	l.mu.Lock()
	l.sources[p.Name] = path
	l.mu.Unlock()
	return p, nil
}

// LoadDir loads every *.yaml / *.yml file in dir. It stops at the first
// malformed file.
func (l *Library) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("profile: read dir %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !isSpecFile(e.Name()) {
			continue
		}
		if _, err := l.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// LoadFile parses a YAML profile without storing it.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: load %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile document and fills unset parameters with
// the defaults for its kind.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: unmarshal: %w", err)
	}
	p.Kind = Kind(strings.ToLower(string(p.Kind)))
	if p.Version == 0 {
		p.Version = 1
	}
	fillDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func fillDefaults(p *Profile) {
	switch p.Kind {
	case KindGrab:
		if p.Grab == nil {
			p.Grab = &GrabParams{MovementType: "velocity_tracking", TrackRotation: true}
		}
	case KindKnob:
		if p.Knob == nil {
			k := DefaultKnob()
			p.Knob = &k
		} else if p.Knob.Axis.IsZero() {
			p.Knob.Axis = DefaultKnob().Axis
		}
	case KindSnap:
		if p.Snap == nil {
			p.Snap = &SnapParams{}
		}
	case KindValve:
		def := DefaultValve()
		if p.Valve == nil {
			p.Valve = &def
			return
		}
		v := p.Valve
		if v.Axis.IsZero() {
			v.Axis = def.Axis
		}
		if v.TightenThreshold == 0 {
			v.TightenThreshold = def.TightenThreshold
		}
		if v.LoosenThreshold == 0 {
			v.LoosenThreshold = def.LoosenThreshold
		}
		if v.Settle == (SettleParams{}) {
			v.Settle = def.Settle
		}
	case KindTool:
		def := DefaultTool()
		if p.Tool == nil {
			p.Tool = &def
			return
		}
		t := p.Tool
		if t.Axis.IsZero() {
			t.Axis = def.Axis
		}
		if t.TightenThreshold == 0 {
			t.TightenThreshold = def.TightenThreshold
		}
		if t.LoosenThreshold == 0 {
			t.LoosenThreshold = def.LoosenThreshold
		}
	}
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

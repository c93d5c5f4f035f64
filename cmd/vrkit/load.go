package main

import (
	"fmt"
	"os"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

// loadLibrary reads every profile directory. Directories that do not exist
// are skipped so the default "profiles" entry is optional.
func (o *RootOptions) loadLibrary(extra ...string) (*profile.Library, error) {
	lib := profile.NewLibrary()
	dirs := append(append([]string(nil), o.cfg.Profiles.Dirs...), extra...)
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			o.log.Debug("profile directory missing", "dir", dir)
			continue
		}
		n, err := lib.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		o.log.Debug("profiles loaded", "dir", dir, "count", n)
	}
	return lib, nil
}

func (o *RootOptions) profileDirs(extra []string) []string {
	var dirs []string
	for _, dir := range append(append([]string(nil), o.cfg.Profiles.Dirs...), extra...) {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// buildScene loads a scene file into a fresh world.
func (o *RootOptions) buildScene(path string, lib *profile.Library) (*scene.Scene, error) {
	spec, err := scene.LoadSpec(path)
	if err != nil {
		return nil, err
	}
	env := interaction.NewEnv(ecs.NewWorld(), task.NewRunner(), o.log)
	env.Backend = o.cfg.Backend()
	sc, err := scene.Build(env, spec, lib)
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", path, err)
	}
	return sc, nil
}

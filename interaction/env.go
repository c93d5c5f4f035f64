package interaction

import (
	"fmt"
	"log/slog"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

// Env is what every controller shares: the world (for components and the
// event bus), the task runner for deferred work, and a logger.
type Env struct {
	World   *ecs.World
	Tasks   *task.Runner
	Log     *slog.Logger
	Backend profile.Backend
}

func NewEnv(w *ecs.World, tasks *task.Runner, log *slog.Logger) *Env {
	if log == nil {
		log = slog.Default()
	}
	return &Env{World: w, Tasks: tasks, Log: log, Backend: profile.BackendXRI}
}

func (env *Env) bus() *ecs.Bus {
	return env.World.Events()
}

func (env *Env) emit(evt ecs.Event) {
	env.bus().Emit(evt)
}

func (env *Env) logger(component string, e ecs.Entity) *slog.Logger {
	log := env.Log
	if log == nil {
		log = slog.Default()
	}
	return log.With("component", component, "entity", e.String())
}

func ownerKey(kind string, e ecs.Entity) string {
	return fmt.Sprintf("%s:%s", kind, e)
}

func (env *Env) socket(e ecs.Entity) *Socket {
	if e == 0 {
		return nil
	}
	s, _ := ecs.Get(env.World, e, SocketComponent.Kind())
	return s
}

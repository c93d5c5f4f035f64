// Package bridge mirrors interaction and sequence events onto MQTT topics so
// physical training props (indicator lights, instructor panels) can follow a
// session, and turns prop messages back into scene input.
package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/sequence"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Subscriber delivers messages from topic patterns.
type Subscriber interface {
	Subscribe(topic string, fn func(topic string, payload []byte)) error
}

const owner = "bridge"

var forwarded = []ecs.EventKind{
	interaction.EventTightened,
	interaction.EventLoosened,
	interaction.EventSnapped,
	interaction.EventRemoved,
	interaction.EventStateChanged,
	interaction.EventInvalidRotation,
	interaction.EventForceRemovalAttempted,
}

// Message is the JSON body of every published event.
type Message struct {
	Event    string  `json:"event"`
	Object   string  `json:"object,omitempty"`
	Other    string  `json:"other,omitempty"`
	State    string  `json:"state,omitempty"`
	Substate string  `json:"substate,omitempty"`
	Angle    float64 `json:"angle,omitempty"`
	Run      string  `json:"run,omitempty"`
	Module   string  `json:"module,omitempty"`
	Group    string  `json:"group,omitempty"`
	Step     string  `json:"step,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Command is an inbound prop message: "<prefix>/input/<object>/<action>".
type Command struct {
	Object string
	Action string
	Body   []byte
}

// Bridge forwards events to a Publisher.
type Bridge struct {
	pub    Publisher
	prefix string
	names  func(ecs.Entity) string
	log    *slog.Logger

	mu    sync.Mutex
	inbox []Command
}

func New(pub Publisher, prefix string, names func(ecs.Entity) string, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	if names == nil {
		names = func(e ecs.Entity) string { return e.String() }
	}
	return &Bridge{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "/"),
		names:  names,
		log:    log.With("component", "bridge"),
	}
}

// Attach forwards controller events from bus.
func (b *Bridge) Attach(bus *ecs.Bus) {
	for _, kind := range forwarded {
		bus.Subscribe(owner, ecs.Filter{Kind: kind}, b.forward)
	}
}

// Detach stops forwarding.
func (b *Bridge) Detach(bus *ecs.Bus) int {
	return bus.RemoveOwner(owner)
}

func (b *Bridge) forward(evt ecs.Event) {
	obj := b.names(evt.Source)
	msg := Message{
		Event:    string(evt.Kind),
		Object:   obj,
		State:    evt.State,
		Substate: evt.Substate,
		Angle:    evt.Angle,
	}
	if evt.Other != 0 {
		msg.Other = b.names(evt.Other)
	}
	b.send(fmt.Sprintf("%s/objects/%s/%s", b.prefix, obj, evt.Kind), msg)
}

// Hooks publishes sequence progress.
func (b *Bridge) Hooks() sequence.Hooks {
	return sequence.Hooks{
		OnStepCompleted: func(e sequence.StepEvent) {
			b.send(b.prefix+"/sequence/step", Message{Event: "step-completed", Run: e.RunID, Step: e.Name})
		},
		OnStepFailed: func(e sequence.StepEvent) {
			msg := Message{Event: "step-failed", Run: e.RunID, Step: e.Name}
			if e.Err != nil {
				msg.Error = e.Err.Error()
			}
			b.send(b.prefix+"/sequence/step", msg)
		},
		OnGroupStarted: func(e sequence.GroupEvent) {
			b.send(b.prefix+"/sequence/group", Message{Event: "group-started", Run: e.RunID, Module: e.ModuleName, Group: e.GroupName})
		},
		OnGroupCompleted: func(e sequence.GroupEvent) {
			b.send(b.prefix+"/sequence/group", Message{Event: "group-completed", Run: e.RunID, Module: e.ModuleName, Group: e.GroupName})
		},
		OnSequenceCompleted: func(e sequence.RunEvent) {
			b.send(b.prefix+"/sequence/run", Message{Event: "sequence-completed", Run: e.RunID})
		},
	}
}

// send never fails the caller; a prop that misses a message is logged.
func (b *Bridge) send(topic string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("encode message", "topic", topic, "error", err)
		return
	}
	if err := b.pub.Publish(topic, payload); err != nil {
		b.log.Warn("publish failed", "topic", topic, "error", err)
	}
}

// Listen subscribes to "<prefix>/input/+/+" and queues what arrives.
func (b *Bridge) Listen(sub Subscriber) error {
	topic := b.prefix + "/input/+/+"
	if err := sub.Subscribe(topic, b.receive); err != nil {
		return fmt.Errorf("bridge: subscribe %s: %w", topic, err)
	}
	return nil
}

func (b *Bridge) receive(topic string, payload []byte) {
	rest, ok := strings.CutPrefix(topic, b.prefix+"/input/")
	if !ok {
		return
	}
	object, action, ok := strings.Cut(rest, "/")
	if !ok || object == "" || action == "" {
		b.log.Debug("ignoring input topic", "topic", topic)
		return
	}
	b.mu.Lock()
	b.inbox = append(b.inbox, Command{Object: object, Action: action, Body: append([]byte(nil), payload...)})
	b.mu.Unlock()
}

// Drain returns and clears queued commands. Call it from the main loop.
func (b *Bridge) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.inbox
	b.inbox = nil
	return out
}

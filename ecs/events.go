package ecs

import "strings"

// EventKind names a bus event.
type EventKind string

// Event is a synchronous bus payload. Source is the entity that raised it;
// Other is the counterpart (the socket for a snap, the object for an attach).
type Event struct {
	Kind     EventKind
	Source   Entity
	Other    Entity
	Angle    float64
	State    string
	Substate string
}

// Filter selects events by kind and, when Source is non-zero, by source entity.
type Filter struct {
	Kind   EventKind
	Source Entity
}

func (f Filter) match(evt Event) bool {
	if f.Kind != "" && f.Kind != evt.Kind {
		return false
	}
	return f.Source == 0 || f.Source == evt.Source
}

// Handler receives a bus event.
type Handler func(Event)

// SubscriptionID identifies one listener.
type SubscriptionID uint64

type listener struct {
	id     SubscriptionID
	owner  string
	filter Filter
	fn     Handler
	active bool
}

// Bus is an observer registry. Every listener belongs to an owner key so a
// whole group of listeners can be dropped in one call.
type Bus struct {
	next      SubscriptionID
	listeners []*listener
}

// Subscribe registers fn for events matching f under owner.
func (b *Bus) Subscribe(owner string, f Filter, fn Handler) SubscriptionID {
	if b == nil || fn == nil {
		return 0
	}
	b.next++
	b.listeners = append(b.listeners, &listener{
		id:     b.next,
		owner:  owner,
		filter: f,
		fn:     fn,
		active: true,
	})
	return b.next
}

// Unsubscribe removes a single listener.
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	return b.removeWhere(func(l *listener) bool { return l.id == id }) > 0
}

// RemoveOwner removes every listener registered under owner.
func (b *Bus) RemoveOwner(owner string) int {
	return b.removeWhere(func(l *listener) bool { return l.owner == owner })
}

// RemoveOwnerPrefix removes every listener whose owner starts with prefix.
func (b *Bus) RemoveOwnerPrefix(prefix string) int {
	if prefix == "" {
		return 0
	}
	return b.removeWhere(func(l *listener) bool { return strings.HasPrefix(l.owner, prefix) })
}

func (b *Bus) removeWhere(pred func(*listener) bool) int {
	if b == nil {
		return 0
	}
	kept := b.listeners[:0]
	removed := 0
	for _, l := range b.listeners {
		if pred(l) {
			l.active = false
			removed++
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(b.listeners); i++ {
		b.listeners[i] = nil
	}
	b.listeners = kept
	return removed
}

// Emit delivers evt to matching listeners in subscription order. Listeners
// removed while the event is being delivered are skipped; listeners added
// during delivery only see later events.
func (b *Bus) Emit(evt Event) {
	if b == nil || len(b.listeners) == 0 {
		return
	}
	snapshot := append([]*listener(nil), b.listeners...)
	for _, l := range snapshot {
		if !l.active || !l.filter.match(evt) {
			continue
		}
		l.fn(evt)
	}
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	return len(b.listeners)
}

// OwnerLen returns the number of listeners registered under owners with the
// given prefix.
func (b *Bus) OwnerLen(prefix string) int {
	if b == nil {
		return 0
	}
	n := 0
	for _, l := range b.listeners {
		if strings.HasPrefix(l.owner, prefix) {
			n++
		}
	}
	return n
}

// Package component declares the typed component handles the world stores
// data under, plus the components shared by every interaction.
package component

import (
	"errors"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// ComponentID keys one component store. Zero is never issued.
type ComponentID uint32

var lastID atomic.Uint32

// ComponentKind ties a store id to the Go type kept in it.
type ComponentKind[T any] struct {
	id ComponentID
}

func (k ComponentKind[T]) ID() ComponentID { return k.id }

// Valid reports whether k came from NewComponent rather than a zero value.
func (k ComponentKind[T]) Valid() bool { return k.id != 0 }

// ComponentHandle is declared once per component type at package level.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

// NewComponent registers a fresh store for T. Two handles of the same type
// address different stores.
func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: ComponentKind[T]{id: ComponentID(lastID.Add(1))}}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] { return h.kind }

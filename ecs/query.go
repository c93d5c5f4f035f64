package ecs

import "github.com/mughesh/HVAC-VRB-sub000/ecs/component"

// Query returns the live entities holding every listed component id.
func Query(w *World, ids ...component.ComponentID) []Entity {
	if w == nil || len(ids) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(ids))
	for _, id := range ids {
		s := w.store(id, false)
		if s == nil {
			return nil
		}
		sets = append(sets, s)
	}
	// iterate the smallest set
	base := sets[0]
	for _, s := range sets[1:] {
		if s.Len() < base.Len() {
			base = s
		}
	}
	var out []Entity
	for _, id := range base.ids() {
		all := true
		for _, s := range sets {
			if !s.Has(id) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		if e, ok := w.entities.current(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first live entity holding every listed component id.
func First(w *World, ids ...component.ComponentID) (Entity, bool) {
	ents := Query(w, ids...)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}

func intersect(a, b *SparseSet) []entityID {
	if a == nil || b == nil {
		return nil
	}
	if a.Len() > b.Len() {
		a, b = b, a
	}
	out := make([]entityID, 0, a.Len())
	for _, id := range a.ids() {
		if b.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

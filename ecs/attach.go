package ecs

import (
	"sort"

	"github.com/milk9111/prefabricator/ecs/component"
)

// Attach adds an edge from parent to child. Attaching the same pair twice is
// a no-op. Cycles and shared children are allowed.
func Attach(w *World, parent, child Entity) error {
	if w == nil || !IsAlive(w, parent) || !IsAlive(w, child) {
		return component.ErrEntityNotAlive
	}
	for _, c := range w.children[parent] {
		if c == child {
			return nil
		}
	}
	w.children[parent] = append(w.children[parent], child)
	w.parents[child] = append(w.parents[child], parent)
	return nil
}

// Detach removes the edge from parent to child.
func Detach(w *World, parent, child Entity) bool {
	if w == nil {
		return false
	}
	before := len(w.children[parent])
	w.children[parent] = without(w.children[parent], child)
	if len(w.children[parent]) == before {
		return false
	}
	if len(w.children[parent]) == 0 {
		delete(w.children, parent)
	}
	w.parents[child] = without(w.parents[child], parent)
	if len(w.parents[child]) == 0 {
		delete(w.parents, child)
	}
	return true
}

// AttachedChildren returns a snapshot of the entities attached under e in
// attachment order. Callers may destroy or attach while ranging over it.
func AttachedChildren(w *World, e Entity) []Entity {
	if w == nil || !IsAlive(w, e) {
		return nil
	}
	return append([]Entity(nil), w.children[e]...)
}

// Parents returns a snapshot of the entities e is attached under.
func Parents(w *World, e Entity) []Entity {
	if w == nil || !IsAlive(w, e) {
		return nil
	}
	return append([]Entity(nil), w.parents[e]...)
}

// Roots returns live entities that are not attached under anything, in id
// order.
func Roots(w *World) []Entity {
	if w == nil {
		return nil
	}
	var roots []Entity
	for _, e := range w.entities.entities() {
		if len(w.parents[e]) == 0 {
			roots = append(roots, e)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].id() < roots[j].id() })
	return roots
}

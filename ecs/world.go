package ecs

import "github.com/milk9111/prefabricator/ecs/component"

// World owns entities, their components and the attachment edges between
// them. Attachment is a directed graph, not a tree: external edits may attach
// one entity under several parents or close a cycle.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	children map[Entity][]Entity
	parents  map[Entity][]Entity
	events   EventQueue
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		stores:   map[component.ComponentID]*SparseSet{},
		children: map[Entity][]Entity{},
		parents:  map[Entity][]Entity{},
	}
}

// CreateEntity allocates a new entity.
func CreateEntity(w *World) Entity {
	if w == nil {
		return 0
	}
	return w.entities.create()
}

// DestroyEntity removes an entity, its components and every attachment edge
// touching it. It reports false for a nil world or a handle that is already
// dead.
func DestroyEntity(w *World, e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	id := int(e.id())
	for _, store := range w.stores {
		store.Remove(id)
	}
	for _, child := range w.children[e] {
		w.parents[child] = without(w.parents[child], e)
		if len(w.parents[child]) == 0 {
			delete(w.parents, child)
		}
	}
	for _, parent := range w.parents[e] {
		w.children[parent] = without(w.children[parent], e)
		if len(w.children[parent]) == 0 {
			delete(w.children, parent)
		}
	}
	delete(w.children, e)
	delete(w.parents, e)
	w.entities.destroy(e)
	w.events.Push(Event{Type: EventEntityDestroyed, Data: e})
	return true
}

// IsAlive reports whether an entity handle still resolves.
func IsAlive(w *World, e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns every live entity in id order.
func Entities(w *World) []Entity {
	if w == nil {
		return nil
	}
	return w.entities.entities()
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	s, ok := w.stores[id]
	if !ok && create {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}

func (w *World) entityFor(id int) Entity {
	if id <= 0 || id > len(w.entities.gen) {
		return 0
	}
	return makeEntity(entityID(id), w.entities.gen[id-1])
}

func without(list []Entity, e Entity) []Entity {
	out := list[:0]
	for _, v := range list {
		if v != e {
			out = append(out, v)
		}
	}
	return out
}

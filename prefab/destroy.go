package prefab

import "github.com/milk9111/prefabricator/ecs"

// DestroySubtree destroys root and everything transitively attached under
// it, each entity at most once, children before parents. Only entities with
// prefab marker data are descended into; other entities are destroyed but
// what hangs under them is left alone. Dead or already visited entities are
// skipped, which makes cycles and shared children safe. It returns the number
// of entities destroyed.
func DestroySubtree(w *ecs.World, root ecs.Entity) int {
	return destroyRecursive(w, root, map[ecs.Entity]struct{}{})
}

// DestroyAttached destroys everything attached under e but not e itself.
func DestroyAttached(w *ecs.World, e ecs.Entity) int {
	visited := map[ecs.Entity]struct{}{e: {}}
	n := 0
	for _, child := range ecs.AttachedChildren(w, e) {
		n += destroyRecursive(w, child, visited)
	}
	return n
}

func destroyRecursive(w *ecs.World, e ecs.Entity, visited map[ecs.Entity]struct{}) int {
	if !e.Valid() || !ecs.IsAlive(w, e) {
		return 0
	}
	if _, ok := visited[e]; ok {
		return 0
	}
	visited[e] = struct{}{}

	n := 0
	if IsPrefabricated(w, e) {
		for _, child := range ecs.AttachedChildren(w, e) {
			n += destroyRecursive(w, child, visited)
		}
	}
	if ecs.DestroyEntity(w, e) {
		n++
	}
	return n
}

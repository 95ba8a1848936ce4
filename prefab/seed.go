package prefab

import (
	"math/rand/v2"

	"github.com/milk9111/prefabricator/ecs"
)

// AssignSeed draws a new seed for e from r. When recursive, every attached
// prefab node below e is reseeded depth-first in attachment order from the
// same generator, so a fixed generator seed and topology always yield the
// same assignment. A nil r selects an unseeded generator for the whole call.
func AssignSeed(w *ecs.World, e ecs.Entity, r *rand.Rand, recursive bool) {
	if r == nil {
		r = NewUnseededRandom()
	}
	assignSeed(w, e, r, recursive, map[ecs.Entity]struct{}{})
}

func assignSeed(w *ecs.World, e ecs.Entity, r *rand.Rand, recursive bool, visited map[ecs.Entity]struct{}) {
	if _, ok := visited[e]; ok {
		return
	}
	inst, ok := Instance(w, e)
	if !ok || inst.Template == "" {
		return
	}
	visited[e] = struct{}{}

	inst.Seed = RandomSeed(r)
	if !recursive {
		return
	}
	for _, child := range prefabChildren(w, e) {
		assignSeed(w, child, r, recursive, visited)
	}
}

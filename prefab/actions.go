package prefab

import (
	"fmt"
	"math/rand/v2"

	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
)

// LoadPrefab applies e's template synchronously, nested prefabs included,
// then fires e's post-build hook. Nothing is scheduled.
func (b *BuildSystem) LoadPrefab(e ecs.Entity) {
	b.load(e, LoadSettings{Synchronous: true})
}

func (b *BuildSystem) load(e ecs.Entity, settings LoadSettings) {
	if !ecs.IsAlive(b.world, e) {
		return
	}
	if b.templates != nil {
		b.templates.ApplyTemplate(b.world, e, settings)
	}
	b.notifyBuildComplete(e)
}

// SavePrefab writes e's current attached content back into its template.
func (b *BuildSystem) SavePrefab(e ecs.Entity) error {
	if !IsPrefabNode(b.world, e) {
		return fmt.Errorf("prefab: save %v: not a prefab node", e)
	}
	if b.templates == nil {
		return fmt.Errorf("prefab: save %v: no template service", e)
	}
	return b.templates.CaptureTemplate(b.world, e)
}

// IsOutdated reports whether e's template changed since it was last
// applied. A node without a resolvable template is never outdated.
func (b *BuildSystem) IsOutdated(e ecs.Entity) bool {
	inst, ok := Instance(b.world, e)
	if !ok || b.templates == nil {
		return false
	}
	version, ok := b.templates.CurrentVersion(b.world, e)
	if !ok {
		return false
	}
	return version != inst.LastUpdateID
}

// Duplicate copies e as a new random variant. See DuplicateWithSeed.
func (b *BuildSystem) Duplicate(e ecs.Entity) (ecs.Entity, error) {
	return b.duplicate(e, NewUnseededRandom())
}

// DuplicateWithSeed copies the prefab node e, attaches the copy under the
// same parents, gives it and every nested prefab node fresh seeds from a
// generator seeded with seed, and loads it synchronously.
func (b *BuildSystem) DuplicateWithSeed(e ecs.Entity, seed uint64) (ecs.Entity, error) {
	return b.duplicate(e, NewRandom(seed))
}

func (b *BuildSystem) duplicate(e ecs.Entity, r *rand.Rand) (ecs.Entity, error) {
	w := b.world
	inst, ok := Instance(w, e)
	if !ok {
		return 0, fmt.Errorf("prefab: duplicate %v: not a prefab node", e)
	}

	dup := ecs.CreateEntity(w)
	copied := *inst
	copied.LastUpdateID = 0
	if err := ecs.Add(w, dup, component.PrefabInstanceComponent.Kind(), &copied); err != nil {
		ecs.DestroyEntity(w, dup)
		return 0, fmt.Errorf("prefab: duplicate %v: %w", e, err)
	}
	if name, ok := ecs.Get(w, e, component.NameComponent.Kind()); ok {
		n := *name
		if err := ecs.Add(w, dup, component.NameComponent.Kind(), &n); err != nil {
			ecs.DestroyEntity(w, dup)
			return 0, fmt.Errorf("prefab: duplicate %v: %w", e, err)
		}
	}
	if tf, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		t := *tf
		if err := ecs.Add(w, dup, component.TransformComponent.Kind(), &t); err != nil {
			ecs.DestroyEntity(w, dup)
			return 0, fmt.Errorf("prefab: duplicate %v: %w", e, err)
		}
	}
	for _, parent := range ecs.Parents(w, e) {
		if err := ecs.Attach(w, parent, dup); err != nil {
			ecs.DestroyEntity(w, dup)
			return 0, fmt.Errorf("prefab: duplicate %v: %w", e, err)
		}
	}

	AssignSeed(w, dup, r, false)
	b.load(dup, LoadSettings{
		RandomizeNestedSeed: true,
		Random:              r,
		Synchronous:         true,
	})
	return dup, nil
}

// Randomize reseeds e from a generator seeded with seed and schedules an
// incremental rebuild that reseeds every nested prefab node from the same
// generator. Equal seeds rebuild equal variants.
func (b *BuildSystem) Randomize(e ecs.Entity, seed uint64) {
	r := NewRandom(seed)
	AssignSeed(b.world, e, r, false)
	b.Build(e, true, r)
}

// Remove destroys e and its attached subtree. Commands already queued for
// removed nodes do nothing when they run.
func (b *BuildSystem) Remove(e ecs.Entity) int {
	return DestroySubtree(b.world, e)
}

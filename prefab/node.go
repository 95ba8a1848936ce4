package prefab

import (
	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
)

// IsPrefabNode reports whether e is a live prefab node with a template
// reference. Traversal for expansion and reseeding only descends into these.
func IsPrefabNode(w *ecs.World, e ecs.Entity) bool {
	inst, ok := ecs.Get(w, e, component.PrefabInstanceComponent.Kind())
	return ok && inst.Template != ""
}

// IsPrefabricated reports whether e carries prefab marker data, either as a
// prefab node or as an entity spawned by a template.
func IsPrefabricated(w *ecs.World, e ecs.Entity) bool {
	return ecs.Has(w, e, component.PrefabInstanceComponent.Kind()) ||
		ecs.Has(w, e, component.PrefabItemComponent.Kind())
}

// Instance returns the prefab node data of e.
func Instance(w *ecs.World, e ecs.Entity) (*component.PrefabInstance, bool) {
	return ecs.Get(w, e, component.PrefabInstanceComponent.Kind())
}

// NewNode creates a prefab node for template, optionally attached under
// parent.
func NewNode(w *ecs.World, template string, seed int64, parent ecs.Entity) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.PrefabInstanceComponent.Kind(), &component.PrefabInstance{
		Template: template,
		Seed:     seed,
	}); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, err
	}
	if parent.Valid() {
		if err := ecs.Attach(w, parent, e); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, err
		}
	}
	return e, nil
}

func prefabChildren(w *ecs.World, e ecs.Entity) []ecs.Entity {
	var out []ecs.Entity
	for _, child := range ecs.AttachedChildren(w, e) {
		if IsPrefabNode(w, child) {
			out = append(out, child)
		}
	}
	return out
}

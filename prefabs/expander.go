package prefabs

import (
	"fmt"
	"log"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
	"github.com/milk9111/prefabricator/prefab"
)

// maxNestingDepth bounds synchronous expansion.
const maxNestingDepth = 64

// Expander materializes Library templates into a world. It implements
// prefab.TemplateService and prefab.BuildListener.
type Expander struct {
	lib       *Library
	listeners *Listeners
}

var (
	_ prefab.TemplateService = (*Expander)(nil)
	_ prefab.BuildListener   = (*Expander)(nil)
)

// NewExpander returns an expander over lib. listeners may be nil to disable
// post-build scripts.
func NewExpander(lib *Library, listeners *Listeners) *Expander {
	return &Expander{lib: lib, listeners: listeners}
}

func (x *Expander) Library() *Library {
	return x.lib
}

// ApplyTemplate brings e's attached content in line with its template.
// Entities spawned earlier are matched by item id and updated in place,
// missing ones are spawned and ones the template no longer lists are
// destroyed with their subtrees.
func (x *Expander) ApplyTemplate(w *ecs.World, e ecs.Entity, s prefab.LoadSettings) {
	if s.RandomizeNestedSeed && s.Random == nil {
		s.Random = prefab.NewUnseededRandom()
	}
	x.apply(w, e, s, 0)
}

func (x *Expander) apply(w *ecs.World, e ecs.Entity, s prefab.LoadSettings, depth int) {
	inst, ok := prefab.Instance(w, e)
	if !ok || inst.Template == "" {
		return
	}
	asset, err := x.lib.Resolve(inst.Template, inst.Seed)
	if err != nil {
		return
	}

	existing := map[string]ecs.Entity{}
	var stale []ecs.Entity
	for _, child := range ecs.AttachedChildren(w, e) {
		item, ok := ecs.Get(w, child, component.PrefabItemComponent.Kind())
		if !ok {
			continue
		}
		if _, dup := existing[item.ItemID]; dup {
			stale = append(stale, child)
			continue
		}
		existing[item.ItemID] = child
	}

	var nested []ecs.Entity
	for _, spec := range asset.Spec.Children {
		child, ok := existing[spec.ID]
		if ok {
			delete(existing, spec.ID)
		} else {
			spawned, err := spawnItem(w, e, spec.ID)
			if err != nil {
				log.Printf("prefabs: template=%s spawn %s: %v", asset.Name, spec.ID, err)
				continue
			}
			child = spawned
		}
		if err := x.applyItem(w, child, spec, s); err != nil {
			log.Printf("prefabs: template=%s apply %s: %v", asset.Name, spec.ID, err)
			continue
		}
		if spec.Prefab != "" {
			nested = append(nested, child)
		}
	}
	for _, child := range ecs.AttachedChildren(w, e) {
		if item, ok := ecs.Get(w, child, component.PrefabItemComponent.Kind()); ok && existing[item.ItemID] == child {
			stale = append(stale, child)
		}
	}
	for _, child := range stale {
		prefab.DestroySubtree(w, child)
	}

	inst.LastUpdateID = asset.Version

	if !s.Synchronous {
		return
	}
	if depth >= maxNestingDepth {
		return
	}
	for _, child := range nested {
		x.apply(w, child, s, depth+1)
		x.HandleBuildComplete(w, child)
	}
}

// spawnItem creates the entity for item id attached under e.
func spawnItem(w *ecs.World, e ecs.Entity, id string) (ecs.Entity, error) {
	child := ecs.CreateEntity(w)
	if err := ecs.Add(w, child, component.PrefabItemComponent.Kind(), &component.PrefabItem{ItemID: id}); err != nil {
		ecs.DestroyEntity(w, child)
		return 0, err
	}
	if err := ecs.Attach(w, e, child); err != nil {
		ecs.DestroyEntity(w, child)
		return 0, err
	}
	return child, nil
}

func (x *Expander) applyItem(w *ecs.World, child ecs.Entity, spec ItemSpec, s prefab.LoadSettings) error {
	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	if err := ecs.Add(w, child, component.NameComponent.Kind(), &component.Name{Value: name}); err != nil {
		return err
	}
	if err := ecs.Add(w, child, component.TransformComponent.Kind(), &component.Transform{
		Position: cp.Vector{X: spec.Transform.X, Y: spec.Transform.Y},
		Scale:    cp.Vector{X: spec.Transform.ScaleX, Y: spec.Transform.ScaleY},
		Rotation: spec.Transform.Rotation,
	}); err != nil {
		return err
	}

	if spec.Prefab == "" {
		if ecs.Has(w, child, component.PrefabInstanceComponent.Kind()) {
			prefab.DestroyAttached(w, child)
			ecs.Remove(w, child, component.PrefabInstanceComponent.Kind())
		}
		return nil
	}

	inst, ok := prefab.Instance(w, child)
	if !ok {
		inst = &component.PrefabInstance{}
		if err := ecs.Add(w, child, component.PrefabInstanceComponent.Kind(), inst); err != nil {
			return err
		}
	}
	if inst.Template != spec.Prefab {
		inst.Template = spec.Prefab
		inst.LastUpdateID = 0
	}
	if s.RandomizeNestedSeed {
		inst.Seed = prefab.RandomSeed(s.Random)
	}
	return nil
}

// CaptureTemplate writes e's attached content into the template e resolves
// to and stamps e with the new version.
func (x *Expander) CaptureTemplate(w *ecs.World, e ecs.Entity) error {
	inst, ok := prefab.Instance(w, e)
	if !ok || inst.Template == "" {
		return fmt.Errorf("prefabs: capture %v: not a prefab node", e)
	}
	name := inst.Template
	spec := TemplateSpec{Name: name}
	if asset, err := x.lib.Resolve(inst.Template, inst.Seed); err == nil {
		name = asset.Name
		spec.Name = asset.Spec.Name
		spec.Listener = asset.Spec.Listener
	}

	used := map[string]bool{}
	var unnamed []ecs.Entity
	for _, child := range ecs.AttachedChildren(w, e) {
		item, ok := ecs.Get(w, child, component.PrefabItemComponent.Kind())
		if !ok || used[item.ItemID] {
			unnamed = append(unnamed, child)
			continue
		}
		used[item.ItemID] = true
	}
	next := 0
	for _, child := range unnamed {
		id := fmt.Sprintf("item_%d", next)
		for used[id] {
			next++
			id = fmt.Sprintf("item_%d", next)
		}
		used[id] = true
		if err := ecs.Add(w, child, component.PrefabItemComponent.Kind(), &component.PrefabItem{ItemID: id}); err != nil {
			return fmt.Errorf("prefabs: capture %v: %w", e, err)
		}
	}

	for _, child := range ecs.AttachedChildren(w, e) {
		item, _ := ecs.Get(w, child, component.PrefabItemComponent.Kind())
		entry := ItemSpec{ID: item.ItemID}
		if n, ok := ecs.Get(w, child, component.NameComponent.Kind()); ok && n.Value != item.ItemID {
			entry.Name = n.Value
		}
		if tf, ok := ecs.Get(w, child, component.TransformComponent.Kind()); ok {
			entry.Transform = TransformSpec{
				X:        tf.Position.X,
				Y:        tf.Position.Y,
				ScaleX:   tf.Scale.X,
				ScaleY:   tf.Scale.Y,
				Rotation: tf.Rotation,
			}
		}
		if ci, ok := prefab.Instance(w, child); ok {
			entry.Prefab = ci.Template
		}
		spec.Children = append(spec.Children, entry)
	}

	version, err := x.lib.Put(name, spec)
	if err != nil {
		return fmt.Errorf("prefabs: capture %v: %w", e, err)
	}
	inst.LastUpdateID = version
	return nil
}

// CurrentVersion returns the version of the template e resolves to.
func (x *Expander) CurrentVersion(w *ecs.World, e ecs.Entity) (uint64, bool) {
	inst, ok := prefab.Instance(w, e)
	if !ok || inst.Template == "" {
		return 0, false
	}
	asset, err := x.lib.Resolve(inst.Template, inst.Seed)
	if err != nil {
		return 0, false
	}
	return asset.Version, true
}

// HandleBuildComplete runs the listener script of e's template, if any.
func (x *Expander) HandleBuildComplete(w *ecs.World, e ecs.Entity) {
	if x.listeners == nil || !ecs.IsAlive(w, e) {
		return
	}
	inst, ok := prefab.Instance(w, e)
	if !ok || inst.Template == "" {
		return
	}
	asset, err := x.lib.Resolve(inst.Template, inst.Seed)
	if err != nil || asset.Spec.Listener == "" {
		return
	}
	x.listeners.PostSpawn(w, e, asset)
}

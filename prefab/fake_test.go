package prefab

import (
	"time"

	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
)

// fakeTemplates spawns one nested prefab node per entry of tree on first
// application and records what it did.
type fakeTemplates struct {
	tree     map[string][]string
	versions map[string]uint64
	applied  []string
	settings []LoadSettings
}

func newFakeTemplates(tree map[string][]string) *fakeTemplates {
	return &fakeTemplates{tree: tree, versions: map[string]uint64{}}
}

func (f *fakeTemplates) ApplyTemplate(w *ecs.World, e ecs.Entity, s LoadSettings) {
	inst, ok := Instance(w, e)
	if !ok {
		return
	}
	f.applied = append(f.applied, nameOf(w, e))
	f.settings = append(f.settings, s)

	if len(ecs.AttachedChildren(w, e)) == 0 {
		for _, t := range f.tree[inst.Template] {
			child, err := NewNode(w, t, 0, e)
			if err != nil {
				continue
			}
			_ = ecs.Add(w, child, component.NameComponent.Kind(), &component.Name{Value: t})
			_ = ecs.Add(w, child, component.PrefabItemComponent.Kind(), &component.PrefabItem{ItemID: t})
		}
	}
	for _, child := range prefabChildren(w, e) {
		if s.RandomizeNestedSeed {
			childInst, _ := Instance(w, child)
			childInst.Seed = RandomSeed(s.Random)
		}
		if s.Synchronous {
			f.ApplyTemplate(w, child, s)
		}
	}
	inst.LastUpdateID = f.versions[inst.Template]
}

func (f *fakeTemplates) CaptureTemplate(w *ecs.World, e ecs.Entity) error {
	inst, ok := Instance(w, e)
	if !ok {
		return nil
	}
	var children []string
	for _, child := range prefabChildren(w, e) {
		c, _ := Instance(w, child)
		children = append(children, c.Template)
	}
	f.tree[inst.Template] = children
	f.versions[inst.Template]++
	inst.LastUpdateID = f.versions[inst.Template]
	return nil
}

func (f *fakeTemplates) CurrentVersion(w *ecs.World, e ecs.Entity) (uint64, bool) {
	inst, ok := Instance(w, e)
	if !ok {
		return 0, false
	}
	if _, ok := f.tree[inst.Template]; !ok {
		return 0, false
	}
	return f.versions[inst.Template], true
}

type recorder struct {
	names []string
}

func (r *recorder) HandleBuildComplete(w *ecs.World, e ecs.Entity) {
	r.names = append(r.names, nameOf(w, e))
}

// stepClock advances by step on every reading.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func nameOf(w *ecs.World, e ecs.Entity) string {
	if n, ok := ecs.Get(w, e, component.NameComponent.Kind()); ok {
		return n.Value
	}
	return e.String()
}

func newRoot(w *ecs.World, template string) ecs.Entity {
	e, err := NewNode(w, template, 0, 0)
	if err != nil {
		panic(err)
	}
	_ = ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: template})
	return e
}

// scenarioTree is A{B{D}, C}.
func scenarioTree() map[string][]string {
	return map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {},
		"D": {},
	}
}

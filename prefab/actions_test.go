package prefab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
)

func TestLoadPrefabSynchronous(t *testing.T) {
	w := ecs.NewWorld()
	templates := newFakeTemplates(scenarioTree())
	rec := &recorder{}
	b := NewBuildSystem(w, templates, rec)

	root := newRoot(w, "A")
	b.LoadPrefab(root)

	if b.Pending() != 0 {
		t.Fatalf("synchronous load must not schedule, %d pending", b.Pending())
	}
	if len(templates.settings) == 0 || !templates.settings[0].Synchronous {
		t.Fatalf("expected a synchronous apply, got %+v", templates.settings)
	}
	if diff := cmp.Diff([]string{"A", "B", "D", "C"}, templates.applied); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A"}, rec.names); diff != "" {
		t.Fatalf("notified mismatch (-want +got):\n%s", diff)
	}
}

func TestIsOutdated(t *testing.T) {
	w := ecs.NewWorld()
	templates := newFakeTemplates(scenarioTree())
	b := NewBuildSystem(w, templates, nil)

	root := newRoot(w, "A")
	templates.versions["A"] = 3
	if !b.IsOutdated(root) {
		t.Fatalf("never applied node should be outdated")
	}
	b.LoadPrefab(root)
	if b.IsOutdated(root) {
		t.Fatalf("freshly loaded node should be up to date")
	}
	templates.versions["A"] = 4
	if !b.IsOutdated(root) {
		t.Fatalf("version bump should make the node outdated")
	}

	unknown := newRoot(w, "missing")
	if b.IsOutdated(unknown) {
		t.Fatalf("node without a template is never outdated")
	}
	if b.IsOutdated(ecs.CreateEntity(w)) {
		t.Fatalf("plain entity is never outdated")
	}
}

func TestSavePrefab(t *testing.T) {
	w := ecs.NewWorld()
	templates := newFakeTemplates(scenarioTree())
	b := NewBuildSystem(w, templates, nil)

	root := newRoot(w, "A")
	b.LoadPrefab(root)
	if _, err := NewNode(w, "D", 0, root); err != nil {
		t.Fatal(err)
	}
	if err := b.SavePrefab(root); err != nil {
		t.Fatalf("save: %v", err)
	}
	if diff := cmp.Diff([]string{"B", "C", "D"}, templates.tree["A"]); diff != "" {
		t.Fatalf("captured template mismatch (-want +got):\n%s", diff)
	}
	if b.IsOutdated(root) {
		t.Fatalf("saving must leave the node up to date")
	}
	if err := b.SavePrefab(ecs.CreateEntity(w)); err == nil {
		t.Fatalf("expected error saving a plain entity")
	}
}

func TestDuplicateWithSeed(t *testing.T) {
	dup := func() (*ecs.World, ecs.Entity, ecs.Entity, *fakeTemplates) {
		w := ecs.NewWorld()
		templates := newFakeTemplates(scenarioTree())
		b := NewBuildSystem(w, templates, nil)
		parent := ecs.CreateEntity(w)
		root := newRoot(w, "A")
		mustAttach(t, w, parent, root)
		b.LoadPrefab(root)

		copyOf, err := b.DuplicateWithSeed(root, 99)
		if err != nil {
			t.Fatalf("duplicate: %v", err)
		}
		return w, parent, copyOf, templates
	}

	w1, parent, d1, templates := dup()
	w2, _, d2, _ := dup()

	if got := ecs.Parents(w1, d1); len(got) != 1 || got[0] != parent {
		t.Fatalf("duplicate should share the source parents, got %v", got)
	}
	if name, ok := ecs.Get(w1, d1, component.NameComponent.Kind()); !ok || name.Value != "A" {
		t.Fatalf("duplicate should copy the name, got %v", name)
	}
	last := templates.settings[len(templates.settings)-1]
	if !last.Synchronous || !last.RandomizeNestedSeed || last.Random == nil {
		t.Fatalf("duplicate must load synchronously with nested randomization, got %+v", last)
	}

	collect := func(w *ecs.World, root ecs.Entity) []int64 {
		var out []int64
		var walk func(e ecs.Entity)
		walk = func(e ecs.Entity) {
			inst, _ := Instance(w, e)
			out = append(out, inst.Seed)
			for _, c := range prefabChildren(w, e) {
				walk(c)
			}
		}
		walk(root)
		return out
	}
	s1, s2 := collect(w1, d1), collect(w2, d2)
	if len(s1) != 4 {
		t.Fatalf("expected 4 nodes in the duplicate, got %v", s1)
	}
	if diff := cmp.Diff(s1, s2); diff != "" {
		t.Fatalf("same duplicate seed should give the same variant (-first +second):\n%s", diff)
	}

	plain := ecs.CreateEntity(w1)
	before := len(ecs.Entities(w1))
	if _, err := NewBuildSystem(w1, templates, nil).Duplicate(plain); err == nil {
		t.Fatalf("expected error duplicating a plain entity")
	}
	if after := len(ecs.Entities(w1)); after != before {
		t.Fatalf("failed duplicate must not leave entities behind: %d -> %d", before, after)
	}
}

func TestRandomizeReproducible(t *testing.T) {
	run := func(seed uint64) map[string]int64 {
		w := ecs.NewWorld()
		b := NewBuildSystem(w, newFakeTemplates(scenarioTree()), nil)
		root := newRoot(w, "A")
		b.Randomize(root, seed)
		b.Tick()

		out := map[string]int64{}
		var walk func(e ecs.Entity)
		walk = func(e ecs.Entity) {
			inst, _ := Instance(w, e)
			out[nameOf(w, e)] = inst.Seed
			for _, c := range prefabChildren(w, e) {
				walk(c)
			}
		}
		walk(root)
		return out
	}

	first, second := run(2024), run(2024)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("randomize not reproducible (-first +second):\n%s", diff)
	}
	if len(first) != 4 {
		t.Fatalf("expected all four nodes, got %v", first)
	}
}

func TestRemoveCancelsQueuedWork(t *testing.T) {
	w := ecs.NewWorld()
	templates := newFakeTemplates(scenarioTree())
	rec := &recorder{}
	b := NewBuildSystem(w, templates, rec)

	root := newRoot(w, "A")
	b.LoadPrefab(root)
	rec.names = nil
	templates.applied = nil

	b.Build(root, false, nil)
	if n := b.Remove(root); n != 4 {
		t.Fatalf("expected 4 entities destroyed, got %d", n)
	}
	b.Tick()
	if len(templates.applied) != 0 || len(rec.names) != 0 {
		t.Fatalf("queued work for removed nodes must be a no-op: %v %v", templates.applied, rec.names)
	}
}

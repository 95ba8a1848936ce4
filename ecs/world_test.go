package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/prefabricator/ecs/component"
)

func TestWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex >= 0 {
				if !DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if IsAlive(w, ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return false for a dead entity")
				}
				if len(Entities(w)) != c.create-1 {
					t.Fatalf("expected %d entities after destroy, got %d", c.create-1, len(Entities(w)))
				}
			}
		})
	}
}

func TestStaleHandleAfterReuse(t *testing.T) {
	w := NewWorld()
	kind := component.NewComponentKind[int]()

	old := CreateEntity(w)
	if err := Add(w, old, kind, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	DestroyEntity(w, old)

	reused := CreateEntity(w)
	if reused.id() != old.id() {
		t.Fatalf("expected id reuse, got %v then %v", old, reused)
	}
	if reused == old {
		t.Fatalf("reused handle must differ by generation")
	}
	if IsAlive(w, old) {
		t.Fatalf("stale handle must not resolve")
	}
	if Has(w, reused, kind) {
		t.Fatalf("components must not leak into a reused id")
	}
	if err := Add(w, old, kind, intPtr(2)); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive for stale handle, got %v", err)
	}
	if old.String() != "1v1" || reused.String() != "1v2" {
		t.Fatalf("expected slot 1 at generations 1 and 2, got %s and %s", old, reused)
	}
	var zero Entity
	if zero.Valid() || IsAlive(w, zero) {
		t.Fatalf("zero entity must never resolve")
	}
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func TestWorldComponents(t *testing.T) {
	w := NewWorld()

	h1 := component.NewComponent[int]()
	h2 := component.NewComponent[string]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "add_int_to_e1",
			setup: func() error { return Add(w, e1, h1.Kind(), intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, h1.Kind())
				if !ok || *v != 10 {
					t.Fatalf("expected 10, got %v ok=%v", v, ok)
				}
			},
			teardown: func() bool { return Remove(w, e1, h1.Kind()) },
		},
		{
			name: "add_str_to_e1_and_e2",
			setup: func() error {
				if err := Add(w, e1, h2.Kind(), stringPtr("a")); err != nil {
					return err
				}
				return Add(w, e2, h2.Kind(), stringPtr("b"))
			},
			check: func(t *testing.T) {
				if !Has(w, e1, h2.Kind()) || !Has(w, e2, h2.Kind()) {
					t.Fatalf("expected both entities to have string component")
				}
			},
			teardown: func() bool { return Remove(w, e1, h2.Kind()) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.setup(); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			tc.check(t)
			if !tc.teardown() {
				t.Fatalf("teardown failed for %s", tc.name)
			}
		})
	}

	t.Run("rejects_bad_input", func(t *testing.T) {
		if err := Add(w, e1, h1.Kind(), nil); !errors.Is(err, component.ErrNilComponent) {
			t.Fatalf("expected ErrNilComponent, got %v", err)
		}
		var zero component.ComponentKind[int]
		if err := Add(w, e1, zero, intPtr(1)); !errors.Is(err, component.ErrInvalidComponentKind) {
			t.Fatalf("expected ErrInvalidComponentKind, got %v", err)
		}
	})
}

func TestForEach(t *testing.T) {
	w := NewWorld()
	ka := component.NewComponentKind[int]()
	kb := component.NewComponentKind[string]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)
	e3 := CreateEntity(w)

	for _, e := range []Entity{e1, e3} {
		if err := Add(w, e, ka, intPtr(1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := Add(w, e3, kb, stringPtr("x")); err != nil {
		t.Fatal(err)
	}
	if err := Add(w, e2, kb, stringPtr("y")); err != nil {
		t.Fatal(err)
	}

	t.Run("single", func(t *testing.T) {
		set := map[Entity]bool{}
		ForEach(w, ka, func(e Entity, _ *int) { set[e] = true })
		if !set[e1] || !set[e3] || set[e2] {
			t.Fatalf("unexpected ForEach result %v", set)
		}
	})

	t.Run("intersection", func(t *testing.T) {
		var res []Entity
		ForEach2(w, ka, kb, func(e Entity, _ *int, _ *string) { res = append(res, e) })
		if len(res) != 1 || res[0] != e3 {
			t.Fatalf("expected only e3, got %v", res)
		}
	})

	t.Run("ignores_dead_entities", func(t *testing.T) {
		DestroyEntity(w, e3)
		var res []Entity
		ForEach2(w, ka, kb, func(e Entity, _ *int, _ *string) { res = append(res, e) })
		if len(res) != 0 {
			t.Fatalf("expected empty result after destroy, got %v", res)
		}
	})

	t.Run("missing_store", func(t *testing.T) {
		kc := component.NewComponentKind[float64]()
		called := false
		ForEach(w, kc, func(Entity, *float64) { called = true })
		if called {
			t.Fatalf("expected no calls for an unused kind")
		}
	})
}

func TestComponentKindString(t *testing.T) {
	if got := component.NameComponent.Kind().String(); got != "component.Name" {
		t.Fatalf("unexpected kind name %q", got)
	}
	var zero component.ComponentKind[int]
	if got := zero.String(); got != "<invalid>" {
		t.Fatalf("unexpected zero kind name %q", got)
	}
}

package ecs

import "testing"

func TestAttach(t *testing.T) {
	t.Run("order_and_dedup", func(t *testing.T) {
		w := NewWorld()
		p, a, b := CreateEntity(w), CreateEntity(w), CreateEntity(w)
		for _, c := range []Entity{a, b, a} {
			if err := Attach(w, p, c); err != nil {
				t.Fatal(err)
			}
		}
		got := AttachedChildren(w, p)
		if len(got) != 2 || got[0] != a || got[1] != b {
			t.Fatalf("expected [a b], got %v", got)
		}
		if ps := Parents(w, a); len(ps) != 1 || ps[0] != p {
			t.Fatalf("expected parent p, got %v", ps)
		}
	})

	t.Run("shared_child_and_cycle", func(t *testing.T) {
		w := NewWorld()
		x, y, z := CreateEntity(w), CreateEntity(w), CreateEntity(w)
		for _, edge := range [][2]Entity{{x, y}, {y, x}, {z, y}} {
			if err := Attach(w, edge[0], edge[1]); err != nil {
				t.Fatal(err)
			}
		}
		if len(Parents(w, y)) != 2 {
			t.Fatalf("expected y under two parents, got %v", Parents(w, y))
		}
		roots := Roots(w)
		if len(roots) != 1 || roots[0] != z {
			t.Fatalf("expected only z as root, got %v", roots)
		}
	})

	t.Run("destroy_removes_edges", func(t *testing.T) {
		w := NewWorld()
		p, c, g := CreateEntity(w), CreateEntity(w), CreateEntity(w)
		_ = Attach(w, p, c)
		_ = Attach(w, c, g)
		DestroyEntity(w, c)
		if len(AttachedChildren(w, p)) != 0 {
			t.Fatalf("parent should lose the destroyed child")
		}
		if len(Parents(w, g)) != 0 {
			t.Fatalf("grandchild should be detached, got %v", Parents(w, g))
		}
		if AttachedChildren(w, c) != nil {
			t.Fatalf("dead entity has no children")
		}
	})

	t.Run("detach", func(t *testing.T) {
		w := NewWorld()
		p, c := CreateEntity(w), CreateEntity(w)
		_ = Attach(w, p, c)
		if !Detach(w, p, c) {
			t.Fatalf("expected detach to succeed")
		}
		if Detach(w, p, c) {
			t.Fatalf("second detach should report false")
		}
	})

	t.Run("dead_endpoint", func(t *testing.T) {
		w := NewWorld()
		p, c := CreateEntity(w), CreateEntity(w)
		DestroyEntity(w, c)
		if err := Attach(w, p, c); err == nil {
			t.Fatalf("expected error attaching a dead entity")
		}
	})

	t.Run("snapshot_is_a_copy", func(t *testing.T) {
		w := NewWorld()
		p, a := CreateEntity(w), CreateEntity(w)
		_ = Attach(w, p, a)
		got := AttachedChildren(w, p)
		got[0] = 0
		if AttachedChildren(w, p)[0] != a {
			t.Fatalf("mutating the snapshot must not touch the world")
		}
	})
}

func TestEventQueueDrain(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	DestroyEntity(w, e)
	if w.Events().Len() != 1 {
		t.Fatalf("expected one destroy event")
	}
	evts := w.Events().Drain()
	if evts[0].Type != EventEntityDestroyed || evts[0].Data.(Entity) != e {
		t.Fatalf("unexpected event %+v", evts[0])
	}
	if w.Events().Drain() != nil {
		t.Fatalf("queue should be empty after drain")
	}
}

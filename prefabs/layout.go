package prefabs

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
)

// Walk visits root and everything attached below it depth-first in
// attachment order. Each entity is visited once even when attached in
// several places.
func Walk(w *ecs.World, root ecs.Entity, fn func(e ecs.Entity, depth int)) {
	visited := map[ecs.Entity]struct{}{}
	var walk func(e ecs.Entity, depth int)
	walk = func(e ecs.Entity, depth int) {
		if !ecs.IsAlive(w, e) {
			return
		}
		if _, seen := visited[e]; seen {
			return
		}
		visited[e] = struct{}{}
		fn(e, depth)
		for _, child := range ecs.AttachedChildren(w, e) {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
}

// WorldTransform composes e's transform with those of its first parent
// chain. Scale and rotation are accumulated componentwise.
func WorldTransform(w *ecs.World, e ecs.Entity) component.Transform {
	out := component.Transform{Scale: cp.Vector{X: 1, Y: 1}}
	visited := map[ecs.Entity]struct{}{}
	for ecs.IsAlive(w, e) {
		if _, seen := visited[e]; seen {
			break
		}
		visited[e] = struct{}{}
		if tf, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			scale := tf.Scale
			if scale.X == 0 && scale.Y == 0 {
				scale = cp.Vector{X: 1, Y: 1}
			}
			out.Position = tf.Apply(out.Position)
			out.Scale = cp.Vector{X: out.Scale.X * scale.X, Y: out.Scale.Y * scale.Y}
			out.Rotation += tf.Rotation
		}
		parents := ecs.Parents(w, e)
		if len(parents) == 0 {
			break
		}
		e = parents[0]
	}
	return out
}

package component

import "github.com/jakecoffman/cp"

// Transform is an entity's placement relative to the entity it is attached
// under.
type Transform struct {
	Position cp.Vector
	Scale    cp.Vector
	Rotation float64
}

// Apply maps a point from this transform's local space into its parent's.
func (t Transform) Apply(local cp.Vector) cp.Vector {
	scale := t.Scale
	if scale.X == 0 && scale.Y == 0 {
		scale = cp.Vector{X: 1, Y: 1}
	}
	scaled := cp.Vector{X: local.X * scale.X, Y: local.Y * scale.Y}
	return t.Position.Add(scaled.Rotate(cp.ForAngle(t.Rotation)))
}

var TransformComponent = NewComponent[Transform]()

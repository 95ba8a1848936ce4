package prefab

import (
	"math/rand/v2"

	"github.com/milk9111/prefabricator/ecs"
)

// LoadSettings controls one template application.
type LoadSettings struct {
	// RandomizeNestedSeed gives nested prefab nodes fresh seeds drawn from
	// Random.
	RandomizeNestedSeed bool
	// Random is shared by every node of a build pass. Nil means an
	// unseeded generator.
	Random *rand.Rand
	// Synchronous expands nested prefab nodes inside the call. When false
	// only the node's own content is applied and nested nodes are left to
	// the caller.
	Synchronous bool
}

// TemplateService materializes templates into the world.
type TemplateService interface {
	// ApplyTemplate applies e's template to e. When it returns, e's attached
	// children reflect the template. A node without a resolvable template is
	// left untouched.
	ApplyTemplate(w *ecs.World, e ecs.Entity, settings LoadSettings)
	// CaptureTemplate saves e's current attached content back into its
	// template.
	CaptureTemplate(w *ecs.World, e ecs.Entity) error
	// CurrentVersion returns the version of the template e resolves to.
	CurrentVersion(w *ecs.World, e ecs.Entity) (uint64, bool)
}

// BuildListener is told when a node and its whole subtree finished
// building.
type BuildListener interface {
	HandleBuildComplete(w *ecs.World, e ecs.Entity)
}

// BuildListenerFunc adapts a function to BuildListener.
type BuildListenerFunc func(w *ecs.World, e ecs.Entity)

func (f BuildListenerFunc) HandleBuildComplete(w *ecs.World, e ecs.Entity) {
	f(w, e)
}

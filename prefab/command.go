package prefab

import (
	"math/rand/v2"

	"github.com/milk9111/prefabricator/ecs"
)

// Command is one unit of build work. Commands hold entity handles only, so
// a target destroyed after scheduling turns its command into a no-op.
type Command interface {
	Execute(b *BuildSystem)
}

// ExpandCommand applies a node's template and schedules its nested prefab
// nodes. Commands of one pass share a visited set, so a node reached twice
// through a cycle or a shared attachment is expanded once.
type ExpandCommand struct {
	Target              ecs.Entity
	RandomizeNestedSeed bool
	Random              *rand.Rand

	visited map[ecs.Entity]struct{}
}

func (c *ExpandCommand) Execute(b *BuildSystem) {
	w := b.world
	if c.visited == nil {
		c.visited = map[ecs.Entity]struct{}{}
	}
	if _, seen := c.visited[c.Target]; seen {
		return
	}
	c.visited[c.Target] = struct{}{}

	if ecs.IsAlive(w, c.Target) {
		if b.templates != nil {
			b.templates.ApplyTemplate(w, c.Target, LoadSettings{
				RandomizeNestedSeed: c.RandomizeNestedSeed,
				Random:              c.Random,
				// nested prefabs are expanded through the stack, spread over ticks
				Synchronous: false,
			})
		}
		// pushed before the children so it runs after all of them
		b.PushCommand(&NotifyBuildCompleteCommand{Target: c.Target})
	}

	// reversed so the first attached child is popped, and expanded, first
	children := prefabChildren(w, c.Target)
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		if _, seen := c.visited[child]; seen {
			continue
		}
		b.PushCommand(&ExpandCommand{
			Target:              child,
			RandomizeNestedSeed: c.RandomizeNestedSeed,
			Random:              c.Random,
			visited:             c.visited,
		})
	}
}

// NotifyBuildCompleteCommand fires the post-build hook of a node.
type NotifyBuildCompleteCommand struct {
	Target ecs.Entity
}

func (c *NotifyBuildCompleteCommand) Execute(b *BuildSystem) {
	b.notifyBuildComplete(c.Target)
}

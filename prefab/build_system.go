// Package prefab builds and tears down prefab hierarchies.
//
// A BuildSystem expands a hierarchy incrementally: it keeps a LIFO stack of
// commands and drains it for at most a fixed wall-clock budget per Tick, so a
// deep nested build is spread across frames. Expansion runs top-down and
// completion notifications run bottom-up: a node is told its build finished
// only after its whole subtree has.
package prefab

import (
	"math/rand/v2"
	"time"

	"github.com/milk9111/prefabricator/ecs"
)

// EventBuildComplete is pushed on the world event queue, with the node as
// Data, when a node's build completes.
const EventBuildComplete = "prefab_build_complete"

// State is the observable scheduler state.
type State int

const (
	Idle State = iota
	Building
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	default:
		return "unknown"
	}
}

// Clock is the time source for budget accounting. Values must carry a
// monotonic reading.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// BuildSystem is a time-sliced build scheduler. It is not safe for
// concurrent use; Tick runs on the host's frame loop.
type BuildSystem struct {
	world     *ecs.World
	templates TemplateService
	listener  BuildListener

	timePerFrame time.Duration
	clock        Clock

	stack []Command
}

type Option func(*BuildSystem)

// WithTimePerFrame sets the per-Tick budget. Zero drains the whole stack in
// one Tick.
func WithTimePerFrame(d time.Duration) Option {
	return func(b *BuildSystem) {
		if d < 0 {
			d = 0
		}
		b.timePerFrame = d
	}
}

func WithClock(c Clock) Option {
	return func(b *BuildSystem) {
		if c != nil {
			b.clock = c
		}
	}
}

// NewBuildSystem returns an idle build system for w. listener may be nil.
func NewBuildSystem(w *ecs.World, templates TemplateService, listener BuildListener, opts ...Option) *BuildSystem {
	b := &BuildSystem{
		world:     w,
		templates: templates,
		listener:  listener,
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// World returns the world this system builds into.
func (b *BuildSystem) World() *ecs.World {
	return b.world
}

func (b *BuildSystem) TimePerFrame() time.Duration {
	return b.timePerFrame
}

// Tick pops and executes commands until the stack is empty or, with a
// positive budget, the time spent in this call reaches it. The check runs
// after each command, so a non-empty stack always makes progress. Remaining
// commands wait for the next Tick.
func (b *BuildSystem) Tick() {
	start := b.clock.Now()
	for len(b.stack) > 0 {
		last := len(b.stack) - 1
		cmd := b.stack[last]
		b.stack[last] = nil
		b.stack = b.stack[:last]

		cmd.Execute(b)

		if b.timePerFrame > 0 && b.clock.Now().Sub(start) >= b.timePerFrame {
			break
		}
	}
}

// Update lets the host's ecs.Scheduler drive the build system once per
// frame.
func (b *BuildSystem) Update(w *ecs.World) {
	b.Tick()
}

// PushCommand puts cmd on top of the stack.
func (b *BuildSystem) PushCommand(cmd Command) {
	if cmd == nil {
		return
	}
	b.stack = append(b.stack, cmd)
}

// Reset drops every pending command without running it.
func (b *BuildSystem) Reset() {
	clear(b.stack)
	b.stack = b.stack[:0]
}

func (b *BuildSystem) State() State {
	if len(b.stack) == 0 {
		return Idle
	}
	return Building
}

// Pending returns the number of queued commands.
func (b *BuildSystem) Pending() int {
	return len(b.stack)
}

// Build schedules an incremental build pass rooted at e. All nodes of the
// pass draw from r when randomizeNestedSeed is set, and each node is
// expanded at most once per pass.
func (b *BuildSystem) Build(e ecs.Entity, randomizeNestedSeed bool, r *rand.Rand) {
	b.PushCommand(&ExpandCommand{
		Target:              e,
		RandomizeNestedSeed: randomizeNestedSeed,
		Random:              r,
		visited:             map[ecs.Entity]struct{}{},
	})
}

func (b *BuildSystem) notifyBuildComplete(e ecs.Entity) {
	if !ecs.IsAlive(b.world, e) {
		return
	}
	if b.listener != nil {
		b.listener.HandleBuildComplete(b.world, e)
	}
	b.world.Events().Push(ecs.Event{Type: EventBuildComplete, Data: e})
}

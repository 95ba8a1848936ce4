package main

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
	"github.com/milk9111/prefabricator/prefab"
	"github.com/milk9111/prefabricator/prefabs"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
)

const (
	screenWidth  = 960
	screenHeight = 640
	nodeSize     = 14.0
	cloneSpacing = 320.0
)

type viewer struct {
	cfg       prefabs.Config
	lib       *prefabs.Library
	listeners *prefabs.Listeners
	world     *ecs.World
	builds    *prefab.BuildSystem
	scheduler *ecs.Scheduler
	root      ecs.Entity
	watcher   *prefabs.Watcher

	ui        *ebitenui.UI
	status    *widget.Text
	clipboard bool

	seed      uint64
	clones    int
	completed int
	message   string
}

func newViewer(cfg prefabs.Config) (*viewer, error) {
	lib := prefabs.NewLibrary(prefabs.Source{Dir: cfg.TemplatesDir})
	if err := lib.LoadAll(); err != nil {
		return nil, err
	}
	var listeners *prefabs.Listeners
	if cfg.Listeners {
		listeners = prefabs.NewListeners(lib.Source())
	}
	expander := prefabs.NewExpander(lib, listeners)

	w := ecs.NewWorld()
	builds := prefab.NewBuildSystem(w, expander, expander, prefab.WithTimePerFrame(cfg.TimePerFrame))
	root, err := prefab.NewNode(w, cfg.Root, 0, 0)
	if err != nil {
		return nil, err
	}
	if err := ecs.Add(w, root, component.TransformComponent.Kind(), &component.Transform{
		Position: cp.Vector{X: screenWidth / 2, Y: screenHeight / 2},
	}); err != nil {
		return nil, err
	}

	v := &viewer{
		cfg:       cfg,
		lib:       lib,
		listeners: listeners,
		world:     w,
		builds:    builds,
		scheduler: ecs.NewScheduler(builds),
		root:      root,
		seed:      cfg.Seed,
	}
	if cfg.Watch && cfg.TemplatesDir != "" {
		dirs := []string{cfg.TemplatesDir}
		if scripts := filepath.Join(cfg.TemplatesDir, "scripts"); isDir(scripts) {
			dirs = append(dirs, scripts)
		}
		watcher, err := prefabs.NewWatcher(dirs...)
		if err != nil {
			return nil, err
		}
		v.watcher = watcher
	}
	v.ui, v.status = newControlPanel(v)
	v.randomize()
	return v, nil
}

func (v *viewer) Close() {
	if v.watcher != nil {
		_ = v.watcher.Close()
	}
}

func (v *viewer) rebuild() {
	v.completed = 0
	v.builds.Build(v.root, false, nil)
}

func (v *viewer) randomize() {
	v.seed++
	v.completed = 0
	v.builds.Randomize(v.root, v.seed)
}

// duplicate clones the root as a new variant placed to its right.
func (v *viewer) duplicate() {
	clone, err := v.builds.Duplicate(v.root)
	if err != nil {
		v.message = err.Error()
		return
	}
	v.clones++
	if tf, ok := ecs.Get(v.world, clone, component.TransformComponent.Kind()); ok {
		tf.Position.X += float64(v.clones) * cloneSpacing
	}
	v.message = fmt.Sprintf("cloned %v", clone)
}

// clear removes every root but the original.
func (v *viewer) clear() {
	removed := 0
	for _, e := range ecs.Roots(v.world) {
		if e != v.root {
			removed += v.builds.Remove(e)
		}
	}
	v.clones = 0
	v.message = fmt.Sprintf("removed %d entities", removed)
}

func (v *viewer) cancel() {
	v.message = fmt.Sprintf("cancelled %d commands", v.builds.Pending())
	v.builds.Reset()
}

func (v *viewer) save() {
	if err := v.builds.SavePrefab(v.root); err != nil {
		v.message = err.Error()
		log.Printf("prefabview: %v", err)
		return
	}
	v.message = "saved " + v.cfg.Root
}

func (v *viewer) copyTemplate() {
	inst, ok := prefab.Instance(v.world, v.root)
	if !ok {
		return
	}
	data, err := v.lib.Marshal(inst.Template)
	if err != nil {
		v.message = err.Error()
		return
	}
	if !v.clipboard {
		v.message = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	v.message = fmt.Sprintf("copied %s (%d bytes)", inst.Template, len(data))
}

func (v *viewer) pollWatcher() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-v.watcher.Events:
			if !ok {
				v.watcher = nil
				return
			}
			changed, err := prefabs.Apply(v.lib, v.listeners, change)
			if err != nil {
				v.message = err.Error()
				continue
			}
			if changed || change.Template == "" {
				v.message = "reloaded " + filepath.Base(change.Path)
				v.rebuild()
			}
		case err, ok := <-v.watcher.Errors:
			if ok {
				log.Printf("prefabview: watch error: %v", err)
			}
		default:
			return
		}
	}
}

func (v *viewer) Update() error {
	v.pollWatcher()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.rebuild()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		v.randomize()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		v.cancel()
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		v.duplicate()
	}

	v.scheduler.Update(v.world)
	for _, evt := range v.world.Events().Drain() {
		if evt.Type == prefab.EventBuildComplete {
			v.completed++
		}
	}

	v.status.Label = v.statusLine()
	v.ui.Update()
	return nil
}

func (v *viewer) statusLine() string {
	line := fmt.Sprintf("%s  seed %d  %s  pending %d  built %d", v.cfg.Root, v.seed, v.builds.State(), v.builds.Pending(), v.completed)
	if v.message != "" {
		line += "  | " + v.message
	}
	return line
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0x1b, G: 0x1d, B: 0x22, A: 0xff})

	for _, root := range ecs.Roots(v.world) {
		v.drawTree(screen, root)
	}
	ecs.ForEach(v.world, component.PrefabInstanceComponent.Kind(), func(e ecs.Entity, _ *component.PrefabInstance) {
		if !v.builds.IsOutdated(e) {
			return
		}
		p := prefabs.WorldTransform(v.world, e).Position
		ebitenutil.DebugPrintAt(screen, "*", int(p.X)-3, int(p.Y)-20)
	})

	v.ui.Draw(screen)
}

func (v *viewer) drawTree(screen *ebiten.Image, root ecs.Entity) {
	prefabs.Walk(v.world, root, func(e ecs.Entity, depth int) {
		tf := prefabs.WorldTransform(v.world, e)
		x, y := float32(tf.Position.X), float32(tf.Position.Y)

		for _, child := range ecs.AttachedChildren(v.world, e) {
			c := prefabs.WorldTransform(v.world, child).Position
			vector.StrokeLine(screen, x, y, float32(c.X), float32(c.Y), 1, colornames.Dimgray, true)
		}

		w := float32(nodeSize * tf.Scale.X)
		h := float32(nodeSize * tf.Scale.Y)
		if prefab.IsPrefabNode(v.world, e) {
			vector.StrokeRect(screen, x-w/2, y-h/2, w, h, 2, colornames.Gold, false)
		} else {
			vector.FillRect(screen, x-w/2, y-h/2, w, h, colornames.Lightsteelblue, false)
		}
		if n, ok := ecs.Get(v.world, e, component.NameComponent.Kind()); ok && depth <= 2 {
			ebitenutil.DebugPrintAt(screen, n.Value, int(x+w/2)+2, int(y-h/2))
		}
	})
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

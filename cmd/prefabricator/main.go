package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
	"github.com/milk9111/prefabricator/prefab"
	"github.com/milk9111/prefabricator/prefabs"
)

const frameInterval = time.Second / 60

func main() {
	configPath := flag.String("config", "", "YAML config file")
	dir := flag.String("dir", "", "template directory overriding the embedded templates")
	template := flag.String("template", "", "template to instantiate (default from config)")
	seed := flag.Uint64("seed", 0, "build seed; 0 picks a fresh one")
	budget := flag.Duration("budget", 0, "build time per frame; 0 builds within one frame")
	randomize := flag.Bool("randomize", true, "reseed nested prefabs during the build")
	watch := flag.Bool("watch", false, "rebuild when templates change under -dir")
	save := flag.Bool("save", false, "write the built root back into its template")
	flag.Parse()

	cfg, err := prefabs.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.TemplatesDir = *dir
		case "template":
			cfg.Root = *template
		case "seed":
			cfg.Seed = *seed
		case "budget":
			cfg.TimePerFrame = *budget
		case "watch":
			cfg.Watch = *watch
		}
	})

	app, err := newApp(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app.build(ctx, *randomize)
	app.print(os.Stdout)

	if *save {
		if err := app.builds.SavePrefab(app.root); err != nil {
			log.Fatal(err)
		}
	}

	if cfg.Watch {
		if err := app.watch(ctx); err != nil {
			log.Fatal(err)
		}
	}
}

type app struct {
	cfg       prefabs.Config
	lib       *prefabs.Library
	listeners *prefabs.Listeners
	world     *ecs.World
	builds    *prefab.BuildSystem
	scheduler *ecs.Scheduler
	root      ecs.Entity
	completed []ecs.Entity
	frames    int
}

func newApp(cfg prefabs.Config) (*app, error) {
	lib := prefabs.NewLibrary(prefabs.Source{Dir: cfg.TemplatesDir})
	if err := lib.LoadAll(); err != nil {
		return nil, err
	}
	if _, ok := lib.Get(cfg.Root); !ok {
		return nil, fmt.Errorf("prefabricator: unknown template %q (have %s)", cfg.Root, strings.Join(lib.Names(), ", "))
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
	return &app{
		cfg:       cfg,
		lib:       lib,
		listeners: listeners,
		world:     w,
		builds:    builds,
		scheduler: ecs.NewScheduler(builds),
		root:      root,
	}, nil
}

func (a *app) random() *rand.Rand {
	if a.cfg.Seed == 0 {
		return prefab.NewUnseededRandom()
	}
	return prefab.NewRandom(a.cfg.Seed)
}

// build reseeds the root, schedules a pass and runs frames until the build
// system is idle.
func (a *app) build(ctx context.Context, randomize bool) {
	r := a.random()
	if randomize {
		prefab.AssignSeed(a.world, a.root, r, false)
	}
	a.builds.Build(a.root, randomize, r)
	a.run(ctx)
}

func (a *app) run(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	a.completed = a.completed[:0]
	a.frames = 0
	start := time.Now()
	for a.builds.State() == prefab.Building {
		select {
		case <-ctx.Done():
			log.Printf("prefabricator: build cancelled with %d commands pending", a.builds.Pending())
			a.builds.Reset()
			return
		case <-ticker.C:
		}
		a.scheduler.Update(a.world)
		a.frames++
		for _, evt := range a.world.Events().Drain() {
			if evt.Type != prefab.EventBuildComplete {
				continue
			}
			if e, ok := evt.Data.(ecs.Entity); ok {
				a.completed = append(a.completed, e)
			}
		}
	}
	log.Printf("prefabricator: built %s in %d frames (%s, budget %s)", a.cfg.Root, a.frames, time.Since(start).Round(time.Millisecond), a.cfg.TimePerFrame)
}

func (a *app) print(out io.Writer) {
	prefabs.Walk(a.world, a.root, func(e ecs.Entity, depth int) {
		label := e.String()
		if n, ok := ecs.Get(a.world, e, component.NameComponent.Kind()); ok && n.Value != "" {
			label = n.Value
		}
		pos := prefabs.WorldTransform(a.world, e).Position
		line := fmt.Sprintf("%s%s @(%.1f, %.1f)", strings.Repeat("  ", depth), label, pos.X, pos.Y)
		if inst, ok := prefab.Instance(a.world, e); ok && inst.Template != "" {
			line += fmt.Sprintf(" [%s seed=%d v%d]", inst.Template, inst.Seed, inst.LastUpdateID)
		}
		fmt.Fprintln(out, line)
	})

	names := make([]string, 0, len(a.completed))
	for _, e := range a.completed {
		if inst, ok := prefab.Instance(a.world, e); ok {
			names = append(names, inst.Template)
		}
	}
	fmt.Fprintf(out, "completed: %s\n", strings.Join(names, " "))
}

// watch rebuilds the root whenever a template or script under the template
// directory changes.
func (a *app) watch(ctx context.Context) error {
	if a.cfg.TemplatesDir == "" {
		return fmt.Errorf("prefabricator: -watch needs a template directory")
	}
	dirs := []string{a.cfg.TemplatesDir}
	if scripts := filepath.Join(a.cfg.TemplatesDir, "scripts"); isDir(scripts) {
		dirs = append(dirs, scripts)
	}
	watcher, err := prefabs.NewWatcher(dirs...)
	if err != nil {
		return err
	}
	defer watcher.Close()
	log.Printf("prefabricator: watching %s", strings.Join(dirs, ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("prefabricator: watch error: %v", err)
		case change, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			changed, err := prefabs.Apply(a.lib, a.listeners, change)
			if err != nil {
				log.Printf("prefabricator: reload %s: %v", change.Path, err)
				continue
			}
			if change.Template != "" && (!changed || !a.outdated()) {
				continue
			}
			a.builds.Build(a.root, false, nil)
			a.run(ctx)
			a.print(os.Stdout)
		}
	}
}

// outdated reports whether any node of the tree lags behind its template.
func (a *app) outdated() bool {
	found := false
	ecs.ForEach(a.world, component.PrefabInstanceComponent.Kind(), func(e ecs.Entity, _ *component.PrefabInstance) {
		if !found && a.builds.IsOutdated(e) {
			found = true
		}
	})
	return found
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

package prefabs

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/prefabricator/ecs"
	"github.com/milk9111/prefabricator/ecs/component"
)

// A listener script defines
//
//	post_spawn := func(engine, node) { ... }
//
// and is run once each time a node using the template finishes building.
// node carries id, name, template, seed and children; engine exposes log,
// set_name and set_child_name.
const listenerDispatchScript = `
post_spawn(__engine, __node)
`

type listenerRuntime struct {
	scriptPath string
	compiled   *tengo.Compiled
}

// Listeners compiles and runs post-build listener scripts. Compiled scripts
// are cached by path until Invalidate.
type Listeners struct {
	src   Source
	cache map[string]*listenerRuntime
}

func NewListeners(src Source) *Listeners {
	return &Listeners{src: src, cache: map[string]*listenerRuntime{}}
}

// Invalidate drops the cached compilation of a script so the next run picks
// up its new content. An empty path drops all of them.
func (l *Listeners) Invalidate(scriptPath string) {
	if scriptPath == "" {
		clear(l.cache)
		return
	}
	delete(l.cache, cleanScriptPath(scriptPath))
}

// PostSpawn runs asset's listener for e. Script failures are logged and
// otherwise ignored.
func (l *Listeners) PostSpawn(w *ecs.World, e ecs.Entity, asset *Asset) {
	if l == nil || asset == nil || strings.TrimSpace(asset.Spec.Listener) == "" {
		return
	}
	rt, err := l.runtime(asset.Spec.Listener)
	if err != nil {
		log.Printf("prefabs: template=%s load listener %s: %v", asset.Name, asset.Spec.Listener, err)
		return
	}
	if err := rt.run(buildListenerEngine(w, e, rt), listenerNode(w, e)); err != nil {
		log.Printf("prefabs: template=%s entity=%v listener error: %v", asset.Name, e, err)
	}
}

func (l *Listeners) runtime(scriptPath string) (*listenerRuntime, error) {
	key := cleanScriptPath(scriptPath)
	if rt, ok := l.cache[key]; ok {
		return rt, nil
	}

	src, err := l.src.LoadScript(key)
	if err != nil {
		return nil, err
	}
	script := tengo.NewScript(append(append([]byte(nil), src...), listenerDispatchScript...))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__node", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	rt := &listenerRuntime{scriptPath: key, compiled: compiled}
	l.cache[key] = rt
	return rt, nil
}

// run executes the script once. Runtime faults the VM raises as panics, such
// as integer division by zero, are returned as errors.
func (rt *listenerRuntime) run(engine *tengo.ImmutableMap, node map[string]any) (err error) {
	if rt == nil || rt.compiled == nil {
		return fmt.Errorf("nil listener runtime")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__node", node); err != nil {
		return err
	}
	return rt.compiled.Run()
}

func listenerNode(w *ecs.World, e ecs.Entity) map[string]any {
	node := map[string]any{
		"id":       e.String(),
		"name":     "",
		"template": "",
		"seed":     int64(0),
		"children": int64(len(ecs.AttachedChildren(w, e))),
	}
	if n, ok := ecs.Get(w, e, component.NameComponent.Kind()); ok {
		node["name"] = n.Value
	}
	if inst, ok := ecs.Get(w, e, component.PrefabInstanceComponent.Kind()); ok {
		node["template"] = inst.Template
		node["seed"] = inst.Seed
	}
	return node
}

func buildListenerEngine(w *ecs.World, e ecs.Entity, rt *listenerRuntime) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, objectAsString(arg))
		}
		log.Printf("prefabs: %s: %s", rt.scriptPath, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	values["set_name"] = &tengo.UserFunction{Name: "set_name", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		if err := ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: objectAsString(args[0])}); err != nil {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["set_child_name"] = &tengo.UserFunction{Name: "set_child_name", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		itemID := objectAsString(args[0])
		for _, child := range ecs.AttachedChildren(w, e) {
			item, ok := ecs.Get(w, child, component.PrefabItemComponent.Kind())
			if !ok || item.ItemID != itemID {
				continue
			}
			if err := ecs.Add(w, child, component.NameComponent.Kind(), &component.Name{Value: objectAsString(args[1])}); err != nil {
				return tengo.FalseValue, nil
			}
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if s, ok := tengo.ToString(obj); ok {
		return s
	}
	return ""
}

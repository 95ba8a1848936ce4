package prefabs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/milk9111/prefabricator/prefab"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

var (
	ErrTemplateNotFound = errors.New("prefabs: template not found")
	ErrTemplateExists   = errors.New("prefabs: template already exists")
	ErrTemplateCycle    = errors.New("prefabs: template references itself")
)

// maxResolveDepth bounds collection-of-collection chains.
const maxResolveDepth = 16

// Asset is a loaded template. Version changes whenever the content does and
// is never reused within a Library.
type Asset struct {
	Name    string
	Spec    TemplateSpec
	Version uint64

	hash [32]byte
}

// IsCollection reports whether the asset picks one of several templates by
// seed instead of spawning children itself.
func (a *Asset) IsCollection() bool {
	return len(a.Spec.Variants) > 0
}

// Library holds the templates of a Source. It is not safe for concurrent
// use.
type Library struct {
	src         Source
	assets      map[string]*Asset
	lastVersion uint64
}

func NewLibrary(src Source) *Library {
	return &Library{src: src, assets: map[string]*Asset{}}
}

func (l *Library) Source() Source {
	return l.src
}

// LoadAll (re)reads every template of the source.
func (l *Library) LoadAll() error {
	names, err := l.src.TemplateNames()
	if err != nil {
		return fmt.Errorf("prefabs: list templates: %w", err)
	}
	next := make(map[string]*Asset, len(names))
	for _, name := range names {
		data, err := l.src.LoadTemplate(name)
		if err != nil {
			return fmt.Errorf("prefabs: load %s: %w", name, err)
		}
		a, err := decodeAsset(name, data)
		if err != nil {
			return err
		}
		next[name] = a
	}
	if err := checkCycles(next); err != nil {
		return err
	}
	for name, a := range next {
		l.install(name, a)
	}
	for name := range l.assets {
		if _, ok := next[name]; !ok {
			delete(l.assets, name)
		}
	}
	return nil
}

// Reload re-reads one template and reports whether its content changed. A
// template whose file disappeared is dropped. A change that would introduce a
// reference cycle is rejected and the previous content kept.
func (l *Library) Reload(name string) (bool, error) {
	data, err := l.src.LoadTemplate(name)
	if errors.Is(err, fs.ErrNotExist) {
		if _, ok := l.assets[name]; ok {
			delete(l.assets, name)
			log.Printf("prefabs: template %s removed", name)
			return true, nil
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("prefabs: load %s: %w", name, err)
	}
	a, err := decodeAsset(name, data)
	if err != nil {
		return false, err
	}
	if old, ok := l.assets[name]; ok && old.hash == a.hash {
		return false, nil
	}
	if err := l.checkWith(name, a); err != nil {
		return false, err
	}
	l.install(name, a)
	log.Printf("prefabs: template %s reloaded at version %d", name, l.assets[name].Version)
	return true, nil
}

func (l *Library) Get(name string) (*Asset, bool) {
	a, ok := l.assets[name]
	return a, ok
}

// Names returns the loaded template names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.assets))
	for name := range l.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the concrete template ref stands for under seed.
// Collections pick a variant with a generator seeded from seed, so the same
// seed always resolves to the same template.
func (l *Library) Resolve(ref string, seed int64) (*Asset, error) {
	a, ok := l.assets[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, ref)
	}
	if !a.IsCollection() {
		return a, nil
	}
	r := prefab.NewRandom(uint64(seed))
	for depth := 0; depth < maxResolveDepth; depth++ {
		v := pickVariant(a.Spec.Variants, r)
		next, ok := l.assets[v.Prefab]
		if !ok {
			return nil, fmt.Errorf("%w: %s (variant of %s)", ErrTemplateNotFound, v.Prefab, a.Name)
		}
		if !next.IsCollection() {
			return next, nil
		}
		a = next
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateCycle, ref)
}

// Create adds an empty template.
func (l *Library) Create(name string) (*Asset, error) {
	if _, ok := l.assets[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateExists, name)
	}
	if _, err := l.Put(name, TemplateSpec{Name: name}); err != nil {
		return nil, err
	}
	return l.assets[name], nil
}

// Put stores spec as the template name, writes it under the source directory
// when there is one, and returns the resulting version.
func (l *Library) Put(name string, spec TemplateSpec) (uint64, error) {
	if err := spec.normalize(name); err != nil {
		return 0, err
	}
	data, err := yaml.Marshal(&spec)
	if err != nil {
		return 0, fmt.Errorf("prefabs: marshal %s: %w", name, err)
	}
	a := &Asset{Name: name, Spec: spec, hash: blake3.Sum256(data)}
	if err := l.checkWith(name, a); err != nil {
		return 0, err
	}
	if l.src.Dir != "" {
		if err := os.MkdirAll(l.src.Dir, 0o755); err != nil {
			return 0, fmt.Errorf("prefabs: save %s: %w", name, err)
		}
		if err := os.WriteFile(l.src.TemplatePath(name), data, 0o644); err != nil {
			return 0, fmt.Errorf("prefabs: save %s: %w", name, err)
		}
		log.Printf("prefabs: saved %s", filepath.ToSlash(l.src.TemplatePath(name)))
	}
	l.install(name, a)
	return l.assets[name].Version, nil
}

// Marshal returns the YAML form of a loaded template.
func (l *Library) Marshal(name string) ([]byte, error) {
	a, ok := l.assets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return yaml.Marshal(&a.Spec)
}

func (l *Library) install(name string, a *Asset) {
	if old, ok := l.assets[name]; ok && old.hash == a.hash {
		return
	}
	l.lastVersion++
	a.Version = l.lastVersion
	l.assets[name] = a
}

func (l *Library) checkWith(name string, a *Asset) error {
	candidate := make(map[string]*Asset, len(l.assets)+1)
	for k, v := range l.assets {
		candidate[k] = v
	}
	candidate[name] = a
	return checkCycles(candidate)
}

func decodeAsset(name string, data []byte) (*Asset, error) {
	spec, err := DecodeSpec[TemplateSpec](data)
	if err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal %s: %w", name, err)
	}
	if err := spec.normalize(name); err != nil {
		return nil, err
	}
	return &Asset{Name: name, Spec: spec, hash: blake3.Sum256(data)}, nil
}

// checkCycles rejects template graphs in which a template can expand into
// itself. Dangling references are allowed; they resolve to nothing.
func checkCycles(assets map[string]*Asset) error {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(assets))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case active:
			return fmt.Errorf("%w: %v", ErrTemplateCycle, append(path, name))
		case done:
			return nil
		}
		a, ok := assets[name]
		if !ok {
			return nil
		}
		state[name] = active
		for _, ref := range a.Spec.refs() {
			if err := visit(ref, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

func pickVariant(variants []VariantSpec, r *rand.Rand) VariantSpec {
	weight := func(v VariantSpec) float64 {
		if v.Weight <= 0 {
			return 1
		}
		return v.Weight
	}
	total := 0.0
	for _, v := range variants {
		total += weight(v)
	}
	x := r.Float64() * total
	for _, v := range variants {
		x -= weight(v)
		if x < 0 {
			return v
		}
	}
	return variants[len(variants)-1]
}

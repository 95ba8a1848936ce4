package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TemplateSpec is the on-disk form of a template. A template either lists
// Children to spawn or, as a random collection, weighted Variants of which
// the node's seed picks one.
type TemplateSpec struct {
	Name     string        `yaml:"name"`
	Listener string        `yaml:"listener,omitempty"`
	Children []ItemSpec    `yaml:"children,omitempty"`
	Variants []VariantSpec `yaml:"variants,omitempty"`
}

// ItemSpec is one spawned entity. With Prefab set the entity is a nested
// prefab node.
type ItemSpec struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name,omitempty"`
	Prefab    string        `yaml:"prefab,omitempty"`
	Transform TransformSpec `yaml:"transform,omitempty"`
}

type VariantSpec struct {
	Prefab string  `yaml:"prefab"`
	Weight float64 `yaml:"weight,omitempty"`
}

type TransformSpec struct {
	X        float64 `yaml:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty"`
	ScaleX   float64 `yaml:"scale_x,omitempty"`
	ScaleY   float64 `yaml:"scale_y,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty"`
}

func DecodeSpec[T any](data []byte) (T, error) {
	var zero T
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, err
	}
	return spec, nil
}

// normalize fills missing item ids and rejects ambiguous ones.
func (s *TemplateSpec) normalize(name string) error {
	if s.Name == "" {
		s.Name = name
	}
	if len(s.Children) > 0 && len(s.Variants) > 0 {
		return fmt.Errorf("prefabs: %s: children and variants are exclusive", name)
	}
	seen := make(map[string]bool, len(s.Children))
	for i := range s.Children {
		if s.Children[i].ID == "" {
			s.Children[i].ID = fmt.Sprintf("item_%d", i)
		}
		if seen[s.Children[i].ID] {
			return fmt.Errorf("prefabs: %s: duplicate item id %q", name, s.Children[i].ID)
		}
		seen[s.Children[i].ID] = true
	}
	for _, v := range s.Variants {
		if v.Prefab == "" {
			return fmt.Errorf("prefabs: %s: variant without prefab", name)
		}
	}
	return nil
}

// refs returns every template name s may expand into.
func (s TemplateSpec) refs() []string {
	var out []string
	for _, c := range s.Children {
		if c.Prefab != "" {
			out = append(out, c.Prefab)
		}
	}
	for _, v := range s.Variants {
		out = append(out, v.Prefab)
	}
	return out
}

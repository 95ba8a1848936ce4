package prefabs

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

//go:embed scripts/*.tengo
var scriptsFS embed.FS

// Source reads templates and listener scripts. Files under Dir override the
// embedded defaults of the same name; an empty Dir uses the defaults only.
type Source struct {
	Dir string
}

func (s Source) LoadTemplate(name string) ([]byte, error) {
	clean := cleanTemplateName(name)
	if s.Dir != "" {
		if data, err := os.ReadFile(s.TemplatePath(clean)); err == nil {
			return data, nil
		}
	}
	return templatesFS.ReadFile(path.Join("templates", clean+".yaml"))
}

func (s Source) LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if s.Dir != "" {
		if data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	return scriptsFS.ReadFile(clean)
}

// TemplatePath is where a template named name lives on disk.
func (s Source) TemplatePath(name string) string {
	return filepath.Join(s.Dir, cleanTemplateName(name)+".yaml")
}

// TemplateNames lists embedded and on-disk templates, sorted.
func (s Source) TemplateNames() ([]string, error) {
	set := map[string]bool{}
	embedded, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	for _, entry := range embedded {
		if name, ok := TemplateName(entry.Name()); ok {
			set[name] = true
		}
	}
	if s.Dir != "" {
		entries, err := os.ReadDir(s.Dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if name, ok := TemplateName(entry.Name()); ok {
				set[name] = true
			}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// TemplateName maps a template file path to its template name.
func TemplateName(p string) (string, bool) {
	if !isSpecFile(p) {
		return "", false
	}
	base := filepath.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, filepath.Ext(base)), true
}

func cleanTemplateName(name string) string {
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, "templates/")
	return strings.TrimSuffix(strings.TrimSuffix(s, ".yaml"), ".yml")
}

func cleanScriptPath(p string) string {
	s := filepath.ToSlash(p)
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return path.Join("scripts", s)
}

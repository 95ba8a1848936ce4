package prefabs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures a build host.
type Config struct {
	// TemplatesDir overrides and extends the embedded templates. Empty
	// uses the embedded set only.
	TemplatesDir string `yaml:"templates_dir"`
	// TimePerFrame is the build budget per tick; 0 builds synchronously
	// within one tick.
	TimePerFrame time.Duration `yaml:"time_per_frame"`
	// Watch reloads templates and scripts when files under TemplatesDir
	// change.
	Watch bool `yaml:"watch"`
	// Listeners enables post-build listener scripts.
	Listeners bool `yaml:"listeners"`
	// Root is the template instantiated at startup.
	Root string `yaml:"root"`
	// Seed drives randomized builds. 0 picks a fresh seed per build.
	Seed uint64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		TimePerFrame: 4 * time.Millisecond,
		Listeners:    true,
		Root:         "village",
	}
}

// LoadConfig overlays the YAML file at path on DefaultConfig. A missing file
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("prefabs: load config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("prefabs: unmarshal config %s: %w", path, err)
	}
	if cfg.TimePerFrame < 0 {
		return cfg, fmt.Errorf("prefabs: config %s: negative time_per_frame", path)
	}
	return cfg, nil
}

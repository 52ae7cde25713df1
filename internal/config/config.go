// Package config loads the daemon configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vfswatch/internal/vfs"
)

const defaultDebounce = 100 * time.Millisecond

// Duration accepts Go duration strings ("100ms", "2s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q", value.Value)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	// ListenAddr is the HTTP listen address for the event stream and
	// metrics endpoints. Empty disables the HTTP surface.
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	// Roots are the directories whose snapshot trees are watched.
	Roots []string `yaml:"roots"`
	// MustWatch directories are always watched regardless of snapshot
	// content.
	MustWatch []string `yaml:"must_watch"`
	// Include and Exclude are glob patterns matched against path segments.
	// An empty include list accepts everything not excluded.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Debounce is how long rapid successive events on the same path are
	// coalesced before being published. Zero disables coalescing.
	Debounce Duration `yaml:"debounce"`
}

func Default() Config {
	return Config{
		ListenAddr: ":8420",
		LogLevel:   "info",
		Debounce:   Duration(defaultDebounce),
	}
}

// Load reads a YAML config file, layering it over defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(payload, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := validatePatterns(cfg.Include); err != nil {
		return Config{}, err
	}
	if err := validatePatterns(cfg.Exclude); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Filter compiles the include and exclude patterns into the registry's
// watch-inclusion predicate.
func (c Config) Filter() vfs.WatchFilter {
	include := append([]string(nil), c.Include...)
	exclude := append([]string(nil), c.Exclude...)
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	return func(path string) bool {
		if matchesAnySegment(exclude, path) {
			return false
		}
		if len(include) == 0 {
			return true
		}
		return matchesAnySegment(include, path)
	}
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func matchesAnySegment(patterns []string, path string) bool {
	if len(patterns) == 0 {
		return false
	}
	segments := strings.Split(filepath.ToSlash(path), "/")
	for _, pattern := range patterns {
		for _, segment := range segments {
			if segment == "" {
				continue
			}
			if ok, _ := filepath.Match(pattern, segment); ok {
				return true
			}
		}
	}
	return false
}

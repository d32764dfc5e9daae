package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"bueno/internal/dprint"
)

const (
	configFileName = "bueno.toml"
	configEnvVar   = "BUENO_CONFIG"
)

// buenoConfig is a loaded bueno.toml. Paths in it are absolute.
type buenoConfig struct {
	// Path is empty when no manifest was found.
	Path   string
	Root   string
	Fmt    fmtConfig
	Source string
}

type fileConfig struct {
	Fmt fmtConfig `toml:"fmt"`
}

type fmtConfig struct {
	// CacheDir holds the wasm compilation cache and the incremental cache.
	CacheDir    string        `toml:"cache_dir"`
	Incremental bool          `toml:"incremental"`
	Plugins     pluginsConfig `toml:"plugins"`
}

// pluginsConfig names a plugin per language: a path relative to the
// manifest, an http(s) URL downloaded once into the cache, or "none".
type pluginsConfig struct {
	TypeScript string `toml:"typescript"`
	JSON       string `toml:"json"`
	Markdown   string `toml:"markdown"`
}

func findBuenoToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig reads the manifest named by explicit, then $BUENO_CONFIG, then
// the nearest bueno.toml above startDir. No manifest at all yields the
// defaults rooted at startDir.
func loadConfig(explicit, startDir string) (*buenoConfig, error) {
	path, source := explicit, "--config"
	if path == "" {
		path, source = os.Getenv(configEnvVar), configEnvVar
	}
	if path == "" {
		found, ok, err := findBuenoToml(startDir)
		if err != nil {
			return nil, err
		}
		if !ok {
			root, err := filepath.Abs(startDir)
			if err != nil {
				return nil, err
			}
			return &buenoConfig{Root: root, Source: "defaults"}, nil
		}
		path, source = found, "search"
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var raw fileConfig
	meta, err := toml.DecodeFile(abs, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", abs, undecoded[0].String())
	}

	cfg := &buenoConfig{Path: abs, Root: filepath.Dir(abs), Fmt: raw.Fmt, Source: source}
	cfg.Fmt.CacheDir = cfg.resolve(cfg.Fmt.CacheDir)
	cfg.Fmt.Plugins.TypeScript = cfg.resolve(cfg.Fmt.Plugins.TypeScript)
	cfg.Fmt.Plugins.JSON = cfg.resolve(cfg.Fmt.Plugins.JSON)
	cfg.Fmt.Plugins.Markdown = cfg.resolve(cfg.Fmt.Plugins.Markdown)
	return cfg, nil
}

func (c *buenoConfig) resolve(p string) string {
	if p == "" || p == pluginNone || filepath.IsAbs(p) || dprint.IsURL(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// cacheDir is cache_dir when set, .bueno/cache under the project root
// otherwise.
func (c *buenoConfig) cacheDir() string {
	if c.Fmt.CacheDir != "" {
		return c.Fmt.CacheDir
	}
	return filepath.Join(c.Root, ".bueno", "cache")
}

// incrementalCachePath is where the incremental format cache lives.
func (c *buenoConfig) incrementalCachePath() string {
	return filepath.Join(c.cacheDir(), "fmt-incremental.mp")
}

// pluginCacheDir holds plugins downloaded from URLs.
func (c *buenoConfig) pluginCacheDir() string {
	return filepath.Join(c.cacheDir(), "plugins")
}

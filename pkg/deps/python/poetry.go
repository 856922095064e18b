package python

import (
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/locallore/pkg/deps"
)

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Source  *struct {
		Type string `toml:"type"`
	} `toml:"source"`
}

// nonRegistrySources are [package.source] types that do not point at a
// package index release. "legacy" sources are alternate indexes and kept.
var nonRegistrySources = map[string]bool{
	"directory": true,
	"file":      true,
	"git":       true,
	"url":       true,
}

func (c *Collector) parsePoetry(dir string, data []byte) []deps.Dependency {
	var lock lockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		c.opts.Logger.Warn("malformed poetry.lock", "path", filepath.Join(dir, "poetry.lock"), "error", err)
		return nil
	}

	set := deps.NewSet()
	for _, pkg := range lock.Packages {
		if pkg.Name == "" || pkg.Version == "" {
			continue
		}
		if pkg.Source != nil && nonRegistrySources[pkg.Source.Type] {
			continue
		}
		set.Add(deps.Dependency{
			Identity: deps.Identity{Ecosystem: deps.PyPI, Name: Normalize(pkg.Name), Version: pkg.Version},
			Manifest: "poetry.lock",
		})
	}
	return set.Slice()
}

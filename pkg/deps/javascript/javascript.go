package javascript

import (
	"context"
	"encoding/json"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/locallore/pkg/deps"
)

const lockName = "package-lock.json"

// Language provides npm lockfile collection.
var Language = &deps.Language{
	Name:         "javascript",
	Ecosystem:    deps.NPM,
	Manifests:    []string{lockName},
	NewCollector: func(opts deps.Options) deps.Collector { return NewCollector(opts) },
}

// Collector reads package-lock.json (lockfile versions 1, 2 and 3). Every
// installed node becomes a dependency, including nested copies with
// different versions.
type Collector struct {
	opts deps.Options
}

// NewCollector returns a package-lock.json collector.
func NewCollector(opts deps.Options) *Collector {
	return &Collector{opts: opts.WithDefaults()}
}

func (c *Collector) Ecosystem() deps.Ecosystem { return deps.NPM }

func (c *Collector) Manifests(dir string) []string {
	return deps.ExistingFiles(dir, lockName)
}

func (c *Collector) Collect(ctx context.Context, dir string) ([]deps.Dependency, error) {
	path := filepath.Join(dir, lockName)
	data, ok := deps.ReadManifest(path, c.opts)
	if !ok {
		return nil, nil
	}

	var lock packageLock
	if err := json.Unmarshal(data, &lock); err != nil {
		c.opts.Logger.Warn("malformed package-lock.json", "path", path, "error", err)
		return nil, nil
	}

	set := deps.NewSet()
	if lock.Packages != nil {
		collectPackages(set, lock.Packages)
	} else {
		collectTree(set, lock.Dependencies)
	}
	return set.Slice(), nil
}

type packageLock struct {
	LockfileVersion int                    `json:"lockfileVersion"`
	Packages        map[string]lockPackage `json:"packages"`     // v2, v3
	Dependencies    map[string]lockV1Entry `json:"dependencies"` // v1
}

type lockPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Link    bool   `json:"link"`
}

type lockV1Entry struct {
	Version      string                 `json:"version"`
	Dependencies map[string]lockV1Entry `json:"dependencies"`
}

// collectPackages walks the flat v2/v3 "packages" map. Keys are install
// paths such as "node_modules/a/node_modules/@scope/b".
func collectPackages(set *deps.Set, packages map[string]lockPackage) {
	for _, path := range slices.Sorted(maps.Keys(packages)) {
		pkg := packages[path]
		if path == "" || pkg.Link || pkg.Version == "" {
			continue
		}
		name := installName(path)
		if name == "" {
			continue
		}
		if pkg.Name != "" {
			name = pkg.Name
		}
		add(set, name, pkg.Version)
	}
}

// collectTree walks the recursive v1 "dependencies" tree.
func collectTree(set *deps.Set, tree map[string]lockV1Entry) {
	for _, name := range slices.Sorted(maps.Keys(tree)) {
		entry := tree[name]
		if entry.Version != "" {
			add(set, name, entry.Version)
		}
		collectTree(set, entry.Dependencies)
	}
}

func add(set *deps.Set, name, version string) {
	if real, ok := strings.CutPrefix(version, "npm:"); ok {
		// v1 alias: "alias": {"version": "npm:real-name@1.2.3"}
		at := strings.LastIndex(real, "@")
		if at <= 0 {
			return
		}
		name, version = real[:at], real[at+1:]
	}
	if isLocal(version) {
		return
	}
	set.Add(deps.Dependency{
		Identity: deps.Identity{Ecosystem: deps.NPM, Name: name, Version: version},
		Manifest: lockName,
	})
}

// installName returns the segment after the last node_modules/ in an
// install path, or "" for workspace paths outside node_modules.
func installName(path string) string {
	const marker = "node_modules/"
	i := strings.LastIndex(path, marker)
	if i < 0 {
		return ""
	}
	return path[i+len(marker):]
}

func isLocal(version string) bool {
	for _, prefix := range []string{"file:", "link:"} {
		if strings.HasPrefix(version, prefix) {
			return true
		}
	}
	return false
}

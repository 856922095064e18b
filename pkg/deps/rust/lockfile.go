package rust

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/locallore/pkg/deps"
)

type cargoFile struct {
	Package *struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"` // string, or {workspace = true}
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
		Exclude []string `toml:"exclude"`
	} `toml:"workspace"`
	Dependencies      map[string]any         `toml:"dependencies"`
	DevDependencies   map[string]any         `toml:"dev-dependencies"`
	BuildDependencies map[string]any         `toml:"build-dependencies"`
	Target            map[string]cargoTarget `toml:"target"`
}

type cargoTarget struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Dependencies []string `toml:"dependencies"`
}

// fromLockfile resolves the direct runtime dependencies of every workspace
// member against Cargo.lock. The lockfile does not record edge kinds, so
// only the members' own declarations are classified and transitive crates
// are not followed.
func (c *Collector) fromLockfile(dir string) []deps.Dependency {
	root, ok := c.readCargoFile(manifestPath(dir))
	if !ok {
		return nil
	}

	data, ok := deps.ReadManifest(filepath.Join(dir, "Cargo.lock"), c.opts)
	if !ok {
		return nil
	}
	var lock lockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		c.opts.Logger.Warn("malformed Cargo.lock", "path", dir, "error", err)
		return nil
	}

	set := deps.NewSet()
	for _, member := range c.members(dir, root) {
		if member.Package == nil || member.Package.Name == "" {
			continue
		}
		runtime := runtimeCrates(member)
		entry, ok := findLocal(lock.Packages, member.Package.Name)
		if !ok {
			c.opts.Logger.Debug("workspace member missing from Cargo.lock", "crate", member.Package.Name)
			continue
		}
		for _, ref := range entry.Dependencies {
			name, version := parseLockRef(ref)
			if !runtime[name] {
				continue
			}
			for _, p := range lookup(lock.Packages, name, version) {
				if p.Source == "" {
					continue
				}
				set.Add(deps.Dependency{
					Identity: deps.Identity{Ecosystem: deps.Cargo, Name: p.Name, Version: p.Version},
					Manifest: "Cargo.lock",
				})
			}
		}
	}
	return set.Slice()
}

func (c *Collector) readCargoFile(path string) (*cargoFile, bool) {
	data, ok := deps.ReadManifest(path, c.opts)
	if !ok {
		return nil, false
	}
	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		c.opts.Logger.Warn("malformed Cargo.toml", "path", path, "error", err)
		return nil, false
	}
	return &cargo, true
}

// members returns the root package (when the root manifest has one) plus
// every parseable workspace member.
func (c *Collector) members(dir string, root *cargoFile) []*cargoFile {
	var out []*cargoFile
	if root.Package != nil {
		out = append(out, root)
	}
	for _, m := range c.memberDirs(dir, root) {
		if member, ok := c.readCargoFile(manifestPath(m)); ok {
			out = append(out, member)
		}
	}
	return out
}

// memberDirs returns the directories matched by [workspace].members that
// are not excluded and contain a Cargo.toml, sorted within each pattern.
func (c *Collector) memberDirs(dir string, root *cargoFile) []string {
	if root.Workspace == nil {
		return nil
	}

	excluded := make(map[string]bool)
	for _, pattern := range root.Workspace.Exclude {
		matches, _ := filepath.Glob(filepath.Join(dir, pattern))
		for _, m := range matches {
			excluded[filepath.Clean(m)] = true
		}
	}

	var out []string
	seen := map[string]bool{filepath.Clean(dir): true}
	for _, pattern := range root.Workspace.Members {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			c.opts.Logger.Warn("invalid workspace member pattern", "pattern", pattern, "error", err)
			continue
		}
		slices.Sort(matches)
		for _, m := range matches {
			m = filepath.Clean(m)
			if seen[m] || excluded[m] {
				continue
			}
			seen[m] = true
			if info, err := os.Stat(manifestPath(m)); err != nil || !info.Mode().IsRegular() {
				continue
			}
			out = append(out, m)
		}
	}
	return out
}

// runtimeCrates returns the crate names a member uses outside build
// scripts, keyed by the name the crate is published under.
func runtimeCrates(cargo *cargoFile) map[string]bool {
	names := make(map[string]bool)
	add := func(m map[string]any) {
		for key, spec := range m {
			names[crateName(key, spec)] = true
		}
	}
	add(cargo.Dependencies)
	add(cargo.DevDependencies)
	for _, t := range cargo.Target {
		add(t.Dependencies)
		add(t.DevDependencies)
	}
	return names
}

// crateName resolves renamed dependencies (`alias = { package = "real" }`).
func crateName(key string, spec any) string {
	if table, ok := spec.(map[string]any); ok {
		if pkg, ok := table["package"].(string); ok && pkg != "" {
			return pkg
		}
	}
	return key
}

// parseLockRef splits a Cargo.lock dependency reference. References are
// "name", "name version" or "name version (source)".
func parseLockRef(ref string) (name, version string) {
	fields := strings.Fields(ref)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], fields[1]
	}
}

func findLocal(pkgs []lockPackage, name string) (lockPackage, bool) {
	for _, p := range pkgs {
		if p.Name == name && p.Source == "" {
			return p, true
		}
	}
	return lockPackage{}, false
}

func lookup(pkgs []lockPackage, name, version string) []lockPackage {
	var out []lockPackage
	for _, p := range pkgs {
		if p.Name == name && (version == "" || p.Version == version) {
			out = append(out, p)
		}
	}
	return out
}

package golang

import (
	"context"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/matzehuels/locallore/pkg/deps"
)

// Language provides go.mod collection.
var Language = &deps.Language{
	Name:         "go",
	Ecosystem:    deps.Go,
	Manifests:    []string{"go.mod"},
	NewCollector: func(opts deps.Options) deps.Collector { return NewCollector(opts) },
}

// Collector reads go.mod. Since Go 1.17 a module's go.mod lists every module
// in its build graph, so both direct and indirect requirements are emitted.
// Requirements replaced by a local directory are skipped; requirements
// replaced by another module are reported as the replacement.
type Collector struct {
	opts deps.Options
}

// NewCollector returns a go.mod collector.
func NewCollector(opts deps.Options) *Collector {
	return &Collector{opts: opts.WithDefaults()}
}

func (c *Collector) Ecosystem() deps.Ecosystem { return deps.Go }

func (c *Collector) Manifests(dir string) []string {
	return deps.ExistingFiles(dir, Language.Manifests...)
}

func (c *Collector) Collect(ctx context.Context, dir string) ([]deps.Dependency, error) {
	path := filepath.Join(dir, "go.mod")
	data, ok := deps.ReadManifest(path, c.opts)
	if !ok {
		return nil, nil
	}

	mod, err := modfile.Parse(path, data, nil)
	if err != nil {
		c.opts.Logger.Warn("malformed go.mod", "path", path, "error", err)
		return nil, nil
	}

	set := deps.NewSet()
	for _, req := range mod.Require {
		m, ok := replaced(mod.Replace, req.Mod.Path, req.Mod.Version)
		if !ok {
			c.opts.Logger.Debug("skipping locally replaced module", "module", req.Mod.Path)
			continue
		}
		set.Add(deps.Dependency{
			Identity: deps.Identity{Ecosystem: deps.Go, Name: m.path, Version: m.version},
			Manifest: "go.mod",
		})
	}
	return set.Slice(), nil
}

type module struct {
	path, version string
}

// replaced applies the replace directives to a requirement. A replacement
// without a version points at a local directory and yields ok=false.
// Versioned replacements win over unversioned ones for the same path.
func replaced(replaces []*modfile.Replace, path, version string) (m module, ok bool) {
	var match *modfile.Replace
	for _, r := range replaces {
		if r.Old.Path != path {
			continue
		}
		if r.Old.Version == version {
			match = r
			break
		}
		if r.Old.Version == "" {
			match = r
		}
	}
	if match == nil {
		return module{path, version}, true
	}
	if match.New.Version == "" {
		return module{}, false
	}
	return module{match.New.Path, match.New.Version}, true
}

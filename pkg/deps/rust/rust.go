package rust

import (
	"context"
	"errors"

	"github.com/matzehuels/locallore/pkg/deps"
)

// Language provides Cargo workspace collection.
var Language = &deps.Language{
	Name:         "rust",
	Ecosystem:    deps.Cargo,
	Manifests:    []string{"Cargo.toml", "Cargo.lock"},
	NewCollector: func(opts deps.Options) deps.Collector { return NewCollector(opts) },
}

// Collector emits every crate reachable from the workspace members through
// normal or dev dependency edges. Crates reachable only through build
// dependencies are never emitted.
type Collector struct {
	opts deps.Options
	// Metadata runs `cargo metadata` for a Cargo.toml path. Tests replace it.
	Metadata MetadataRunner
	// HasCargo reports whether Metadata can be expected to succeed. It only
	// feeds [Collector.Fingerprint]. Tests replace it along with Metadata.
	HasCargo func() bool
}

// NewCollector returns a Collector backed by the local cargo binary.
func NewCollector(opts deps.Options) *Collector {
	return &Collector{opts: opts.WithDefaults(), Metadata: RunCargoMetadata, HasCargo: cargoInstalled}
}

func (c *Collector) Ecosystem() deps.Ecosystem { return deps.Cargo }

// Manifests returns the root Cargo.toml and Cargo.lock plus the Cargo.toml
// of every workspace member, since a member can move a crate between
// dependency tables without touching the lockfile.
func (c *Collector) Manifests(dir string) []string {
	files := deps.ExistingFiles(dir, Language.Manifests...)
	root, ok := c.readCargoFile(manifestPath(dir))
	if !ok {
		return files
	}
	for _, m := range c.memberDirs(dir, root) {
		files = append(files, manifestPath(m))
	}
	return files
}

// Fingerprint names the resolution source Collect will use. Lockfile
// results are coarser than cargo's resolved graph, so a result computed
// without cargo must not be reused once cargo is installed.
func (c *Collector) Fingerprint() string {
	if c.HasCargo != nil && c.HasCargo() {
		return "cargo-metadata"
	}
	return "lockfile"
}

// Collect resolves the workspace rooted at dir. It prefers the resolved
// graph reported by cargo and falls back to reading Cargo.toml and
// Cargo.lock directly when cargo is unavailable or fails.
func (c *Collector) Collect(ctx context.Context, dir string) ([]deps.Dependency, error) {
	manifest := manifestPath(dir)
	if _, ok := deps.ReadManifest(manifest, c.opts); !ok {
		return nil, nil
	}

	out, err := c.Metadata(ctx, manifest)
	if err == nil {
		md, perr := parseMetadata(out)
		if perr == nil {
			return md.runtimeDependencies(), nil
		}
		c.opts.Logger.Warn("cargo metadata output malformed", "path", manifest, "error", perr)
	} else {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrCargoNotFound) {
			c.opts.Logger.Debug("cargo not installed, reading lockfile", "path", dir)
		} else {
			c.opts.Logger.Warn("cargo metadata failed, reading lockfile", "path", dir, "error", err)
		}
	}

	return c.fromLockfile(dir), nil
}

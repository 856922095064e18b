package python

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/locallore/pkg/deps"
)

// Language provides Python collection from poetry.lock, with pinned
// requirements.txt entries as a fallback.
var Language = &deps.Language{
	Name:         "python",
	Ecosystem:    deps.PyPI,
	Manifests:    []string{"poetry.lock", "requirements.txt"},
	NewCollector: func(opts deps.Options) deps.Collector { return NewCollector(opts) },
}

// Collector reads poetry.lock when present. Projects without a lockfile
// contribute the exactly pinned (==) lines of requirements.txt; unpinned
// requirements carry no version and are skipped.
type Collector struct {
	opts deps.Options
}

// NewCollector returns a Python collector.
func NewCollector(opts deps.Options) *Collector {
	return &Collector{opts: opts.WithDefaults()}
}

func (c *Collector) Ecosystem() deps.Ecosystem { return deps.PyPI }

func (c *Collector) Manifests(dir string) []string {
	return deps.ExistingFiles(dir, Language.Manifests...)
}

func (c *Collector) Collect(ctx context.Context, dir string) ([]deps.Dependency, error) {
	if data, ok := deps.ReadManifest(filepath.Join(dir, "poetry.lock"), c.opts); ok {
		return c.parsePoetry(dir, data), nil
	}
	if data, ok := deps.ReadManifest(filepath.Join(dir, "requirements.txt"), c.opts); ok {
		return parseRequirements(data), nil
	}
	return nil, nil
}

var separators = regexp.MustCompile(`[-_.]+`)

// Normalize applies PEP 503 name normalization.
func Normalize(name string) string {
	return separators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

package deps

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Ecosystem identifies a package-management convention. The value is stored
// verbatim in the first component of every [Identity].
type Ecosystem string

// Built-in ecosystems.
const (
	Cargo Ecosystem = "cargo"
	NPM   Ecosystem = "npm"
	Go    Ecosystem = "go"
	PyPI  Ecosystem = "pypi"
)

func (e Ecosystem) String() string { return string(e) }

// Identity is the composite natural key of a dependency. It is a comparable
// value type and can be used directly as a map key.
type Identity struct {
	Ecosystem Ecosystem `json:"ecosystem"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
}

// String renders the identity as "ecosystem:name:version".
func (id Identity) String() string {
	return string(id.Ecosystem) + ":" + id.Name + ":" + id.Version
}

// Valid reports whether all three identity components are set.
func (id Identity) Valid() bool {
	return id.Ecosystem != "" && id.Name != "" && id.Version != ""
}

// ParseIdentity parses the "ecosystem:name:version" form produced by
// [Identity.String]. The name may itself contain colons; the version may not.
func ParseIdentity(s string) (Identity, bool) {
	eco, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Identity{}, false
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return Identity{}, false
	}
	id := Identity{Ecosystem: Ecosystem(eco), Name: rest[:i], Version: rest[i+1:]}
	return id, id.Valid()
}

// Dependency is a single collector output entry.
type Dependency struct {
	Identity
	Manifest string `json:"manifest,omitempty"` // manifest file the entry was read from
}

// New returns a Dependency for the given identity components.
func New(eco Ecosystem, name, version string) Dependency {
	return Dependency{Identity: Identity{Ecosystem: eco, Name: name, Version: version}}
}

// Options configures collectors.
type Options struct {
	Logger *log.Logger // Diagnostics sink (optional, discarded when nil)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// Collector reads the manifests of one ecosystem below a project directory.
//
// Missing or malformed manifests are not errors: the collector logs them and
// returns an empty result. A non-nil error means the scan must abort.
type Collector interface {
	// Ecosystem returns the ecosystem every emitted identity belongs to.
	Ecosystem() Ecosystem
	// Manifests returns the existing files below dir that Collect would read.
	Manifests(dir string) []string
	// Collect returns the deduplicated dependencies declared below dir.
	Collect(ctx context.Context, dir string) ([]Dependency, error)
}

// Fingerprinter is implemented by collectors whose output depends on more
// than the contents of their manifests, such as an external tool being
// installed. Caches fold the fingerprint into their keys.
type Fingerprinter interface {
	Fingerprint() string
}

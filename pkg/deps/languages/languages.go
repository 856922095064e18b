// Package languages provides the closed set of supported ecosystems.
//
// The individual language packages import pkg/deps, so pkg/deps cannot
// import them back. Consumers that need the full list import this package.
//
// Adding an ecosystem means adding its package here; there is no runtime
// registration.
package languages

import (
	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/deps/golang"
	"github.com/matzehuels/locallore/pkg/deps/javascript"
	"github.com/matzehuels/locallore/pkg/deps/python"
	"github.com/matzehuels/locallore/pkg/deps/rust"
)

// All is the canonical list of supported ecosystems, in collection order.
var All = []*deps.Language{
	rust.Language,
	javascript.Language,
	golang.Language,
	python.Language,
}

// Find returns the Language with the given name or ecosystem, or nil.
func Find(name string) *deps.Language {
	return deps.FindLanguage(name, All)
}

// Collectors builds one collector per language in [All].
func Collectors(opts deps.Options) []deps.Collector {
	return deps.Collectors(All, opts)
}

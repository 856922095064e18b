// Package deps defines the collector contract and the identity scheme shared
// by every ecosystem.
//
// # Overview
//
// Locallore discovers third-party dependencies declared in a project
// directory. Each supported ecosystem ships a [Collector] that reads the
// ecosystem's manifests and lockfiles and emits [Dependency] values. No
// network access is involved; everything comes from files on disk (or, for
// Cargo, from the local cargo toolchain).
//
// # Identity
//
// A dependency is identified by the triple (ecosystem, name, version):
//
//	id := deps.Identity{Ecosystem: deps.NPM, Name: "react", Version: "18.2.0"}
//	id.String() // "npm:react:18.2.0"
//
// [Identity] is a comparable value type. Identities from different
// ecosystems never collide because the ecosystem is part of the key.
//
// # Deduplication
//
// Collectors funnel their output through a [Set], which keeps the first
// descriptor seen for each identity:
//
//	set := deps.NewSet()
//	set.Add(deps.New(deps.Go, "golang.org/x/mod", "v0.31.0"))
//	set.Slice()
//
// # Languages
//
// [Language] bundles an ecosystem with its manifest names and collector
// constructor. The closed set of built-in languages lives in
// [languages.All].
//
// [languages.All]: github.com/matzehuels/locallore/pkg/deps/languages
package deps

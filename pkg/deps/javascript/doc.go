// Package javascript collects npm packages from package-lock.json.
//
// Lockfile versions 2 and 3 carry a flat "packages" map keyed by install
// path; the root entry ("") and workspace links are skipped, and the package
// name is taken from the path after the last node_modules/ unless the entry
// names itself (aliased installs). Version 1 lockfiles carry a recursive
// "dependencies" tree, which is walked depth first.
//
// Identical (name, version) pairs installed at several paths are reported
// once.
package javascript

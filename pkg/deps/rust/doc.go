// Package rust collects crates used by a Cargo workspace.
//
// # Resolution
//
// The primary source is `cargo metadata --format-version 1 --offline`. The
// collector starts at every workspace member and follows resolve-graph edges
// whose dep_kinds include a normal or dev dependency. Every non-member
// package reached this way is emitted, so two versions of the same crate
// become two identities.
//
// A crate that is only reachable through build dependencies (build scripts
// and their own dependency trees) is never emitted.
//
// # Offline Fallback
//
// When cargo is not installed or fails, the collector reads Cargo.toml and
// Cargo.lock itself. It expands [workspace].members globs, classifies each
// member's [dependencies], [dev-dependencies] and target-specific tables,
// and resolves the matching Cargo.lock entries. Path dependencies (lock
// entries without a source) are skipped.
package rust

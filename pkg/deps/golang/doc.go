// Package golang collects Go modules required by a go.mod file.
//
// The file is parsed with golang.org/x/mod/modfile. Versions keep their "v"
// prefix, which is the canonical form in the Go ecosystem.
package golang

package rust

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matzehuels/locallore/pkg/deps"
)

// ErrCargoNotFound is returned by [RunCargoMetadata] when no cargo binary is
// on PATH.
var ErrCargoNotFound = errors.New("cargo binary not found")

// MetadataRunner returns the JSON document printed by
// `cargo metadata --format-version 1` for the given Cargo.toml.
type MetadataRunner func(ctx context.Context, manifestPath string) ([]byte, error)

// RunCargoMetadata shells out to cargo. It runs offline so that a workspace
// whose crates are not in the local registry cache fails fast instead of
// touching the network.
func RunCargoMetadata(ctx context.Context, manifestPath string) ([]byte, error) {
	if !cargoInstalled() {
		return nil, ErrCargoNotFound
	}

	cmd := exec.CommandContext(ctx, "cargo", "metadata",
		"--format-version", "1",
		"--offline",
		"--manifest-path", manifestPath,
	)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("cargo metadata: %v: %s", err, strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}

func cargoInstalled() bool {
	_, err := exec.LookPath("cargo")
	return err == nil
}

func manifestPath(dir string) string {
	return filepath.Join(dir, "Cargo.toml")
}

type metadata struct {
	Packages         []metadataPackage `json:"packages"`
	WorkspaceMembers []string          `json:"workspace_members"`
	Resolve          *metadataResolve  `json:"resolve"`
}

type metadataPackage struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Version string  `json:"version"`
	Source  *string `json:"source"` // null for path dependencies
}

type metadataResolve struct {
	Nodes []metadataNode `json:"nodes"`
}

type metadataNode struct {
	ID   string        `json:"id"`
	Deps []metadataDep `json:"deps"`
}

type metadataDep struct {
	Pkg      string    `json:"pkg"`
	DepKinds []depKind `json:"dep_kinds"`
}

type depKind struct {
	Kind *string `json:"kind"` // null for normal dependencies
}

func parseMetadata(data []byte) (*metadata, error) {
	var md metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	if md.Resolve == nil {
		return nil, errors.New("metadata has no resolve graph")
	}
	return &md, nil
}

// runtime reports whether the edge is used outside build scripts. Cargo
// versions that predate dep_kinds report no kinds at all; such edges are
// kept.
func (d metadataDep) runtime() bool {
	if len(d.DepKinds) == 0 {
		return true
	}
	for _, k := range d.DepKinds {
		if k.Kind == nil || *k.Kind != "build" {
			return true
		}
	}
	return false
}

// runtimeDependencies walks the resolve graph from every workspace member
// along runtime edges and returns the non-member packages it reaches.
func (md *metadata) runtimeDependencies() []deps.Dependency {
	packages := make(map[string]metadataPackage, len(md.Packages))
	for _, p := range md.Packages {
		packages[p.ID] = p
	}
	nodes := make(map[string]metadataNode, len(md.Resolve.Nodes))
	for _, n := range md.Resolve.Nodes {
		nodes[n.ID] = n
	}

	members := make(map[string]bool, len(md.WorkspaceMembers))
	for _, id := range md.WorkspaceMembers {
		members[id] = true
	}

	visited := make(map[string]bool)
	queue := append([]string(nil), md.WorkspaceMembers...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range nodes[id].Deps {
			if visited[dep.Pkg] || !dep.runtime() {
				continue
			}
			visited[dep.Pkg] = true
			queue = append(queue, dep.Pkg)
		}
	}

	set := deps.NewSet()
	for id := range visited {
		if members[id] {
			continue
		}
		p, ok := packages[id]
		if !ok || p.Source == nil || p.Name == "" || p.Version == "" {
			continue
		}
		set.Add(deps.Dependency{
			Identity: deps.Identity{Ecosystem: deps.Cargo, Name: p.Name, Version: p.Version},
			Manifest: "Cargo.lock",
		})
	}
	return set.Slice()
}

package golang

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/matzehuels/locallore/pkg/deps"
)

func TestLanguageDefinition(t *testing.T) {
	if Language.Name != "go" {
		t.Errorf("Name = %q, want %q", Language.Name, "go")
	}
	if Language.Ecosystem != deps.Go {
		t.Errorf("Ecosystem = %q, want %q", Language.Ecosystem, deps.Go)
	}
	if c := Language.Collector(deps.Options{}); c.Ecosystem() != deps.Go {
		t.Errorf("Collector().Ecosystem() = %q", c.Ecosystem())
	}
}

func TestCollector(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name: "direct and indirect",
			content: `module example.com/app

go 1.22

require (
	github.com/spf13/cobra v1.10.1
	golang.org/x/mod v0.31.0
)

require github.com/spf13/pflag v1.0.10 // indirect
`,
			want: []string{
				"github.com/spf13/cobra@v1.10.1",
				"github.com/spf13/pflag@v1.0.10",
				"golang.org/x/mod@v0.31.0",
			},
		},
		{
			name: "replacements",
			content: `module example.com/app

go 1.22

require (
	example.com/local v0.0.0
	example.com/forked v1.2.0
	example.com/pinned v1.0.0
)

replace example.com/local => ../local

replace example.com/forked => github.com/me/forked v1.2.1

replace example.com/pinned v0.9.0 => ../old
`,
			want: []string{
				"example.com/pinned@v1.0.0",
				"github.com/me/forked@v1.2.1",
			},
		},
		{
			name:    "malformed",
			content: "module example.com/app\nrequire (\n\tbroken\n",
			want:    nil,
		},
		{
			name: "missing",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			got, err := NewCollector(deps.Options{}).Collect(context.Background(), dir)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}

			var ids []string
			for _, d := range got {
				ids = append(ids, d.Name+"@"+d.Version)
			}
			sort.Strings(ids)

			if len(ids) != len(tt.want) {
				t.Fatalf("Collect() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("Collect()[%d] = %q, want %q", i, ids[i], tt.want[i])
				}
			}
		})
	}
}

package python

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/matzehuels/locallore/pkg/deps"
)

const poetryLock = `[[package]]
name = "requests"
version = "2.31.0"
description = "Python HTTP for Humans."
category = "main"
optional = false
python-versions = ">=3.7"

[package.dependencies]
certifi = ">=2017.4.17"
urllib3 = ">=1.21.1,<3"

[[package]]
name = "certifi"
version = "2024.2.2"
description = "Python package for providing Mozilla's CA Bundle."
category = "main"
optional = false
python-versions = ">=3.6"

[[package]]
name = "Typing_Extensions"
version = "4.10.0"

[[package]]
name = "zope.interface"
version = "6.2"

[[package]]
name = "mylib"
version = "0.1.0"

[package.source]
type = "directory"
url = "../mylib"

[metadata]
lock-version = "2.0"
python-versions = "^3.10"
content-hash = "abc123"
`

func collect(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := NewCollector(deps.Options{}).Collect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var out []string
	for _, d := range got {
		if d.Ecosystem != deps.PyPI {
			t.Errorf("ecosystem = %q, want pypi", d.Ecosystem)
		}
		out = append(out, d.Name+"=="+d.Version)
	}
	sort.Strings(out)
	return out
}

func TestCollector(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name:  "poetry.lock",
			files: map[string]string{"poetry.lock": poetryLock},
			want:  []string{"certifi==2024.2.2", "requests==2.31.0", "typing-extensions==4.10.0", "zope-interface==6.2"},
		},
		{
			name: "poetry.lock wins over requirements.txt",
			files: map[string]string{
				"poetry.lock":      poetryLock,
				"requirements.txt": "flask==3.0.0\n",
			},
			want: []string{"certifi==2024.2.2", "requests==2.31.0", "typing-extensions==4.10.0", "zope-interface==6.2"},
		},
		{
			name: "pinned requirements",
			files: map[string]string{"requirements.txt": `# web
Flask==3.0.0
requests[security] == 2.31.0 ; python_version >= "3.8"
django>=4.2
-r other.txt
numpy
`},
			want: []string{"flask==3.0.0", "requests==2.31.0"},
		},
		{
			name: "non-registry sources skipped",
			files: map[string]string{"poetry.lock": `[[package]]
name = "mylib"
version = "0.1.0"

[package.source]
type = "git"
url = "https://github.com/acme/mylib.git"
reference = "main"
resolved_reference = "4f1c2a9"

[[package]]
name = "wheelhouse"
version = "2.0.0"

[package.source]
type = "url"
url = "https://files.example.com/wheelhouse-2.0.0.tar.gz"

[[package]]
name = "internal-sdk"
version = "3.1.0"

[package.source]
type = "legacy"
url = "https://pypi.example.com/simple"
reference = "private"
`},
			want: []string{"internal-sdk==3.1.0"},
		},
		{
			name:  "malformed poetry.lock",
			files: map[string]string{"poetry.lock": "[[package]\nname = "},
			want:  nil,
		},
		{
			name:  "no manifests",
			files: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tt.files)
			if len(got) != len(tt.want) {
				t.Fatalf("Collect() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Collect()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Django":            "django",
		"typing_extensions": "typing-extensions",
		"zope.interface":    "zope-interface",
		"Foo__Bar--baz":     "foo-bar-baz",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

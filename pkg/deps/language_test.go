package deps

import (
	"context"
	"testing"
)

type stubCollector struct {
	eco  Ecosystem
	opts Options
}

func (s *stubCollector) Ecosystem() Ecosystem      { return s.eco }
func (s *stubCollector) Manifests(string) []string { return nil }
func (s *stubCollector) Collect(context.Context, string) ([]Dependency, error) {
	return nil, nil
}

func TestFindLanguage(t *testing.T) {
	langs := []*Language{
		{Name: "rust", Ecosystem: Cargo},
		{Name: "python", Ecosystem: PyPI},
	}

	tests := []struct {
		query string
		want  string
	}{
		{"rust", "rust"},
		{"cargo", "rust"},
		{"PyPI", "python"},
		{"ruby", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FindLanguage(tt.query, langs)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("FindLanguage(%q) = %q, want nil", tt.query, got.Name)
			case tt.want != "" && (got == nil || got.Name != tt.want):
				t.Errorf("FindLanguage(%q) = %v, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestCollectorsAppliesDefaults(t *testing.T) {
	var built []*stubCollector
	lang := &Language{
		Name:      "test",
		Ecosystem: "test",
		NewCollector: func(opts Options) Collector {
			c := &stubCollector{eco: "test", opts: opts}
			built = append(built, c)
			return c
		},
	}

	cs := Collectors([]*Language{lang, lang}, Options{})
	if len(cs) != 2 {
		t.Fatalf("Collectors() len = %d, want 2", len(cs))
	}
	for _, c := range built {
		if c.opts.Logger == nil {
			t.Error("collector built without a logger")
		}
	}
}

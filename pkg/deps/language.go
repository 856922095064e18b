package deps

import "strings"

// Language describes one supported ecosystem: the manifests it understands
// and how to build its collector.
type Language struct {
	Name         string                        // Language name, e.g. "rust"
	Ecosystem    Ecosystem                     // Ecosystem of emitted identities
	Manifests    []string                      // Manifest file names, in read order
	NewCollector func(opts Options) Collector // Collector constructor
}

// Collector builds the language's collector with defaults applied to opts.
func (l *Language) Collector(opts Options) Collector {
	return l.NewCollector(opts.WithDefaults())
}

// FindLanguage returns the language whose name or ecosystem matches name,
// ignoring case.
func FindLanguage(name string, langs []*Language) *Language {
	for _, l := range langs {
		if strings.EqualFold(l.Name, name) || strings.EqualFold(string(l.Ecosystem), name) {
			return l
		}
	}
	return nil
}

// Collectors builds one collector per language, preserving order.
func Collectors(langs []*Language, opts Options) []Collector {
	out := make([]Collector, 0, len(langs))
	for _, l := range langs {
		out = append(out, l.Collector(opts))
	}
	return out
}

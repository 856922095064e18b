package deps

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ExistingFiles returns the paths of the named files that exist directly in
// dir, in the order given.
func ExistingFiles(dir string, names ...string) []string {
	var out []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	return out
}

// ReadManifest reads a manifest file. A missing or unreadable file is logged
// at debug level and reported as ok=false rather than as an error.
func ReadManifest(path string, opts Options) (data []byte, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			opts.Logger.Debug("manifest not found", "path", path)
		} else {
			opts.Logger.Debug("manifest unreadable", "path", path, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Relative returns path relative to dir, or path itself when it cannot be
// expressed relative to dir.
func Relative(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil {
		return rel
	}
	return path
}

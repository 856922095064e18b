package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

const maxNameLength = 256

// ValidateName rejects dependency names and versions that cannot be stored
// safely: empty values, control characters and overlong strings.
// Ecosystem-specific syntax is the collectors' business.
func ValidateName(kind, value string) error {
	if value == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(value) > maxNameLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", kind, maxNameLength)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains control characters", kind)
		}
	}
	return nil
}

// ValidateIdentity validates the three components of a dependency identity.
func ValidateIdentity(ecosystem, name, version string) error {
	if err := ValidateName("ecosystem", ecosystem); err != nil {
		return err
	}
	if strings.Contains(ecosystem, ":") {
		return New(ErrCodeInvalidInput, "ecosystem cannot contain ':'")
	}
	if err := ValidateName("name", name); err != nil {
		return err
	}
	if err := ValidateName("version", version); err != nil {
		return err
	}
	if strings.Contains(version, ":") {
		return New(ErrCodeInvalidInput, "version cannot contain ':'")
	}
	return nil
}

// ValidateScanPath checks that path is usable as a scan root: non-empty,
// absolute, already clean and free of control characters. Whether it
// exists is checked by the scanner.
func ValidateScanPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if !filepath.IsAbs(path) {
		return New(ErrCodeInvalidPath, "path must be absolute: %s", path)
	}
	if filepath.Clean(path) != path {
		return New(ErrCodeInvalidPath, "path must be clean: %s (use %s)", path, filepath.Clean(path))
	}
	return nil
}

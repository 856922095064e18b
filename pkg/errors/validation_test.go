package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "requests", false},
		{"scoped npm", "@scope/package", false},
		{"go module", "golang.org/x/mod", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("name", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name                    string
		ecosystem, pkg, version string
		wantErr                 bool
	}{
		{"valid", "npm", "react", "18.2.0", false},
		{"colon in name", "x", "a:b", "1", false},
		{"colon in ecosystem", "a:b", "x", "1", true},
		{"colon in version", "npm", "x", "1:2", true},
		{"missing version", "npm", "react", "", true},
		{"missing ecosystem", "", "react", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentity(tt.ecosystem, tt.pkg, tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentity() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateScanPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"absolute", "/srv/projects/app", false},
		{"root", "/", false},
		{"empty", "", true},
		{"relative", "projects/app", true},
		{"dot relative", "./app", true},
		{"unclean", "/srv/projects/../app", true},
		{"trailing slash", "/srv/app/", true},
		{"control char", "/srv/\x01app", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScanPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScanPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

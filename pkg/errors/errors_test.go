package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(ErrCodeInvalidPath, "not a directory: %s", "/srv/app/go.mod"),
			want: "INVALID_PATH: not a directory: /srv/app/go.mod",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeStore, errors.New("connection refused"), "upsert %s", "npm:left-pad:1.3.0"),
			want: "STORE_ERROR: upsert npm:left-pad:1.3.0: connection refused",
		},
		{
			name: "nested",
			err:  Wrap(ErrCodeCollectorFailed, New(ErrCodeInvalidManifest, "bad lockfile"), "npm collector"),
			want: "COLLECTOR_FAILED: npm collector: INVALID_MANIFEST: bad lockfile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStore, cause, "upsert")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestCodeLookups(t *testing.T) {
	nested := Wrap(ErrCodeCollectorFailed, New(ErrCodeInvalidManifest, "bad lockfile"), "npm collector")
	fmtWrapped := fmt.Errorf("scan /srv/app: %w", Wrap(ErrCodeStore, errors.New("timeout"), "upsert"))

	tests := []struct {
		name      string
		err       error
		code      Code
		wantIs    bool
		wantCode  Code
		retryable bool
	}{
		{"outer code", nested, ErrCodeCollectorFailed, true, ErrCodeCollectorFailed, false},
		{"inner code", nested, ErrCodeInvalidManifest, true, ErrCodeCollectorFailed, false},
		{"absent code", nested, ErrCodeStore, false, ErrCodeCollectorFailed, false},
		{"behind fmt wrap", fmtWrapped, ErrCodeStore, true, ErrCodeStore, true},
		{"backpressure", New(ErrCodeUnavailable, "busy"), ErrCodeUnavailable, true, ErrCodeUnavailable, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false, "", false},
		{"nil", nil, ErrCodeInvalidInput, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.wantIs {
				t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.wantIs)
			}
			if got := GetCode(tt.err); got != tt.wantCode {
				t.Errorf("GetCode() = %q, want %q", got, tt.wantCode)
			}
			if got := Retryable(tt.err); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidInput, "path is required"), "path is required"},
		{"coded behind fmt wrap", fmt.Errorf("request: %w", New(ErrCodeNotFound, "no such dependency")), "no such dependency"},
		{"plain", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

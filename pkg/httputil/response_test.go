package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/locallore/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     errors.Code
		hideBody bool
	}{
		{"invalid path", errors.New(errors.ErrCodeInvalidPath, "path must be absolute: x"), 400, errors.ErrCodeInvalidPath, false},
		{"not found", errors.New(errors.ErrCodeNotFound, "no such dependency"), 404, errors.ErrCodeNotFound, false},
		{"store", errors.Wrap(errors.ErrCodeStore, fmt.Errorf("dial tcp"), "upsert"), 503, errors.ErrCodeStore, false},
		{"busy", errors.New(errors.ErrCodeUnavailable, "scan scheduler is busy"), 503, errors.ErrCodeUnavailable, false},
		{"plain", fmt.Errorf("pq: password authentication failed"), 500, errors.ErrCodeInternal, true},
		{"internal", errors.New(errors.ErrCodeInternal, "secret detail"), 500, errors.ErrCodeInternal, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.code)
			}
			if tt.hideBody && body.Error.Message != http.StatusText(500) {
				t.Errorf("message leaked: %q", body.Error.Message)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusAccepted, map[string]string{"path": "/p"})

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"path":"/p"}` {
		t.Errorf("body = %s", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Path string `json:"path"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"path":"/p"}`))
	if err := DecodeJSON(r, &v); err != nil || v.Path != "/p" {
		t.Fatalf("DecodeJSON = %v, %+v", err, v)
	}

	for _, body := range []string{`{"path":`, `{"path":"/p","extra":1}`, ``} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := DecodeJSON(r, &v); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("DecodeJSON(%q) = %v, want INVALID_INPUT", body, err)
		}
	}
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", "info", func(l *log.Logger) { l.Info("scan complete") }, true},
		{"debug at info", "info", func(l *log.Logger) { l.Debug("batch reconciled") }, false},
		{"debug at debug", "debug", func(l *log.Logger) { l.Debug("batch reconciled") }, true},
		{"info at warn", "warn", func(l *log.Logger) { l.Info("scan complete") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLevel(tt.level)
			if err != nil {
				t.Fatalf("parseLevel(%q): %v", tt.level, err)
			}
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, level))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Scanned /srv/api")

	out := buf.String()
	if !strings.Contains(out, "Scanned /srv/api (") || !strings.Contains(out, "s)") {
		t.Errorf("progress output = %q", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("expected log.Default() without a logger in context")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), custom)) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"json", "json", `"msg":"scan complete"`},
		{"logfmt", "logfmt", "msg=\"scan complete\""},
		{"text", "text", "scan complete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, log.InfoLevel)
			l.SetFormatter(formatter(tt.format))
			l.Info("scan complete", "path", "/srv/api")

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("%s output = %q, want it to contain %q", tt.format, buf.String(), tt.want)
			}
			if !strings.Contains(buf.String(), "/srv/api") {
				t.Errorf("%s output = %q, missing key/value", tt.format, buf.String())
			}
		})
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func captureJSON(t *testing.T, f func(l *slog.Logger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f(l)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("log output %q is not one JSON record: %v", buf.String(), err)
	}
	return rec
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestInitLoggerTo(t *testing.T) {
	old := defaultLogger
	defer func() { defaultLogger = old; slog.SetDefault(old) }()

	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelWarn, FormatJSON)
	Info("hidden")
	Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["key"] != "value" {
		t.Errorf("record = %v", rec)
	}
	ts, _ := rec["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC 3339", ts)
	}
}

func TestSourceParsed(t *testing.T) {
	rec := captureJSON(t, func(l *slog.Logger) {
		SourceParsed(l, "KJV", "usfx", 66, 31102, 2000, 3)
	})
	if rec["msg"] != "source_parsed" || rec["version"] != "KJV" || rec["verses"] != float64(31102) {
		t.Errorf("record = %v", rec)
	}
}

func TestDiagnosticLevels(t *testing.T) {
	rec := captureJSON(t, func(l *slog.Logger) {
		Diagnostic(l, "skip", "KJV", "ZZZ", "unknown book code")
	})
	if rec["level"] != "WARN" || rec["book"] != "ZZZ" {
		t.Errorf("skip record = %v", rec)
	}

	rec = captureJSON(t, func(l *slog.Logger) {
		Diagnostic(l, "warn", "KJV", "", "invalid verse id")
	})
	if rec["level"] != "INFO" {
		t.Errorf("warn record level = %v", rec["level"])
	}
	if _, ok := rec["book"]; ok {
		t.Error("empty book should be omitted")
	}
}

func TestBuildStep(t *testing.T) {
	rec := captureJSON(t, func(l *slog.Logger) {
		BuildStep(l, "verses", 42, 1500*time.Millisecond)
	})
	if rec["step"] != "verses" || rec["rows"] != float64(42) || rec["duration_ms"] != float64(1500) {
		t.Errorf("record = %v", rec)
	}
}

func TestFromContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	if GetRunID(ctx) != "run-1" {
		t.Errorf("GetRunID = %q", GetRunID(ctx))
	}
	if GetRunID(context.Background()) != "" {
		t.Error("GetRunID on empty context should be empty")
	}

	rec := captureJSON(t, func(l *slog.Logger) {
		FromContext(ctx, l).Info("hello")
	})
	if rec["run_id"] != "run-1" {
		t.Errorf("record = %v", rec)
	}
	if Or(nil) != GetLogger() {
		t.Error("Or(nil) should return the global logger")
	}
}

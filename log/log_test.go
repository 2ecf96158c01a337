package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func captureLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewWithHandler(h), &buf
}

func TestModuleAttribute(t *testing.T) {
	logger, buf := captureLogger(slog.LevelInfo)
	logger.Module("core").Info("bucket created", "id", "0x01")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if rec["module"] != "core" {
		t.Fatalf("module = %v, want core", rec["module"])
	}
	if rec["msg"] != "bucket created" || rec["id"] != "0x01" {
		t.Fatalf("record = %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := captureLogger(slog.LevelWarn)
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn should pass at warn level")
	}
}

func TestWithContext(t *testing.T) {
	logger, buf := captureLogger(slog.LevelInfo)
	logger.With("bucket", "0x02").Error("claim failed")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if rec["bucket"] != "0x02" {
		t.Fatalf("record = %v", rec)
	}
}

func TestSetDefault(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	logger, buf := captureLogger(slog.LevelInfo)
	SetDefault(logger)
	Info("via default")
	if buf.Len() == 0 {
		t.Fatal("package-level Info should use the replaced default")
	}
	SetDefault(nil) // ignored
	if Default() != logger {
		t.Fatal("SetDefault(nil) should be a no-op")
	}
}

package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vodsmith/internal/services"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "vodsmith.log")
	logger, err := New(Options{Level: "debug", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Info("hello", String("video_id", "vid-1"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("decode log line %q: %v", data, err)
	}
	if entry["msg"] != "hello" || entry["level"] != "info" || entry["video_id"] != "vid-1" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format to fail")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	for _, level := range []string{"", "info", "bogus"} {
		if got := parseLevel(level); got.String() != "INFO" {
			t.Fatalf("parseLevel(%q) = %s", level, got)
		}
	}
}

func TestWithContextAddsAnnotatedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vodsmith.log")
	logger, err := New(Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	ctx := services.WithChunk(services.WithVideoID(context.Background(), "vid-1"), "0000-0060")
	WithContext(ctx, logger).Info("annotated")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"video_id":"vid-1"`) || !strings.Contains(line, `"chunk":"0000-0060"`) {
		t.Fatalf("expected context fields in %s", line)
	}
}

func TestNewComponentLoggerTagsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vodsmith.log")
	logger, err := New(Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	NewComponentLogger(logger, "worker").Info("tagged")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"worker"`) {
		t.Fatalf("expected component field in %s", data)
	}
}

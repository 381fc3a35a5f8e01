package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogBeforeInitIsNoOp(t *testing.T) {
	t.Chdir(t.TempDir())

	// Без InitLogger записи молча игнорируются
	Info("dropped", "key", "value")
	Warn("dropped too")

	matches, err := filepath.Glob("roy-*.log")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("log file created without InitLogger: %v", matches)
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := InitLogger(); err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	defer Close()

	Info("model selected", "alias", "gpt")
	Warn("placeholder unresolved", "expr", "missing")

	matches, err := filepath.Glob("roy-*.log")
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (err=%v)", matches, err)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "INFO: model selected alias=gpt") {
		t.Errorf("info line missing in log:\n%s", content)
	}
	if !strings.Contains(content, "WARN: placeholder unresolved expr=missing") {
		t.Errorf("warn line missing in log:\n%s", content)
	}
}

func TestInitLoggerIdempotent(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := InitLogger(); err != nil {
		t.Fatal(err)
	}
	defer Close()

	if err := InitLogger(); err != nil {
		t.Fatalf("second InitLogger() error = %v", err)
	}

	matches, _ := filepath.Glob("roy-*.log")
	if len(matches) != 1 {
		t.Errorf("expected one log file, got %v", matches)
	}
}

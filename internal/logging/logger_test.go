package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn")
	defer func() { Logger = nil }()

	Info("hidden")
	Warn("shown", "items", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "items=3") {
		t.Errorf("missing warn line: %s", out)
	}
}

func TestInitWriterBadLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "chatty")
	defer func() { Logger = nil }()

	Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Error("unknown level should fall back to info")
	}
}

func TestInitFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "debug"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Debug("file line")
	Close()
	Logger = nil

	matches, _ := filepath.Glob(filepath.Join(dir, "auctionwatch-*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one log file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "file line") {
		t.Errorf("log file missing line: %s", data)
	}
}

func TestHelpersWithoutInit(t *testing.T) {
	Logger = nil
	Info("x")
	Error("y")
	if WithPrefix("fetch") == nil {
		t.Error("WithPrefix should never return nil")
	}
}

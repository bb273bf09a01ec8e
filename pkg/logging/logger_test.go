package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf)

	logger.Info("invoice issued", "number", "WC-2025-0001")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "invoice issued" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["number"] != "WC-2025-0001" {
		t.Fatalf("unexpected attribute: %v", record["number"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("warn", &buf)

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatal("info record emitted at warn level")
	}
	if !strings.Contains(out, "should be kept") {
		t.Fatal("warn record missing")
	}
}

func TestWithAttachesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("debug", &buf).With("org_id", "org-1")

	logger.Debug("patient created")

	if !strings.Contains(buf.String(), `"org_id":"org-1"`) {
		t.Fatalf("expected org_id attribute, got %q", buf.String())
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("verbose", &buf)

	logger.Debug("dropped")
	logger.Info("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Fatal("debug record emitted at default level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatal("info record missing at default level")
	}
}

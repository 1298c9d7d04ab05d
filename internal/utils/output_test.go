package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, map[string]any{"name": "Groceries", "items": 2})
	if err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"name": "Groceries"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteYAML(&buf, map[string]string{"name": "Groceries"})
	if err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	if !strings.Contains(buf.String(), "name: Groceries") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

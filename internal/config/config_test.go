package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"server_url": "ws://example.test:4000/socket",
		"user_id": "alice",
		"db_path": "/tmp/test.db",
		"request_timeout_sec": 30,
		"verbose": true
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerURL != "ws://example.test:4000/socket" || cfg.UserID != "alice" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", cfg.Timeout())
	}
	if cfg.DatabasePath() != "/tmp/test.db" {
		t.Errorf("DatabasePath() = %s", cfg.DatabasePath())
	}
}

func TestLoadWritesSampleWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerURL == "" || cfg.UserID == "" {
		t.Errorf("sample config incomplete: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("sample config not written to disk: %v", err)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{not json`), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadRejectsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"user_id": "alice"}`), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for missing server_url")
	}
}

func TestTimeoutDefault(t *testing.T) {
	cfg := Config{}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("default timeout = %v, want 10s", cfg.Timeout())
	}
}

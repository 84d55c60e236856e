package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Port = %s, want 3001", cfg.Port)
	}
	if cfg.ScanRetention != 90*24*time.Hour {
		t.Errorf("ScanRetention = %v, want 90 days", cfg.ScanRetention)
	}
	if cfg.SyncRetryCap != 3 {
		t.Errorf("SyncRetryCap = %d, want 3", cfg.SyncRetryCap)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SCAN_RETENTION", "24h")
	t.Setenv("SOURCE_GLOBAL_RATE", "2.5")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Port = %s, want 9999", cfg.Port)
	}
	if cfg.ScanRetention != 24*time.Hour {
		t.Errorf("ScanRetention = %v, want 24h", cfg.ScanRetention)
	}
	if cfg.GlobalSourceRate != 2.5 {
		t.Errorf("GlobalSourceRate = %v, want 2.5", cfg.GlobalSourceRate)
	}
}

func TestLoadSourcesBundled(t *testing.T) {
	registry, err := LoadSources("")
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(registry.Sources) == 0 {
		t.Fatal("bundled registry must declare sources")
	}

	for _, source := range registry.Sources {
		if source.Name == "" || source.URL == "" {
			t.Errorf("source missing name or url: %+v", source)
		}
		if len(source.Capabilities) == 0 {
			t.Errorf("source %s declares no capabilities", source.Name)
		}
		if source.Timeout() <= 0 {
			t.Errorf("source %s timeout = %v", source.Name, source.Timeout())
		}
	}
}

func TestLoadSourcesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	content := `{"sources": [{"name": "custom", "url": "https://example.test",
		"timeout_ms": 1000, "priority": 1, "capabilities": ["basic-info"],
		"rate_limit": {"max_per_window": 5, "window_ms": 1000}}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write sources file: %v", err)
	}

	registry, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(registry.Sources) != 1 || registry.Sources[0].Name != "custom" {
		t.Errorf("registry = %+v", registry)
	}
	if registry.Sources[0].RateLimit.Window() != time.Second {
		t.Errorf("window = %v, want 1s", registry.Sources[0].RateLimit.Window())
	}
}

func TestSourceCredentialFromEnv(t *testing.T) {
	t.Setenv("TEST_SOURCE_KEY", "secret")
	source := SourceConfig{CredentialEnv: "TEST_SOURCE_KEY"}
	if got := source.Credential(); got != "secret" {
		t.Errorf("Credential = %q, want secret", got)
	}

	none := SourceConfig{}
	if got := none.Credential(); got != "" {
		t.Errorf("Credential without env = %q, want empty", got)
	}
}

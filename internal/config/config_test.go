package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/winstated/internal/ax"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AdmitDelayMS != 500 {
		t.Fatalf("expected default admit delay 500ms, got %d", cfg.AdmitDelayMS)
	}
	if cfg.RefreshInterval() != 10*time.Second {
		t.Fatalf("expected default refresh interval 10s, got %v", cfg.RefreshInterval())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
admit_delay_ms: 250
refresh_interval_seconds: 30
process_policy: [regular]
logging:
  level: debug
  format: json
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AdmitDelay() != 250*time.Millisecond {
		t.Fatalf("expected 250ms admit delay, got %v", cfg.AdmitDelay())
	}
	if cfg.RefreshInterval() != 30*time.Second {
		t.Fatalf("expected 30s refresh interval, got %v", cfg.RefreshInterval())
	}
	mask, err := cfg.Policy()
	if err != nil {
		t.Fatalf("unexpected policy error: %v", err)
	}
	if mask != ax.PolicyRegular {
		t.Fatalf("expected regular-only policy, got %v", mask)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		t.Fatalf("unexpected level error: %v", err)
	}
	if level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", level)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	path := writeConfig(t, "process_policy: [regular, kiosk]\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error for unknown logging level")
	}
}

func TestZeroAdmitDelayMeansNoWait(t *testing.T) {
	path := writeConfig(t, "admit_delay_ms: 0\n")
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AdmitDelay() >= 0 {
		t.Fatalf("expected negative sentinel for zero delay, got %v", cfg.AdmitDelay())
	}
}

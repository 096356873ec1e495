package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Login.MinUID != 1000 || cfg.Auth.Service != "login" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config written: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Login.SpawnFailurePause != time.Second {
		t.Fatalf("expected pause to survive round trip, got %s", again.Login.SpawnFailurePause)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `login:
  min_uid: 500
  include_root_user: false
  wtmp_file: ""
  spawn_failure_pause: 250ms
auth:
  backend: shadow
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Login.MinUID != 500 || cfg.Login.IncludeRoot {
		t.Fatalf("overlay not applied: %+v", cfg.Login)
	}
	if cfg.Login.WtmpFile != "" {
		t.Fatalf("expected wtmp disabled, got %q", cfg.Login.WtmpFile)
	}
	if cfg.Login.SpawnFailurePause != 250*time.Millisecond {
		t.Fatalf("unexpected pause %s", cfg.Login.SpawnFailurePause)
	}
	if cfg.Auth.Backend != "shadow" || cfg.Auth.Service != "login" {
		t.Fatalf("unexpected auth section %+v", cfg.Auth)
	}
	if cfg.Login.UtmpFile != "/run/utmp" {
		t.Fatalf("expected default utmp path kept, got %q", cfg.Login.UtmpFile)
	}
}

func TestLoadInvalidFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  backend: ldap\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "invalid auth backend") {
		t.Fatalf("expected backend validation error, got %v", err)
	}
	if cfg.Auth.Backend != "pam" {
		t.Fatalf("expected default backend, got %q", cfg.Auth.Backend)
	}

	if err := os.WriteFile(path, []byte("login: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

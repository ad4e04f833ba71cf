package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sga.yaml")
	yaml := `
server:
  port: 8080
labels:
  base_url: https://activos.example.com
api:
  tokens: "tok-a, tok-b"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SGA_PORT", "9090")
	t.Setenv("SGA_CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("env should override file, port = %d", cfg.Server.Port)
	}
	if cfg.Labels.BaseURL != "https://activos.example.com" {
		t.Fatalf("base url = %q", cfg.Labels.BaseURL)
	}
	if got := cfg.APITokens(); len(got) != 2 || got[0] != "tok-a" || got[1] != "tok-b" {
		t.Fatalf("tokens = %v", got)
	}
	if got := cfg.CORSOrigins(); len(got) != 2 {
		t.Fatalf("origins = %v", got)
	}
	// Untouched sections keep their defaults.
	if cfg.Paging.PerPage != 25 || cfg.API.JWTTTLMinutes != 480 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("SGA_PORT", "70000")
	if _, err := Load(""); err == nil {
		t.Fatal("expected port validation error")
	}
}

func TestCORSOriginsDefaultsToWildcard(t *testing.T) {
	cfg := Default()
	cfg.API.CORSOrigins = ""
	if got := cfg.CORSOrigins(); len(got) != 1 || got[0] != "*" {
		t.Fatalf("origins = %v", got)
	}
}

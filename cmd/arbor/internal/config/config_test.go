package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ComponentsDir != "components" || cfg.Entry != "app.arb" || cfg.OutDir != "dist" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Preview == nil || cfg.Preview.Port != 5173 {
		t.Fatalf("preview defaults = %+v", cfg.Preview)
	}
}

func TestLoadFillsPartialConfig(t *testing.T) {
	dir := t.TempDir()
	src := "name: demo\npreview:\n  port: 9000\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "demo" {
		t.Errorf("Name = %q, want demo", cfg.Name)
	}
	if cfg.Preview.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Preview.Port)
	}
	if cfg.Preview.Host != "localhost" {
		t.Errorf("Host = %q, want the default", cfg.Preview.Host)
	}
	if cfg.ComponentsDir != "components" {
		t.Errorf("ComponentsDir = %q, want the default", cfg.ComponentsDir)
	}
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Name = "saved"

	if err := Save(cfg, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "saved" {
		t.Errorf("Name = %q, want saved", got.Name)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, FileName), []byte("name: [unclosed"), 0o644)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected a parse error")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Alpha != 0.60 {
		t.Errorf("expected default Alpha 0.60, got %f", cfg.Alpha)
	}
	if cfg.Tau != 0.08 {
		t.Errorf("expected default Tau 0.08, got %f", cfg.Tau)
	}
	if cfg.MaxUniverse != 5000 {
		t.Errorf("expected default MaxUniverse 5000, got %d", cfg.MaxUniverse)
	}
	if cfg.OverheadPerFragment != 18 {
		t.Errorf("expected default OverheadPerFragment 18, got %d", cfg.OverheadPerFragment)
	}
}

func TestLoadFallsBackToDefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Alpha != DefaultConfig().Alpha {
		t.Errorf("expected defaulted Alpha, got %f", cfg.Alpha)
	}
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	contents := "budget = 4000\nalpha = 0.65\ntau = 0.1\nfull = false\nmaxUniverse = 2000\noverheadPerFragment = 20\n"
	if err := os.WriteFile(filepath.Join(dir, "ctxlens.toml"), []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Budget != 4000 {
		t.Errorf("expected Budget 4000, got %d", cfg.Budget)
	}
	if cfg.Alpha != 0.65 {
		t.Errorf("expected Alpha 0.65, got %f", cfg.Alpha)
	}
	if cfg.MaxUniverse != 2000 {
		t.Errorf("expected MaxUniverse 2000, got %d", cfg.MaxUniverse)
	}
}

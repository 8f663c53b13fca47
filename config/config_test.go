package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scoring.HistoryWeight != 0.4 || cfg.Scoring.SemanticWeight != 0.6 {
		t.Errorf("default weights = %v/%v", cfg.Scoring.HistoryWeight, cfg.Scoring.SemanticWeight)
	}
	if cfg.Scoring.VeteranThreshold != 8 {
		t.Errorf("veteran threshold = %d, want 8", cfg.Scoring.VeteranThreshold)
	}
	if cfg.Resolver.SemanticAccept <= cfg.Resolver.CourseLexicalAccept {
		t.Error("semantic acceptance must be stricter than lexical acceptance")
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxAgeDays != 7 {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.Ingest.Workers != 2 || cfg.Ingest.MaxAttempts != 5 {
		t.Errorf("ingest defaults = %+v", cfg.Ingest)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scoring.TopK != 20 {
		t.Errorf("expected defaults, got %+v", cfg.Scoring)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teachmatch.yaml")
	data := []byte("scoring:\n  top_k: 5\n  veteran_threshold: 12\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scoring.TopK != 5 || cfg.Scoring.VeteranThreshold != 12 {
		t.Errorf("overrides not applied: %+v", cfg.Scoring)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Scoring.HistoryWeight != 0.4 {
		t.Errorf("history weight = %v, want default 0.4", cfg.Scoring.HistoryWeight)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teachmatch.yaml")

	cfg := DefaultConfig()
	cfg.Scoring.TopK = 7
	cfg.Resolver.SemanticAccept = 0.9
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Scoring.TopK != 7 || got.Resolver.SemanticAccept != 0.9 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scoring.TopK != 20 {
		t.Error("empty dir should yield defaults")
	}

	data := []byte("scoring:\n  top_k: 3\n")
	if err := os.WriteFile(filepath.Join(dir, "teachmatch.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scoring.TopK != 3 {
		t.Errorf("teachmatch.yaml not picked up: %+v", cfg.Scoring)
	}
}

func TestCatalogDBPath(t *testing.T) {
	got := CatalogDBPath("/data")
	want := filepath.Join("/data", ".teachmatch", "catalog.db")
	if got != want {
		t.Errorf("CatalogDBPath = %q, want %q", got, want)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default("test-site")
	if cfg.Site.Name != "test-site" {
		t.Fatalf("site name = %q", cfg.Site.Name)
	}
	if !cfg.KnownProcess("structure", "foundation") {
		t.Fatal("default catalog missing structure/foundation")
	}
	if !cfg.KnownProcess("finish", "punch") {
		t.Fatal("default catalog missing finish/punch")
	}
	if cfg.KnownProcess("structure", "punch") {
		t.Fatal("process matched outside its category")
	}
	if cfg.KnownProcess("demolition", "foundation") {
		t.Fatal("unknown category matched")
	}
}

func TestValidateRejectsBadCatalog(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing site name", "processes:\n  catalog:\n    structure: [slab]\n"},
		{"empty catalog", "site:\n  name: x\n"},
		{"category without processes", "site:\n  name: x\nprocesses:\n  catalog:\n    structure: []\n"},
		{"duplicate process", "site:\n  name: x\nprocesses:\n  catalog:\n    structure: [slab, slab]\n"},
		{"negative debounce", "site:\n  name: x\nprocesses:\n  catalog:\n    structure: [slab]\nsync:\n  debounce_ms: -1\n"},
	}
	for _, tc := range cases {
		if _, err := FromYAML([]byte(tc.yaml)); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestSyncDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("site:\n  name: x\nprocesses:\n  catalog:\n    structure: [slab]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debounce() != 400*time.Millisecond {
		t.Fatalf("debounce default = %v", cfg.Debounce())
	}
	if cfg.SyncTimeout() != 10*time.Second {
		t.Fatalf("timeout default = %v", cfg.SyncTimeout())
	}

	cfg.Sync.DebounceMS = 750
	cfg.Sync.TimeoutS = 3
	if cfg.Debounce() != 750*time.Millisecond || cfg.SyncTimeout() != 3*time.Second {
		t.Fatalf("explicit sync settings ignored: %v %v", cfg.Debounce(), cfg.SyncTimeout())
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing file: cfg=%v err=%v", cfg, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "consite.yml"), []byte(GenerateDefault("demo")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Site.Name != "demo" {
		t.Fatalf("site name = %q", cfg.Site.Name)
	}
}

func TestLoadMissingMentionsInit(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "cst init") {
		t.Fatalf("want hint to run cst init, got %v", err)
	}
}

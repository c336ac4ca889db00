package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchDocumentedValues(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Server.Mode != "mock" {
		t.Errorf("Server.Mode = %q, want %q", cfg.Server.Mode, "mock")
	}
	if !cfg.CORS.Enabled {
		t.Error("CORS.Enabled = false, want true by default")
	}
	if cfg.Chaos.Enabled {
		t.Error("Chaos.Enabled = true, want false by default")
	}
	if cfg.Matching.Strategy != "smart" {
		t.Errorf("Matching.Strategy = %q, want %q", cfg.Matching.Strategy, "smart")
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{Server: ServerConfig{Port: 9999, Mode: "proxy"}}
	applyDefaults(&cfg)
	if cfg.Server.Port != 9999 || cfg.Server.Mode != "proxy" {
		t.Errorf("applyDefaults overwrote explicit values: %+v", cfg.Server)
	}
	if cfg.Storage.Type != "lowdb" {
		t.Errorf("Storage.Type = %q, want default lowdb fill-in", cfg.Storage.Type)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}
}

func TestLoadOrDefaultsMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadOrDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefaults: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("cfg = %+v, want Defaults()", cfg)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := Config{
		Server:  ServerConfig{Port: 4000, Mode: "intercept"},
		Target:  TargetConfig{URL: "http://upstream.example", Timeout: 10},
		Storage: StorageConfig{Type: "sqlite", Path: "./data.db"},
	}
	if err := Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 4000 || loaded.Server.Mode != "intercept" {
		t.Errorf("loaded.Server = %+v", loaded.Server)
	}
	if loaded.Target.URL != "http://upstream.example" {
		t.Errorf("loaded.Target.URL = %q", loaded.Target.URL)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Save left a .tmp file behind")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid yaml"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("err = %v, want ErrInvalidYAML", err)
	}
}
